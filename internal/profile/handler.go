package handler

import (
	"encoding/json"
	"net/http"

	"naskahweb/internal/profile/model"
	"naskahweb/internal/profile/service"
	"naskahweb/middleware"
	"naskahweb/pkg/httputil"
)

const maxResolveBatch = 500

type ProfileHandler struct {
	Service *service.ProfileService
}

func NewProfileHandler(service *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{Service: service}
}

// ResolveUsers answers POST /api/users/resolve with one profile per
// requested id, in request order.
func (h *ProfileHandler) ResolveUsers(w http.ResponseWriter, r *http.Request) {
	var req model.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.UserIDs) > maxResolveBatch {
		httputil.RespondError(w, http.StatusBadRequest, "Too many user ids")
		return
	}

	// Missing identity is fine here: unknown ids degrade to placeholders.
	identity, _ := middleware.IdentityFrom(r.Context())

	profiles := h.Service.Resolve(r.Context(), identity, req.UserIDs)
	httputil.RespondJSON(w, http.StatusOK, profiles)
}
