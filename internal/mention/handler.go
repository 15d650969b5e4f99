package handler

import (
	"errors"
	"net/http"
	"strings"

	"naskahweb/internal/mention/service"
	"naskahweb/middleware"
	"naskahweb/pkg/apperror"
	"naskahweb/pkg/httputil"
	"naskahweb/pkg/logger"
)

type MentionHandler struct {
	Registry *service.Registry
}

func NewMentionHandler(registry *service.Registry) *MentionHandler {
	return &MentionHandler{Registry: registry}
}

// Suggest answers GET /api/mentions?text=&roomId= with matching emails. A
// request overtaken by a newer one from the same user in the same room gets
// an empty list.
func (h *MentionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized: no valid session")
		return
	}

	text := strings.TrimSpace(r.URL.Query().Get("text"))
	roomID := r.URL.Query().Get("roomId")

	emails, err := h.Registry.For(identity.ID, roomID).Suggest(r.Context(), identity.Token, text, roomID)
	switch {
	case errors.Is(err, apperror.ErrSuperseded):
		emails = []string{}
	case err != nil:
		// Client went away while waiting.
		logger.Sugar.Debugf("Mention request for room %s ended: %v", roomID, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, emails)
}
