package collab

import (
	"context"
	"net/http"

	"naskahweb/middleware"
	"naskahweb/pkg/httputil"
	"naskahweb/pkg/logger"
)

// Authenticator exchanges a session token for a collaboration token.
type Authenticator interface {
	AuthenticateCollaboration(ctx context.Context, token string) (int, []byte, error)
}

type AuthHandler struct {
	Backend Authenticator
}

func NewAuthHandler(backend Authenticator) *AuthHandler {
	return &AuthHandler{Backend: backend}
}

// Authenticate answers POST /api/liveblocks-auth by forwarding the caller's
// token to the backend and passing its JSON answer through unchanged.
func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized: no valid session")
		return
	}

	status, body, err := h.Backend.AuthenticateCollaboration(r.Context(), identity.Token)
	if err != nil {
		logger.Sugar.Errorf("Collaboration auth failed for user %s: %v", identity.ID, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Authentication failed"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
