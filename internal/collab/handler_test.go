package collab

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"naskahweb/internal/backend"
	"naskahweb/internal/profile/model"
	"naskahweb/middleware"

	"github.com/stretchr/testify/assert"
)

func newAuthHandler(t *testing.T, backendHandler http.HandlerFunc) *AuthHandler {
	server := httptest.NewServer(backendHandler)
	t.Cleanup(server.Close)
	return NewAuthHandler(backend.NewClient(server.URL, 5*time.Second))
}

func authRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/liveblocks-auth", nil)
	identity := &model.Identity{ID: "user_1", Token: "session-token"}
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func TestAuthenticatePassesThroughJSON(t *testing.T) {
	var gotAuth string
	h := newAuthHandler(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/liveblocks", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"token":"lb-token"}`))
	})

	rec := httptest.NewRecorder()
	h.Authenticate(rec, authRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"lb-token"}`, rec.Body.String())
	assert.Equal(t, "Bearer session-token", gotAuth)
}

func TestAuthenticateFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		},
		"malformed json": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"token":`))
		},
	}

	for name, backendHandler := range cases {
		t.Run(name, func(t *testing.T) {
			h := newAuthHandler(t, backendHandler)
			rec := httptest.NewRecorder()
			h.Authenticate(rec, authRequest())

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"Authentication failed"}`, rec.Body.String())
		})
	}
}

func TestAuthenticateRequiresSession(t *testing.T) {
	h := newAuthHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})

	rec := httptest.NewRecorder()
	h.Authenticate(rec, httptest.NewRequest(http.MethodPost, "/api/liveblocks-auth", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
