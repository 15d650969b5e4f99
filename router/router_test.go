package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"naskahweb/config"
	"naskahweb/internal/backend"
	"naskahweb/internal/profile/repository"
	profileService "naskahweb/internal/profile/service"
	"naskahweb/middleware"
	"naskahweb/socket"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

func setupRouter(t *testing.T) (http.Handler, *atomic.Int32) {
	calls := &atomic.Int32{}
	backendServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"data":[],"totalCount":0}}`))
	}))
	t.Cleanup(backendServer.Close)

	verifier, err := middleware.NewVerifier(context.Background(), testSecret, "")
	require.NoError(t, err)

	cfg := config.Config{
		SignInURL:       "/sign-in",
		CORSOrigins:     []string{"http://localhost:3000"},
		MentionDebounce: 10 * time.Millisecond,
		MentionLimit:    10,
	}
	client := backend.NewClient(backendServer.URL, 5*time.Second)
	profiles := profileService.NewProfileService(repository.NewMemoryStore(time.Hour), client)
	hub := socket.NewHub(profiles)
	go hub.Run()

	return Setup(cfg, verifier, client, profiles, hub), calls
}

func signedToken(t *testing.T) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_router",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestPageRoutesRedirectToSignIn(t *testing.T) {
	h, calls := setupRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/sign-in", rec.Header().Get("Location"))
	assert.Zero(t, calls.Load())
}

func TestAPIRoutesRequireSession(t *testing.T) {
	h, _ := setupRouter(t)

	for _, target := range []string{"/api/mentions?text=a", "/api/users/search?q=a"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestSignedInListView(t *testing.T) {
	h, calls := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hasNoDocumentsAtAll":true`)
	assert.Equal(t, int32(1), calls.Load())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	h, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/documents", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
