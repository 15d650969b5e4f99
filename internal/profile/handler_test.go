package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"naskahweb/internal/profile/model"
	"naskahweb/internal/profile/repository"
	"naskahweb/internal/profile/service"
	"naskahweb/middleware"
	"naskahweb/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup map[string]*model.BackendUser

func (s stubLookup) GetUser(_ context.Context, _, id string) (*model.BackendUser, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperror.ErrNotFound
}

func TestResolveUsers(t *testing.T) {
	lookup := stubLookup{"user_other": {FirstName: "Grace", LastName: "Hopper"}}
	h := NewProfileHandler(service.NewProfileService(repository.NewMemoryStore(time.Hour), lookup))

	self := &model.Identity{ID: "user_self", FullName: "Ada Lovelace", Emails: []string{"ada@x.io"}, Token: "tok"}
	req := httptest.NewRequest(http.MethodPost, "/api/users/resolve",
		strings.NewReader(`{"userIds":["user_other","user_self","abc123"]}`))
	req = req.WithContext(middleware.WithIdentity(req.Context(), self))

	rec := httptest.NewRecorder()
	h.ResolveUsers(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var profiles []model.UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profiles))
	require.Len(t, profiles, 3)
	assert.Equal(t, "Grace Hopper", profiles[0].Name)
	assert.Equal(t, "Ada Lovelace", profiles[1].Name)
	assert.Equal(t, "User abc123", profiles[2].Name)
	assert.Equal(t, "abc123@example.com", profiles[2].Email)
	assert.Equal(t, "#FF6B6B", profiles[2].Color)
}

func TestResolveUsersWithoutSession(t *testing.T) {
	h := NewProfileHandler(service.NewProfileService(repository.NewMemoryStore(time.Hour), stubLookup{}))

	rec := httptest.NewRecorder()
	h.ResolveUsers(rec, httptest.NewRequest(http.MethodPost, "/api/users/resolve", strings.NewReader(`{"userIds":["xyz789"]}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"xyz789","name":"User xyz789","email":"xyz789@example.com","avatar":"","color":"#4ECDC4"}]`, rec.Body.String())
}

func TestResolveUsersBadBody(t *testing.T) {
	h := NewProfileHandler(service.NewProfileService(repository.NewMemoryStore(time.Hour), stubLookup{}))

	rec := httptest.NewRecorder()
	h.ResolveUsers(rec, httptest.NewRequest(http.MethodPost, "/api/users/resolve", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
