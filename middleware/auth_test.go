package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims SessionClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() SessionClaims {
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_2abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:     "Ada Lovelace",
		Email:    "ada@x.io",
		ImageURL: "https://img.example/ada.png",
	}
}

func newTestVerifier(t *testing.T) *Verifier {
	v, err := NewVerifier(context.Background(), testSecret, "")
	require.NoError(t, err)
	return v
}

func TestNewVerifierNeedsAKey(t *testing.T) {
	_, err := NewVerifier(context.Background(), "", "")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	v := newTestVerifier(t)
	token := signToken(t, validClaims(), testSecret)

	identity, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", identity.ID)
	assert.Equal(t, "Ada Lovelace", identity.FullName)
	assert.Equal(t, []string{"ada@x.io"}, identity.Emails)
	assert.Equal(t, token, identity.Token)
}

func TestVerifyRejects(t *testing.T) {
	v := newTestVerifier(t)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	cases := map[string]string{
		"wrong secret": signToken(t, validClaims(), "other-secret"),
		"expired":      signToken(t, expired, testSecret),
		"no subject":   signToken(t, noSubject, testSecret),
		"garbage":      "not.a.jwt",
	}
	for name, token := range cases {
		_, err := v.Verify(token)
		assert.Error(t, err, name)
	}
}

func TestVerifyRejectsRSAWithoutJWKS(t *testing.T) {
	v := newTestVerifier(t)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims())
	unsigned.Header["alg"] = "RS256"
	raw, err := unsigned.SigningString()
	require.NoError(t, err)

	_, err = v.Verify(raw + ".c2lnbmF0dXJl")
	assert.Error(t, err)
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := IdentityFrom(r.Context()); ok {
			w.Write([]byte(identity.ID))
			return
		}
		w.Write([]byte("anonymous"))
	})
}

func TestAuthenticateTokenSources(t *testing.T) {
	v := newTestVerifier(t)
	token := signToken(t, validClaims(), testSecret)
	handler := Authenticate(v)(identityEcho())

	header := httptest.NewRequest(http.MethodGet, "/", nil)
	header.Header.Set("Authorization", "Bearer "+token)

	query := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)

	cookie := httptest.NewRequest(http.MethodGet, "/", nil)
	cookie.AddCookie(&http.Cookie{Name: "__session", Value: token})

	invalid := httptest.NewRequest(http.MethodGet, "/", nil)
	invalid.Header.Set("Authorization", "Bearer nope")

	for name, tc := range map[string]struct {
		req  *http.Request
		want string
	}{
		"header":  {header, "user_2abc"},
		"query":   {query, "user_2abc"},
		"cookie":  {cookie, "user_2abc"},
		"invalid": {invalid, "anonymous"},
		"none":    {httptest.NewRequest(http.MethodGet, "/", nil), "anonymous"},
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, tc.req)
		assert.Equal(t, tc.want, rec.Body.String(), name)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(identityEcho())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req = req.WithContext(WithIdentity(req.Context(), &identityFixture))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, identityFixture.ID, rec.Body.String())
}

func TestRequireSignInRedirects(t *testing.T) {
	called := false
	handler := RequireSignIn("/sign-in")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/sign-in", rec.Header().Get("Location"))
	assert.False(t, called)
}
