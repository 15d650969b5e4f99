package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"naskahweb/internal/profile/model"
	"naskahweb/pkg/httputil"
	"naskahweb/pkg/logger"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const IdentityKey contextKey = "identity"

var errNoVerificationKey = errors.New("no verification key configured for token algorithm")

// SessionClaims are the identity provider's session token claims. Profile
// claims are optional; the provider only adds them when its session template
// asks for them.
type SessionClaims struct {
	jwt.RegisteredClaims
	Name      string `json:"name,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Verifier validates session tokens signed either with a shared HMAC secret
// or with the provider's published keys.
type Verifier struct {
	secret []byte
	jwks   keyfunc.Keyfunc
}

// NewVerifier needs at least one of secret and jwksURL.
func NewVerifier(ctx context.Context, secret, jwksURL string) (*Verifier, error) {
	v := &Verifier{}
	if secret != "" {
		v.secret = []byte(secret)
	}
	if jwksURL != "" {
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("create JWKS client: %w", err)
		}
		v.jwks = jwks
	}
	if v.secret == nil && v.jwks == nil {
		return nil, errors.New("server is not configured to validate JWTs: set JWT_SECRET or JWKS_URL")
	}
	return v, nil
}

func (v *Verifier) keyFor(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret != nil {
			return v.secret, nil
		}
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		if v.jwks != nil {
			return v.jwks.Keyfunc(token)
		}
	}
	return nil, fmt.Errorf("%w: %v", errNoVerificationKey, token.Header["alg"])
}

// Verify parses tokenString and returns the identity it carries.
func (v *Verifier) Verify(tokenString string) (*model.Identity, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFor,
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512", "RS256", "ES256"}),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.Subject == "" {
		return nil, errors.New("user ID (sub) claim is missing")
	}

	identity := &model.Identity{
		ID:        claims.Subject,
		FullName:  firstNonEmpty(claims.FullName, claims.Name),
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		ImageURL:  claims.ImageURL,
		Token:     tokenString,
	}
	if claims.Email != "" {
		identity.Emails = []string{claims.Email}
	}
	return identity, nil
}

// Authenticate attaches the caller's identity to the request context when a
// valid token is present. It never rejects; RequireAuth and RequireSignIn do.
func Authenticate(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := v.Verify(tokenString)
			if err != nil {
				logger.Sugar.Infof("Invalid token: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth answers 401 for API routes called without a valid session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); !ok {
			httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized: no valid session")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignIn redirects page routes to the sign-in destination before the
// wrapped handler can fetch anything.
func RequireSignIn(signInURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFrom(r.Context()); !ok {
				httputil.Redirect(w, r, signInURL)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func IdentityFrom(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*model.Identity)
	return identity, ok && identity != nil
}

// WithIdentity is used by tests and internal callers that already hold a
// verified identity.
func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func tokenFromRequest(r *http.Request) string {
	// Browsers cannot set headers on WebSocket upgrades, so the token may
	// arrive in the query string.
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := r.Cookie("__session"); err == nil {
		return cookie.Value
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
