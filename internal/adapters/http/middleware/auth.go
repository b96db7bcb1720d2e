package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const claimsContextKey contextKey = "claims"

// DefaultTokenDuration is how long an admin token stays valid.
const DefaultTokenDuration = 12 * time.Hour

// TokenIssuerName is the iss claim of every admin token.
const TokenIssuerName = "companion"

// ErrNoSigningKey is returned when the token service has no secret.
var ErrNoSigningKey = errors.New("token signing key is not configured")

// Claims are the JWT claims carried by an admin token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 admin tokens.
type TokenService struct {
	Secret   []byte
	Duration time.Duration
	Now      func() time.Time // nil means time.Now
}

// NewTokenService creates a token service with the default duration.
func NewTokenService(secret []byte) *TokenService {
	return &TokenService{Secret: secret, Duration: DefaultTokenDuration}
}

func (ts *TokenService) now() time.Time {
	if ts.Now != nil {
		return ts.Now()
	}
	return time.Now()
}

// Issue signs a token for subject, valid from now for Duration.
// PRE: Secret is non-empty
// POST: Returns the signed token and its expiry
func (ts *TokenService) Issue(subject string, now time.Time) (string, time.Time, error) {
	if ts == nil || len(ts.Secret) == 0 {
		return "", time.Time{}, ErrNoSigningKey
	}
	d := ts.Duration
	if d <= 0 {
		d = DefaultTokenDuration
	}
	exp := now.Add(d)
	claims := Claims{
		Role: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuerName,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies a signed token and returns its claims.
// POST: Returns an error for a bad signature, another algorithm, another issuer or an expired token
func (ts *TokenService) Parse(raw string) (*Claims, error) {
	if ts == nil || len(ts.Secret) == 0 {
		return nil, ErrNoSigningKey
	}
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return ts.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// AdminCookieName is the cookie carrying the admin token for browsers and websockets.
const AdminCookieName = "companion_admin"

// SecureCookies sets the Secure flag on the admin cookie. Enabled in production.
var SecureCookies bool

// tokenFromRequest reads a bearer token, falling back to the admin cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(AdminCookieName); err == nil {
		return c.Value
	}
	return ""
}

// Auth returns middleware that verifies the admin token and sets its claims in context.
// It does NOT block unauthenticated requests; use RequireAdmin for that.
func Auth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := tokenFromRequest(r); raw != "" {
				if claims, err := tokens.Parse(raw); err == nil {
					r = r.WithContext(ContextWithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin blocks requests without a valid admin token.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="companion"`)
			http.Error(w, "admin token required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClaimsFromContext extracts the verified claims from the request context.
func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// IsAdmin checks if the request carries a verified admin token.
func IsAdmin(ctx context.Context) bool {
	claims, ok := GetClaimsFromContext(ctx)
	return ok && claims.Role == "admin"
}

// ContextWithClaims returns a context with the given claims set.
// Intended for use in tests.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// SetAdminCookie sets the admin token cookie on the response.
func SetAdminCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		Expires:  expires,
	})
}

// ClearAdminCookie removes the admin token cookie.
func ClearAdminCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
