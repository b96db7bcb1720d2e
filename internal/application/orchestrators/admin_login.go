package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidSecret is returned for a wrong or missing admin secret.
var ErrInvalidSecret = errors.New("invalid admin secret")

// ErrAdminDisabled is returned when no admin secret is configured.
var ErrAdminDisabled = errors.New("admin access is not configured")

// AdminSubject is the token subject for studio staff.
const AdminSubject = "admin"

// TokenIssuer signs admin tokens.
type TokenIssuer interface {
	Issue(subject string, now time.Time) (token string, expiresAt time.Time, err error)
}

// HashAdminSecret hashes the configured shared secret once at startup.
// POST: Returns nil for an empty secret, which disables admin login
func HashAdminSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
}

// AdminLoginInput carries input for the admin login orchestrator.
type AdminLoginInput struct {
	Secret   string
	RemoteIP string
}

// AdminLoginResult carries the issued token.
type AdminLoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AdminLoginDeps holds dependencies for AdminLogin.
type AdminLoginDeps struct {
	SecretHash []byte
	Tokens     TokenIssuer
	Now        func() time.Time
}

// ExecuteAdminLogin checks the shared secret and issues an admin token.
// PRE: SecretHash is a bcrypt hash, or nil when admin access is off
// POST: Returns a signed token on success
func ExecuteAdminLogin(_ context.Context, input AdminLoginInput, deps AdminLoginDeps) (AdminLoginResult, error) {
	if len(deps.SecretHash) == 0 {
		return AdminLoginResult{}, ErrAdminDisabled
	}
	if input.Secret == "" {
		return AdminLoginResult{}, ErrInvalidSecret
	}
	if err := bcrypt.CompareHashAndPassword(deps.SecretHash, []byte(input.Secret)); err != nil {
		slog.Info("auth_event", "event", "admin_login_failed", "ip", input.RemoteIP)
		return AdminLoginResult{}, ErrInvalidSecret
	}

	token, exp, err := deps.Tokens.Issue(AdminSubject, deps.Now())
	if err != nil {
		return AdminLoginResult{}, err
	}
	slog.Info("auth_event", "event", "admin_login", "ip", input.RemoteIP, "expires_at", exp)
	return AdminLoginResult{Token: token, ExpiresAt: exp}, nil
}
