package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Principal is the authenticated identity derived from a verified
// credential or a validated token.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetTokenTTL() time.Duration
	GetRateLimitMax() int
	GetRateLimitWindow() time.Duration
	GetSweepInterval() time.Duration
}

// TokenService issues and validates signed bearer tokens.
type TokenService interface {
	Generate(p Principal) (string, time.Time, error)
	Validate(tokenString string) (*JWTClaims, error)
}

// Users is the credential store: it persists identities and answers
// lookups for the verification path.
type Users interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// Sessions is the session registry: one row per issued token, revocable
// independently of the token's own signature and expiry.
type Sessions interface {
	Register(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*Session, error)
	IsLive(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
	Sweep(ctx context.Context) (int64, error)
}

// RateLimiter throttles authentication attempts per client identity.
type RateLimiter interface {
	Admit(ctx context.Context, scope, client string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
