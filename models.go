package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     time.Time  `bun:"created_at,notnull" json:"created_at,omitempty"`
	UpdatedAt     time.Time  `bun:"updated_at,notnull" json:"updated_at,omitempty"`
	LastLoginAt   *time.Time `bun:"last_login_at,nullzero" json:"last_login,omitempty"`
	IsActive      bool       `bun:"is_active,notnull" json:"is_active,omitempty"`
}

// Principal returns the identity attributes safe to hand downstream.
func (u *User) Principal() Principal {
	return Principal{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
	}
}

// Session is one issued token's server-side record. TokenDigest holds a
// SHA-256 digest of the bearer token, never the token itself.
type Session struct {
	bun.BaseModel `bun:"table:user_sessions,alias:ses"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	TokenDigest   string    `bun:"token_digest,notnull" json:"-"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at,omitempty"`
	IsActive      bool      `bun:"is_active,notnull" json:"is_active,omitempty"`
}

// Live reports whether the session authorizes requests at the given time.
func (s *Session) Live(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}

func prepareUserDefaults(user *User) {
	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	user.IsActive = true
}
