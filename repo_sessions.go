package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenDigest returns the hex SHA-256 digest of a bearer token. Session
// rows store the digest so a database read cannot compromise live
// sessions.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type sessions struct {
	db *bun.DB
}

var _ Sessions = (*sessions)(nil)

// NewSessionsRepository returns a Sessions registry backed by the given
// database.
func NewSessionsRepository(db *bun.DB) Sessions {
	return &sessions{db: db}
}

// Register inserts a new live session row for the token. Registrations
// for the same user are independent; concurrent signins from multiple
// devices each get their own row.
func (s *sessions) Register(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*Session, error) {
	now := time.Now()
	if !expiresAt.After(now) {
		return nil, ErrInvalidSessionExpiry
	}

	record := &Session{
		ID:          uuid.New(),
		UserID:      userID,
		TokenDigest: TokenDigest(token),
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		IsActive:    true,
	}

	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

// IsLive reports whether a session row exists for the token with
// is_active set and an expiry in the future.
func (s *sessions) IsLive(ctx context.Context, token string) (bool, error) {
	return s.db.NewSelect().
		Model((*Session)(nil)).
		Where("?TableAlias.token_digest = ?", TokenDigest(token)).
		Where("?TableAlias.is_active = ?", true).
		Where("?TableAlias.expires_at > ?", time.Now()).
		Exists(ctx)
}

// Revoke deactivates the session for the token. Revoking a token with no
// matching row is a no-op so logout stays idempotent.
func (s *sessions) Revoke(ctx context.Context, token string) error {
	_, err := s.db.NewUpdate().
		Model((*Session)(nil)).
		Set("is_active = ?", false).
		Where("?TableAlias.token_digest = ?", TokenDigest(token)).
		Exec(ctx)

	return err
}

// Sweep deletes every expired or revoked session row and returns the
// count removed. Relies on the store's atomic delete; safe to run while
// request handlers register and revoke concurrently.
func (s *sessions) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*Session)(nil)).
		Where("?TableAlias.expires_at < ? OR ?TableAlias.is_active = ?", time.Now(), false).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
