package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NormalizeEmail lowercases and trims an email address. Every store
// lookup and insert goes through the normalized form so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository returns a Users store backed by the given database.
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

// Create inserts a new user row. Email uniqueness is enforced by the
// store itself: a race between two concurrent registrations resolves to
// one success and one ErrDuplicateEmail.
func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	prepareUserDefaults(user)
	user.Email = NormalizeEmail(user.Email)

	if _, err := a.db.NewInsert().Model(user).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return user, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return record, nil
}

// TrackSuccessfulLogin stamps last_login_at. Login is the only mutation
// a user row sees after creation.
func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	now := time.Now()

	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("last_login_at = ?", now).
		Set("updated_at = ?", now).
		Where("?TableAlias.id = ?", user.ID).
		Exec(ctx)

	if err == nil {
		user.LastLoginAt = &now
		user.UpdatedAt = now
	}

	return err
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	// sqlite, used by the test suite
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
