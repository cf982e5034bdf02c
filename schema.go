package auth

import (
	"context"

	"github.com/uptrace/bun"
)

// EnsureSchema creates the users and user_sessions tables plus the
// lookup indexes if they do not exist. Sessions cascade-delete with
// their user.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	if _, err := db.NewCreateTable().
		Model((*Session)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return err
	}

	indexes := []struct {
		name   string
		model  any
		column string
	}{
		{"idx_users_email", (*User)(nil), "email"},
		{"idx_users_created_at", (*User)(nil), "created_at"},
		{"idx_user_sessions_user_id", (*Session)(nil), "user_id"},
		{"idx_user_sessions_token_digest", (*Session)(nil), "token_digest"},
		{"idx_user_sessions_expires_at", (*Session)(nil), "expires_at"},
	}

	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().
			Model(idx.model).
			IfNotExists().
			Index(idx.name).
			Column(idx.column).
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}
