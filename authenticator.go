package auth

import (
	"context"
	"errors"
)

// Authenticator composes the credential store with password hashing. It
// is the only component that sees cleartext passwords.
type Authenticator struct {
	users  Users
	logger Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users Users) *Authenticator {
	return &Authenticator{
		users:  users,
		logger: defLogger{},
	}
}

func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	a.logger = logger
	return a
}

// Register derives the password credential and persists a new active
// user. The derivation runs before any store work so no connection is
// held for its duration. Duplicate emails surface as ErrDuplicateEmail.
func (a *Authenticator) Register(ctx context.Context, name, email, password string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		a.logger.Error("Register hash password error", "error", err)
		return nil, err
	}

	user, err := a.users.Create(ctx, &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})

	if err != nil {
		if !errors.Is(err, ErrDuplicateEmail) {
			a.logger.Error("Register create user error", "error", err)
		}
		return nil, err
	}

	a.logger.Info("user registered", "email", user.Email)

	return user, nil
}

// Verify checks a password against the stored credential. Unknown email,
// wrong password, and deactivated accounts all fail with the same
// ErrInvalidCredentials. On success the user's last login is stamped.
func (a *Authenticator) Verify(ctx context.Context, email, password string) (Principal, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		a.logger.Error("Verify lookup error", "error", err)
		return Principal{}, err
	}

	if !user.IsActive {
		a.logger.Debug("Verify rejected inactive account", "user_id", user.ID)
		return Principal{}, ErrInvalidCredentials
	}

	// the store connection was released by GetByEmail; the expensive
	// comparison runs without one
	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return Principal{}, ErrInvalidCredentials
		}
		a.logger.Error("Verify compare error", "error", err)
		return Principal{}, err
	}

	if err := a.users.TrackSuccessfulLogin(ctx, user); err != nil {
		a.logger.Error("Verify track login error", "error", err)
		return Principal{}, err
	}

	return user.Principal(), nil
}
