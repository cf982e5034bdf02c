package auth

import "errors"

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrDuplicateEmail is returned when a registration targets an email that
// already has an account
var ErrDuplicateEmail = errors.New("user with this email already exists")

// ErrInvalidCredentials covers unknown email, wrong password, and
// deactivated accounts. All three share one error so an unauthenticated
// caller cannot probe account state.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrTokenMissing is returned when a request carries no bearer token
var ErrTokenMissing = errors.New("access token required")

// ErrTokenExpired is returned when a token's embedded expiry has passed
var ErrTokenExpired = errors.New("token is expired")

// ErrTokenMalformed is returned when a token fails signature or
// structural checks
var ErrTokenMalformed = errors.New("token is malformed")

// ErrUnauthorized is the single external failure for invalid, expired,
// and revoked tokens
var ErrUnauthorized = errors.New("invalid or expired token")

// ErrRateLimited is returned before any credential work once a client
// exhausts its window
var ErrRateLimited = errors.New("too many authentication attempts, please try again later")

// ErrLimiterUnavailable is returned when the limiter backend cannot be reached
var ErrLimiterUnavailable = errors.New("rate limiter unavailable")

// ErrInvalidSessionExpiry is returned when a session would be registered
// with an expiry at or before its creation time
var ErrInvalidSessionExpiry = errors.New("session expiry must be in the future")

// ErrNoEmptyString guards against hashing empty passwords
var ErrNoEmptyString = errors.New("string must not be empty")

// ErrMismatchedHashAndPassword is the error for a failed password comparison
var ErrMismatchedHashAndPassword = errors.New("mismatched password and hash")

// ErrSigningKeyTooWeak is returned at startup when the configured signing
// key does not meet the minimum entropy requirement
var ErrSigningKeyTooWeak = errors.New("signing key must be at least 32 bytes")
