// Package auth implements a session credential service: account
// registration, password verification, JWT issuance backed by revocable
// server-side session records, and the HTTP surface that exposes them.
//
// Tokens are dual-layer:
//   - a signed, self-contained JWT carrying identity claims and an expiry,
//   - a session row per issued token so logout and store-side revocation are
//     effective even while the signature is still valid.
//
// Session rows persist a SHA-256 digest of the token, never the bearer
// secret itself. A Reaper deletes expired and revoked rows on an interval.
//
// Authentication attempts are throttled with a Redis fixed-window counter
// before any bcrypt work runs.
package auth
