package models

import "time"

// RefreshToken is a stored session. TokenHash is the SHA-256 hex digest of
// the opaque value handed to the client.
type RefreshToken struct {
	TokenHash string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
}

// Usable reports whether the record can still be refreshed or signed out
// at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
