// Package refreshtokens declares the session store contract for refresh
// tokens and its PostgreSQL implementation.
//
// Every mutation is a single conditional statement, so two callers racing on
// the same token cannot both observe it as active.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/server/models"
)

// Repository persists refresh token records keyed by token hash.
type Repository interface {
	// Create inserts a new record.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find returns the record for tokenHash, or common.ErrorNotFound.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Revoke marks the record revoked if and only if it is still usable at
	// now, and returns it. When nothing was revoked (absent, already revoked,
	// expired, or another caller won) it returns common.ErrorNotFound.
	Revoke(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error)

	// RevokeForUser is Revoke restricted to records owned by userID. It
	// reports whether a record was revoked.
	RevokeForUser(ctx context.Context, userID, tokenHash string, now time.Time) (bool, error)

	// RevokeAllForUser revokes every usable record of userID and returns how
	// many were revoked.
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)

	// DeleteExpired removes records that expired before now-retention and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time, retention time.Duration) (int64, error)
}
