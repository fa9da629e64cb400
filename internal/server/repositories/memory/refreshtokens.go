package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/common"
	"github.com/dmitrijs2005/bulletin/internal/server/models"
)

type RefreshTokenRepository struct {
	s *Store
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.tokens[token.TokenHash]; ok {
		return common.ErrorConflict
	}
	r.s.putToken(ctx, *token)
	return nil
}

func (r *RefreshTokenRepository) Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.tokens[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.tokens[tokenHash]
	if !ok || !t.Usable(now) {
		return nil, common.ErrorNotFound
	}
	t = revoked(t, now)
	r.s.putToken(ctx, t)
	return &t, nil
}

func (r *RefreshTokenRepository) RevokeForUser(ctx context.Context, userID, tokenHash string, now time.Time) (bool, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.tokens[tokenHash]
	if !ok || t.UserID != userID || !t.Usable(now) {
		return false, nil
	}
	r.s.putToken(ctx, revoked(t, now))
	return true, nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	defer r.s.lock(ctx)()

	var n int64
	for h, t := range r.s.tokens {
		if t.UserID == userID && t.Usable(now) {
			r.s.putToken(ctx, revoked(t, now))
			n++
		}
	}
	return n, nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	defer r.s.lock(ctx)()

	cutoff := now.Add(-retention)
	var n int64
	for h, t := range r.s.tokens {
		if t.ExpiresAt.Before(cutoff) {
			r.s.deleteToken(ctx, h)
			n++
		}
	}
	return n, nil
}

func revoked(t models.RefreshToken, now time.Time) models.RefreshToken {
	at := now
	t.Revoked = true
	t.RevokedAt = &at
	return t
}
