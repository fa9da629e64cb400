package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleMember.Valid())
	assert.True(t, RoleAdministrator.Valid())
	assert.False(t, Role("root").Valid())
}

func TestRefreshToken_Usable(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tok := &RefreshToken{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, tok.Usable(now))

	assert.False(t, tok.Usable(now.Add(time.Minute)), "expiry instant is not usable")

	tok.Revoked = true
	assert.False(t, tok.Usable(now))
}
