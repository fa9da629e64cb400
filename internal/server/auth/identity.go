package auth

import (
	"context"

	"github.com/dmitrijs2005/bulletin/internal/server/models"
)

// Identity is the verified caller of a request. It is derived once from the
// access token at the transport boundary and then passed explicitly to
// services that need to authorize.
type Identity struct {
	userID   string
	userName string
	role     models.Role
}

// NewIdentity builds an Identity.
func NewIdentity(userID, userName string, role models.Role) Identity {
	return Identity{userID: userID, userName: userName, role: role}
}

func (i Identity) CurrentUserID() string   { return i.userID }
func (i Identity) CurrentUsername() string { return i.userName }
func (i Identity) Role() models.Role       { return i.role }

// IsAdministrator is the single place where the role is turned into a
// capability.
func (i Identity) IsAdministrator() bool {
	return i.role == models.RoleAdministrator
}

type identityKey struct{}

// WithIdentity stores id in ctx. Only the transport layer should call it.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
