// Package users declares the credential store contract and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/bulletin/internal/server/models"
)

// Repository is the credential store.
type Repository interface {
	// Create inserts user and fills in its ID and CreatedAt. A duplicate
	// username or email yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByLogin finds a user by username; common.ErrorNotFound if absent.
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)

	// GetUserByID finds a user by ID; common.ErrorNotFound if absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// ExistsByUsernameOrEmail reports whether either value is taken.
	ExistsByUsernameOrEmail(ctx context.Context, userName, email string) (bool, error)
}
