package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/common"
	"github.com/dmitrijs2005/bulletin/internal/server/models"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.users {
		if u.UserName == user.UserName || u.Email == user.Email {
			return nil, common.ErrorConflict
		}
	}

	user.ID = r.s.newID()
	user.CreatedAt = time.Now().UTC()
	r.s.putUser(ctx, *user)
	return user, nil
}

func (r *UserRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.users {
		if u.UserName == userName {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, userName, email string) (bool, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.users {
		if u.UserName == userName || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}
