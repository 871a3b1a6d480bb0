package service

import (
	"context"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
)

type UserStore interface {
	UpsertUser(ctx context.Context, user models.User) (*models.User, error)
	GetByID(ctx context.Context, id models.UserID) (*models.User, error)
}

type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// GetOrCreateUser records an authenticated caller so that foreign keys and
// display names resolve.
func (s *UserService) GetOrCreateUser(ctx context.Context, user models.User) (*models.User, error) {
	if user.UserId <= 0 {
		return nil, &models.ValidationError{Message: "user id must be positive"}
	}
	return s.store.UpsertUser(ctx, user)
}

func (s *UserService) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	return s.store.GetByID(ctx, id)
}
