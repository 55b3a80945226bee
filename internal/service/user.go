package service

import (
	"context"
	"fmt"

	"github.com/sumire/accounts/internal/domain"
)

// UserService serves profile reads and updates.
type UserService struct {
	users UserStore
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// UpdateProfile applies update to the user's profile. An empty update
// returns the current profile.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, update domain.ProfileUpdate) (*domain.User, error) {
	if update.IsEmpty() {
		return s.users.FindByID(ctx, id)
	}
	user, err := s.users.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}
