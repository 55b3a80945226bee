package service

import (
	"context"
	"time"

	"github.com/sumire/accounts/internal/domain"
)

// UserStore defines the user data access interface consumed by the services.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user domain.User) (*domain.User, error)
	InsertIfAbsent(ctx context.Context, user domain.User) (*domain.User, bool, error)
	AttachProviderID(ctx context.Context, id int64, provider domain.Provider, providerID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, update domain.ProfileUpdate) (*domain.User, error)
}

// Blacklist records revoked refresh tokens by jti.
type Blacklist interface {
	// Add inserts jti unless present and reports whether it was inserted.
	Add(ctx context.Context, jti string, userID int64, expiresAt time.Time) (bool, error)
	Contains(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
