package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/accounts/internal/domain"
)

func TestUserService_UpdateProfile(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "u@x.com", "Old")
	svc := NewUserService(store)
	ctx := context.Background()

	bio := "hello"
	got, err := svc.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, "Old", got.DisplayName)

	writes := store.writeCount()
	got, err = svc.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, writes, store.writeCount(), "empty update does not write")

	_, err = svc.UpdateProfile(ctx, 999, domain.ProfileUpdate{Bio: &bio})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_GetUser(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "u@x.com", "U")
	svc := NewUserService(store)

	got, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "u@x.com", got.Email)

	_, err = svc.GetUser(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
