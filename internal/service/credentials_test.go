package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sumire/accounts/internal/domain"
)

func TestCredentialVerifier_VerifyLocal(t *testing.T) {
	store := newMemStore()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	hashed := string(hash)

	active, err := store.Create(context.Background(), domain.User{Email: "a@x.com", PasswordHash: &hashed, IsActive: true})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), domain.User{Email: "off@x.com", PasswordHash: &hashed, IsActive: false})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), domain.User{Email: "social@x.com", IsActive: true})
	require.NoError(t, err)

	v, err := NewCredentialVerifier(store, bcrypt.MinCost)
	require.NoError(t, err)

	user, err := v.VerifyLocal(context.Background(), " a@X.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, active.ID, user.ID)

	for name, tc := range map[string]struct{ email, password string }{
		"wrong password":     {"a@x.com", "password124"},
		"unknown email":      {"ghost@x.com", "password123"},
		"inactive user":      {"off@x.com", "password123"},
		"social only":        {"social@x.com", "password123"},
		"empty password":     {"a@x.com", ""},
		"case of local part": {"A@x.com", "password123"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.VerifyLocal(context.Background(), tc.email, tc.password)
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		})
	}
}

func TestCredentialVerifier_StoreError(t *testing.T) {
	store := newMemStore()
	store.findErr = errors.New("db down")
	v, err := NewCredentialVerifier(store, bcrypt.MinCost)
	require.NoError(t, err)

	_, err = v.VerifyLocal(context.Background(), "a@x.com", "password123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}
