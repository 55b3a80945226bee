package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sumire/accounts/internal/domain"
)

// CredentialVerifier checks email and password logins.
type CredentialVerifier struct {
	users UserStore

	// dummyHash is compared against when no usable account exists, so that
	// unknown emails take as long as wrong passwords.
	dummyHash []byte
}

// NewCredentialVerifier creates a CredentialVerifier using the given bcrypt cost.
func NewCredentialVerifier(users UserStore, cost int) (*CredentialVerifier, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &CredentialVerifier{users: users, dummyHash: dummy}, nil
}

// VerifyLocal returns the active user owning email and password. Every
// failure yields domain.ErrInvalidCredentials.
func (v *CredentialVerifier) VerifyLocal(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := v.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	if !user.HasPassword() || !user.IsActive {
		_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
