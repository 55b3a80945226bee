package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sumire/accounts/internal/domain"
)

const maxResolveAttempts = 3

// Reconciler maps an email asserted by some authentication path onto exactly
// one local account.
type Reconciler struct {
	users UserStore
}

// NewReconciler creates a new Reconciler.
func NewReconciler(users UserStore) *Reconciler {
	return &Reconciler{users: users}
}

// ResolveOrCreate returns the account for email, creating it from defaults
// when none exists. The boolean reports whether this call created it.
// Concurrent calls for the same new email create one row; exactly one of
// them sees true. A provider id in defaults is attached to an existing
// account that does not have one.
func (r *Reconciler) ResolveOrCreate(ctx context.Context, email string, defaults domain.ProfileDefaults) (*domain.User, bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, false, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	candidate := domain.User{
		Email:       email,
		DisplayName: defaults.DisplayName,
		FirstName:   defaults.FirstName,
		LastName:    defaults.LastName,
		IsActive:    true,
	}
	if defaults.Provider.Valid() && defaults.ProviderID != "" {
		candidate = candidate.WithProviderID(defaults.Provider, defaults.ProviderID)
	}

	for range maxResolveAttempts {
		user, created, err := r.users.InsertIfAbsent(ctx, candidate)
		if err != nil {
			return nil, false, fmt.Errorf("resolve user: %w", err)
		}
		if created {
			return user, true, nil
		}

		user, err = r.users.FindByEmail(ctx, email)
		if errors.Is(err, domain.ErrNotFound) {
			// deleted between the insert and the read
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("resolve user: %w", err)
		}
		return r.backfill(ctx, user, defaults)
	}
	return nil, false, fmt.Errorf("resolve user %s: gave up after %d attempts", email, maxResolveAttempts)
}

func (r *Reconciler) backfill(ctx context.Context, user *domain.User, defaults domain.ProfileDefaults) (*domain.User, bool, error) {
	if !defaults.Provider.Valid() || defaults.ProviderID == "" || user.ProviderID(defaults.Provider) != "" {
		return user, false, nil
	}
	updated, err := r.users.AttachProviderID(ctx, user.ID, defaults.Provider, defaults.ProviderID)
	if err != nil {
		return nil, false, fmt.Errorf("attach %s id: %w", defaults.Provider, err)
	}
	return updated, false, nil
}
