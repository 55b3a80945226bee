package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_DisplayNameOrDefault(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"explicit name", User{Email: "alice@example.com", DisplayName: "Alice"}, "Alice"},
		{"fallback to local part", User{Email: "u@test.com"}, "u"},
		{"no at sign", User{Email: "weird"}, "weird"},
		{"twitter placeholder", User{Email: TwitterPlaceholderEmail("12345")}, "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.DisplayNameOrDefault())
			assert.Equal(t, tt.want, tt.user.Summarize().DisplayName)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "Alice@example.com", NormalizeEmail("  Alice@EXAMPLE.com "))
	assert.Equal(t, "bob@x.com", NormalizeEmail("bob@x.com"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestUser_ProviderID(t *testing.T) {
	u := User{Email: "a@x.com"}
	assert.Equal(t, "", u.ProviderID(ProviderGoogle))

	u = u.WithProviderID(ProviderGoogle, "g-1")
	u = u.WithProviderID(ProviderDiscord, "d-1")
	assert.Equal(t, "g-1", u.ProviderID(ProviderGoogle))
	assert.Equal(t, "", u.ProviderID(ProviderTwitter))
	assert.Equal(t, "d-1", u.ProviderID(ProviderDiscord))
}

func TestTwitterPlaceholderEmail_Deterministic(t *testing.T) {
	assert.Equal(t, TwitterPlaceholderEmail("42"), TwitterPlaceholderEmail("42"))
	assert.Equal(t, "42@twitter.temp", TwitterPlaceholderEmail("42"))
	assert.NotEqual(t, TwitterPlaceholderEmail("42"), TwitterPlaceholderEmail("43"))
}

func TestProviderError_Unwraps(t *testing.T) {
	err := &ProviderError{Provider: ProviderDiscord, Kind: ProviderClaims, Detail: "no email", Err: ErrMissingEmail}
	assert.True(t, errors.Is(err, ErrMissingEmail))
	assert.False(t, errors.Is(err, ErrInvalidToken))
	assert.Equal(t, "discord claims: no email", err.Error())
}

func TestRevocationError(t *testing.T) {
	err := &RevocationError{Reason: RevocationAlreadyRevoked, Err: ErrTokenBlacklisted}
	assert.True(t, errors.Is(err, ErrTokenBlacklisted))
	assert.Equal(t, ErrTokenBlacklisted.Error(), err.Error())
	assert.Equal(t, "malformed", (&RevocationError{Reason: RevocationMalformed}).Error())
}
