package domain

import (
	"strings"
	"time"
)

// User represents a local account. Email is the natural key shared by every
// authentication path.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Bio          string    `json:"bio" db:"bio"`
	GoogleID     *string   `json:"-" db:"google_id"`
	TwitterID    *string   `json:"-" db:"twitter_id"`
	DiscordID    *string   `json:"-" db:"discord_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayNameOrDefault returns the display name, or the local part of the
// email when none is set.
func (u User) DisplayNameOrDefault() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// HasPassword reports whether the account can log in locally.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// ProviderID returns the stored id for the given provider, or "" when unset.
func (u User) ProviderID(p Provider) string {
	var v *string
	switch p {
	case ProviderGoogle:
		v = u.GoogleID
	case ProviderTwitter:
		v = u.TwitterID
	case ProviderDiscord:
		v = u.DiscordID
	}
	if v == nil {
		return ""
	}
	return *v
}

// WithProviderID returns a copy of the user with the provider id set.
func (u User) WithProviderID(p Provider, id string) User {
	switch p {
	case ProviderGoogle:
		u.GoogleID = &id
	case ProviderTwitter:
		u.TwitterID = &id
	case ProviderDiscord:
		u.DiscordID = &id
	}
	return u
}

// Summary is the public view of a user returned alongside tokens.
type Summary struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Summarize builds the public summary using the display-name fallback.
func (u User) Summarize() Summary {
	return Summary{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayNameOrDefault(),
	}
}

// ProfileDefaults holds the values used when a user is created during
// reconciliation of an external identity.
type ProfileDefaults struct {
	DisplayName string
	FirstName   string
	LastName    string
	Provider    Provider
	ProviderID  string
}

// ProfileUpdate carries the mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=50"`
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.DisplayName == nil && p.FirstName == nil && p.LastName == nil && p.Bio == nil
}

// NormalizeEmail trims the address and lower-cases its domain part. The local
// part is kept as given.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
