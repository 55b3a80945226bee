package domain

import "fmt"

// Provider identifies an external identity provider.
type Provider string

const (
	ProviderGoogle  Provider = "google"
	ProviderTwitter Provider = "twitter"
	ProviderDiscord Provider = "discord"
)

// Providers lists every supported provider.
var Providers = []Provider{ProviderGoogle, ProviderTwitter, ProviderDiscord}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderTwitter, ProviderDiscord:
		return true
	}
	return false
}

// ExternalIdentity is what a provider asserts about the token holder.
type ExternalIdentity struct {
	Provider    Provider
	Subject     string
	Email       string
	DisplayName string
	FirstName   string
	LastName    string
}

// Defaults converts the identity into reconciliation defaults.
func (i ExternalIdentity) Defaults() ProfileDefaults {
	return ProfileDefaults{
		DisplayName: i.DisplayName,
		FirstName:   i.FirstName,
		LastName:    i.LastName,
		Provider:    i.Provider,
		ProviderID:  i.Subject,
	}
}

// TwitterPlaceholderEmail derives the stand-in address used for Twitter
// accounts, which do not expose an email.
func TwitterPlaceholderEmail(twitterID string) string {
	return fmt.Sprintf("%s@twitter.temp", twitterID)
}
