package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sumire/accounts/internal/domain"
)

// ProviderVerifier exchanges a provider token for the identity it asserts.
type ProviderVerifier interface {
	Verify(ctx context.Context, token string) (*domain.ExternalIdentity, error)
}

// ProviderConfig holds provider endpoints and credentials.
type ProviderConfig struct {
	GoogleClientID     string
	GoogleTokenInfoURL string
	TwitterAPIURL      string
	DiscordAPIURL      string
	Timeout            time.Duration
}

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// NewProviderVerifiers builds the verifier lookup table for every provider.
// Verifiers share one http.Client.
func NewProviderVerifiers(cfg ProviderConfig, client *http.Client) map[domain.Provider]ProviderVerifier {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return map[domain.Provider]ProviderVerifier{
		domain.ProviderGoogle: &googleVerifier{
			client:   client,
			clientID: cfg.GoogleClientID,
			endpoint: cfg.GoogleTokenInfoURL,
			now:      time.Now,
		},
		domain.ProviderTwitter: &twitterVerifier{
			client:   client,
			endpoint: strings.TrimRight(cfg.TwitterAPIURL, "/") + "/2/users/me?user.fields=profile_image_url",
		},
		domain.ProviderDiscord: &discordVerifier{
			client:   client,
			endpoint: strings.TrimRight(cfg.DiscordAPIURL, "/") + "/users/@me",
		},
	}
}

type googleVerifier struct {
	client   *http.Client
	clientID string
	endpoint string
	now      func() time.Time
}

type googleTokenInfo struct {
	Aud        string `json:"aud"`
	Iss        string `json:"iss"`
	Sub        string `json:"sub"`
	Exp        string `json:"exp"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// Verify validates a Google ID token with the tokeninfo endpoint.
func (v *googleVerifier) Verify(ctx context.Context, token string) (*domain.ExternalIdentity, error) {
	var info googleTokenInfo
	endpoint := v.endpoint + "?id_token=" + url.QueryEscape(token)
	if err := getJSON(ctx, v.client, domain.ProviderGoogle, endpoint, &info); err != nil {
		return nil, err
	}

	switch {
	case info.Aud != v.clientID:
		return nil, claimsError(domain.ProviderGoogle, "audience mismatch")
	case !googleIssuers[info.Iss]:
		return nil, claimsError(domain.ProviderGoogle, "unexpected issuer "+info.Iss)
	case info.Sub == "":
		return nil, claimsError(domain.ProviderGoogle, "missing subject")
	case info.Email == "":
		return nil, claimsError(domain.ProviderGoogle, "missing email")
	}
	exp, err := strconv.ParseInt(info.Exp, 10, 64)
	if err != nil || !time.Unix(exp, 0).After(v.now()) {
		return nil, claimsError(domain.ProviderGoogle, "token expired")
	}

	// Google accounts start without a display name; responses fall back to
	// the email local part.
	return &domain.ExternalIdentity{
		Provider:  domain.ProviderGoogle,
		Subject:   info.Sub,
		Email:     info.Email,
		FirstName: info.GivenName,
		LastName:  info.FamilyName,
	}, nil
}

type twitterVerifier struct {
	client   *http.Client
	endpoint string
}

type twitterMe struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

// Verify resolves the Twitter user behind a bearer token. Twitter does not
// share emails, so a placeholder derived from the user id is used.
func (v *twitterVerifier) Verify(ctx context.Context, token string) (*domain.ExternalIdentity, error) {
	var me twitterMe
	if err := getJSON(ctx, bearerClient(v.client, token), domain.ProviderTwitter, v.endpoint, &me); err != nil {
		return nil, err
	}
	if me.Data.ID == "" {
		return nil, claimsError(domain.ProviderTwitter, "missing user id")
	}

	name := me.Data.Name
	if name == "" {
		name = me.Data.Username
	}
	return &domain.ExternalIdentity{
		Provider:    domain.ProviderTwitter,
		Subject:     me.Data.ID,
		Email:       domain.TwitterPlaceholderEmail(me.Data.ID),
		DisplayName: name,
	}, nil
}

type discordVerifier struct {
	client   *http.Client
	endpoint string
}

type discordMe struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Verify resolves the Discord user behind a bearer token. The token must
// carry the email scope.
func (v *discordVerifier) Verify(ctx context.Context, token string) (*domain.ExternalIdentity, error) {
	var me discordMe
	if err := getJSON(ctx, bearerClient(v.client, token), domain.ProviderDiscord, v.endpoint, &me); err != nil {
		return nil, err
	}
	if me.Email == "" {
		return nil, &domain.ProviderError{
			Provider: domain.ProviderDiscord,
			Kind:     domain.ProviderClaims,
			Detail:   "missing email",
			Err:      domain.ErrMissingEmail,
		}
	}
	if me.ID == "" {
		return nil, claimsError(domain.ProviderDiscord, "missing user id")
	}

	return &domain.ExternalIdentity{
		Provider:    domain.ProviderDiscord,
		Subject:     me.ID,
		Email:       me.Email,
		DisplayName: me.Username,
	}, nil
}

// bearerClient returns a client that sends token as a Bearer credential on
// top of base's transport and timeout.
func bearerClient(base *http.Client, token string) *http.Client {
	return &http.Client{
		Timeout: base.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base.Transport,
		},
	}
}

func getJSON(ctx context.Context, client *http.Client, provider domain.Provider, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return providerError(provider, domain.ProviderTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return providerError(provider, domain.ProviderTimeout, err)
		}
		return providerError(provider, domain.ProviderTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return providerError(provider, domain.ProviderStatus, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return providerError(provider, domain.ProviderDecode, err)
	}
	return nil
}

func providerError(p domain.Provider, kind domain.ProviderErrorKind, cause error) *domain.ProviderError {
	return &domain.ProviderError{Provider: p, Kind: kind, Detail: cause.Error(), Err: domain.ErrInvalidToken}
}

func claimsError(p domain.Provider, detail string) *domain.ProviderError {
	return &domain.ProviderError{Provider: p, Kind: domain.ProviderClaims, Detail: detail, Err: domain.ErrInvalidToken}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
