package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/sumire/accounts/internal/domain"
	"github.com/sumire/accounts/internal/mail"
)

const (
	minPasswordLength  = 8
	maxDisplayNameRune = 50
)

// RegisterInput is the payload of a local registration.
type RegisterInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	DisplayName     string
}

// AuthResult is returned by registration and social sign-in.
type AuthResult struct {
	User      domain.Summary   `json:"user"`
	Tokens    domain.TokenPair `json:"tokens"`
	IsNewUser bool             `json:"-"`
}

// RefreshResult carries the new access token and, with rotation, a new
// refresh token.
type RefreshResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// AuthDeps groups the collaborators of AuthService.
type AuthDeps struct {
	Users       UserStore
	Credentials *CredentialVerifier
	Providers   map[domain.Provider]ProviderVerifier
	Reconciler  *Reconciler
	Tokens      *TokenIssuer
	Mailer      mail.Dispatcher
	BcryptCost  int
}

// AuthService handles authentication logic.
type AuthService struct {
	users       UserStore
	credentials *CredentialVerifier
	providers   map[domain.Provider]ProviderVerifier
	reconciler  *Reconciler
	tokens      *TokenIssuer
	mailer      mail.Dispatcher
	bcryptCost  int
}

// NewAuthService creates a new AuthService.
func NewAuthService(deps AuthDeps) *AuthService {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:       deps.Users,
		credentials: deps.Credentials,
		providers:   deps.Providers,
		reconciler:  deps.Reconciler,
		tokens:      deps.Tokens,
		mailer:      deps.Mailer,
		bcryptCost:  cost,
	}
}

// Register creates a local account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Password != in.PasswordConfirm {
		return nil, &domain.ValidationError{Field: "password", Message: "password fields didn't match"}
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return nil, &domain.ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	if utf8.RuneCountInString(in.DisplayName) > maxDisplayNameRune {
		return nil, &domain.ValidationError{Field: "display_name", Message: fmt.Sprintf("must be at most %d characters", maxDisplayNameRune)}
	}
	email := domain.NormalizeEmail(in.Email)
	if !strings.Contains(email, "@") {
		return nil, &domain.ValidationError{Field: "email", Message: "enter a valid email address"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashed := string(hash)

	user, err := s.users.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: &hashed,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, &domain.ValidationError{Field: "email", Message: "user with this email already exists"}
		}
		return nil, fmt.Errorf("register user: %w", err)
	}

	result, err := s.signIn(*user, true)
	if err != nil {
		return nil, err
	}
	s.welcome(ctx, *user)
	return result, nil
}

// Login verifies email and password and returns a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.credentials.VerifyLocal(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.tokens.Issue(*user)
}

// SocialLogin verifies a provider token, reconciles the identity with a local
// account and signs it in.
func (s *AuthService) SocialLogin(ctx context.Context, provider domain.Provider, token string) (*AuthResult, error) {
	verifier, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported provider %q", domain.ErrInvalidInput, provider)
	}

	identity, err := verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, created, err := s.reconciler.ResolveOrCreate(ctx, identity.Email, identity.Defaults())
	if err != nil {
		return nil, fmt.Errorf("%s sign-in: %w", provider, err)
	}

	result, err := s.signIn(*user, created)
	if err != nil {
		return nil, err
	}
	if created && provider != domain.ProviderTwitter {
		s.welcome(ctx, *user)
	}
	return result, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (*RefreshResult, error) {
	access, rotated, err := s.tokens.Refresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Access: access, Refresh: rotated}, nil
}

// Logout revokes the given refresh token.
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.tokens.Revoke(ctx, refresh)
}

// Authenticate resolves the active user behind an access token.
func (s *AuthService) Authenticate(ctx context.Context, access string) (*domain.User, error) {
	claims, err := s.tokens.ValidateAccess(access)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthenticationRequired, err)
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthenticationRequired
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrAuthenticationRequired
	}
	return user, nil
}

func (s *AuthService) signIn(user domain.User, created bool) (*AuthResult, error) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user.Summarize(), Tokens: *pair, IsNewUser: created}, nil
}

func (s *AuthService) welcome(ctx context.Context, user domain.User) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendWelcome(ctx, user.Email, user.DisplayNameOrDefault()); err != nil {
		slog.WarnContext(ctx, "welcome mail not dispatched", "user_id", user.ID, "error", err)
	}
}
