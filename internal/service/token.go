package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sumire/accounts/internal/domain"
)

// Claims is the JWT payload of both token kinds. Email and DisplayName are
// only set on access tokens.
type Claims struct {
	UserID      int64            `json:"user_id"`
	Email       string           `json:"email,omitempty"`
	DisplayName string           `json:"display_name,omitempty"`
	TokenType   domain.TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenConfig holds token lifetimes and signing settings.
type TokenConfig struct {
	Secret          string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	RotateRefreshes bool
}

// TokenIssuer mints, validates and revokes HS256 token pairs.
type TokenIssuer struct {
	secret    []byte
	cfg       TokenConfig
	users     UserStore
	blacklist Blacklist
	now       func() time.Time
}

// NewTokenIssuer creates a new TokenIssuer.
func NewTokenIssuer(cfg TokenConfig, users UserStore, blacklist Blacklist) *TokenIssuer {
	return &TokenIssuer{
		secret:    []byte(cfg.Secret),
		cfg:       cfg,
		users:     users,
		blacklist: blacklist,
		now:       time.Now,
	}
}

// Issue mints a fresh access/refresh pair for user.
func (t *TokenIssuer) Issue(user domain.User) (*domain.TokenPair, error) {
	access, err := t.sign(t.accessClaims(user))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := t.sign(t.newClaims(user.ID, domain.TokenTypeRefresh, t.cfg.RefreshTTL))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &domain.TokenPair{Access: access, Refresh: refresh}, nil
}

// ValidateAccess checks signature, expiry and type of an access token.
func (t *TokenIssuer) ValidateAccess(token string) (*Claims, error) {
	return t.parse(token, domain.TokenTypeAccess)
}

// ValidateRefresh checks a refresh token and that it has not been revoked.
func (t *TokenIssuer) ValidateRefresh(ctx context.Context, token string) (*Claims, error) {
	claims, err := t.parse(token, domain.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	revoked, err := t.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("validate refresh token: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenBlacklisted
	}
	return claims, nil
}

// Refresh exchanges a valid refresh token for a new access token. With
// rotation enabled the old refresh token is revoked and a new one returned;
// otherwise the returned refresh token is empty.
func (t *TokenIssuer) Refresh(ctx context.Context, refresh string) (access, rotated string, err error) {
	claims, err := t.ValidateRefresh(ctx, refresh)
	if err != nil {
		return "", "", err
	}

	user, err := t.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", "", domain.ErrTokenInvalid
		}
		return "", "", fmt.Errorf("refresh token: %w", err)
	}
	if !user.IsActive {
		return "", "", domain.ErrTokenInvalid
	}

	access, err = t.sign(t.accessClaims(*user))
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	if !t.cfg.RotateRefreshes {
		return access, "", nil
	}

	added, err := t.blacklist.Add(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time)
	if err != nil {
		return "", "", fmt.Errorf("rotate refresh token: %w", err)
	}
	if !added {
		return "", "", domain.ErrTokenBlacklisted
	}
	rotated, err = t.sign(t.newClaims(user.ID, domain.TokenTypeRefresh, t.cfg.RefreshTTL))
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}
	return access, rotated, nil
}

// Revoke blacklists a refresh token. A token that cannot be parsed or has
// expired fails with a malformed RevocationError; a token revoked earlier
// fails with an already_revoked one, and a blacklist write failure with a
// store_failure one.
func (t *TokenIssuer) Revoke(ctx context.Context, refresh string) error {
	claims, err := t.parse(refresh, domain.TokenTypeRefresh)
	if err != nil {
		return &domain.RevocationError{Reason: domain.RevocationMalformed, Err: err}
	}

	added, err := t.blacklist.Add(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time)
	if err != nil {
		return &domain.RevocationError{Reason: domain.RevocationStoreFailure, Err: fmt.Errorf("revoke token: %w", err)}
	}
	if !added {
		return &domain.RevocationError{Reason: domain.RevocationAlreadyRevoked, Err: domain.ErrTokenBlacklisted}
	}
	return nil
}

func (t *TokenIssuer) accessClaims(user domain.User) Claims {
	c := t.newClaims(user.ID, domain.TokenTypeAccess, t.cfg.AccessTTL)
	c.Email = user.Email
	c.DisplayName = user.DisplayNameOrDefault()
	return c
}

func (t *TokenIssuer) newClaims(userID int64, typ domain.TokenType, ttl time.Duration) Claims {
	now := t.now()
	return Claims{
		UserID:    userID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (t *TokenIssuer) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) parse(token string, want domain.TokenType) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if claims.TokenType != want || claims.ID == "" || claims.UserID == 0 {
		return nil, domain.ErrTokenInvalid
	}
	return &claims, nil
}
