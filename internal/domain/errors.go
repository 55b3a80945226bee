package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource conflict")
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidCredentials     = errors.New("no active account found with the given credentials")
	ErrInvalidToken           = errors.New("provider token is invalid")
	ErrMissingEmail           = errors.New("provider did not supply an email address")
	ErrAuthenticationRequired = errors.New("authentication credentials were not provided or are invalid")

	ErrTokenExpired     = errors.New("token is expired")
	ErrTokenInvalid     = errors.New("token is invalid")
	ErrTokenBlacklisted = errors.New("token is blacklisted")
)

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// RevocationReason tells why a refresh token could not be blacklisted.
type RevocationReason string

const (
	RevocationMalformed      RevocationReason = "malformed"
	RevocationAlreadyRevoked RevocationReason = "already_revoked"
	RevocationStoreFailure   RevocationReason = "store_failure"
)

// RevocationError is returned when a refresh token cannot be blacklisted.
type RevocationError struct {
	Reason RevocationReason
	Err    error
}

func (e *RevocationError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return e.Err.Error()
}

func (e *RevocationError) Unwrap() error { return e.Err }

// ProviderErrorKind classifies a failed provider call.
type ProviderErrorKind string

const (
	ProviderTimeout   ProviderErrorKind = "timeout"
	ProviderTransport ProviderErrorKind = "transport"
	ProviderStatus    ProviderErrorKind = "status"
	ProviderDecode    ProviderErrorKind = "decode"
	ProviderClaims    ProviderErrorKind = "claims"
)

// ProviderError describes why a provider rejected or failed to verify a token.
// It unwraps to ErrInvalidToken or ErrMissingEmail.
type ProviderError struct {
	Provider Provider
	Kind     ProviderErrorKind
	Detail   string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Kind, e.Detail)
}

func (e *ProviderError) Unwrap() error { return e.Err }
