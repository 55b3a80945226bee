package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/accounts/internal/domain"
)

// APIError is the body of every error response.
type APIError struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// JSON writes data as the response body.
func JSON(c echo.Context, status int, data any) error {
	return c.JSON(status, data)
}

// HTTPErrorHandler is the global error handler for echo.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, apiErr := mapError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("unhandled error",
			"error", err,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
		)
	}
	if jsonErr := c.JSON(status, apiErr); jsonErr != nil {
		slog.Error("failed to send error response", "error", jsonErr)
	}
}

func mapError(err error) (int, APIError) {
	// Handle echo's own HTTP errors (404, 405, bind failures)
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		msg, ok := echoErr.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(echoErr.Code)
		}
		return echoErr.Code, APIError{Error: msg, Code: "http_error"}
	}

	var (
		validationErr *domain.ValidationError
		revocationErr *domain.RevocationError
		providerErr   *domain.ProviderError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, APIError{
			Error:  validationErr.Error(),
			Code:   "validation_error",
			Fields: map[string][]string{validationErr.Field: {validationErr.Message}},
		}
	case errors.As(err, &revocationErr):
		return http.StatusBadRequest, APIError{
			Error: revocationErr.Error(),
			Code:  "token_not_revoked",
		}
	case errors.As(err, &providerErr):
		return http.StatusBadRequest, APIError{
			Error: providerMessage(providerErr),
			Code:  "provider_error",
		}
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrMissingEmail):
		return http.StatusBadRequest, APIError{Error: err.Error(), Code: "provider_error"}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, APIError{Error: err.Error(), Code: "invalid_input"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, APIError{
			Error: domain.ErrInvalidCredentials.Error(),
			Code:  "invalid_credentials",
		}
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return http.StatusUnauthorized, APIError{
			Error: domain.ErrAuthenticationRequired.Error(),
			Code:  "not_authenticated",
		}
	case errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenBlacklisted):
		return http.StatusUnauthorized, APIError{Error: err.Error(), Code: "token_not_valid"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, APIError{
			Error: "the requested resource was not found",
			Code:  "not_found",
		}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, APIError{
			Error: "the resource already exists",
			Code:  "conflict",
		}
	default:
		return http.StatusInternalServerError, APIError{
			Error: "an unexpected error occurred",
			Code:  "internal_error",
		}
	}
}

func providerMessage(err *domain.ProviderError) string {
	if errors.Is(err, domain.ErrMissingEmail) {
		return fmt.Sprintf("email address could not be retrieved from %s", err.Provider)
	}
	return fmt.Sprintf("%s authentication failed", err.Provider)
}
