package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/accounts/internal/domain"
	"github.com/sumire/accounts/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	DisplayName     string `json:"display_name" validate:"max=50"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type socialRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

type socialResponse struct {
	User      domain.Summary   `json:"user"`
	Tokens    domain.TokenPair `json:"tokens"`
	IsNewUser bool             `json:"is_new_user"`
}

type verifyResponse struct {
	Valid bool           `json:"valid"`
	User  domain.Summary `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// bindAndValidate decodes the JSON body into dst and validates it.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

// Login exchanges email and password for a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, pair)
}

// Refresh mints a new access token from a refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, res)
}

// Register creates a local account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Password != req.PasswordConfirm {
		return &domain.ValidationError{Field: "password", Message: "password fields didn't match"}
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.auth.Register(c.Request().Context(), service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		DisplayName:     req.DisplayName,
	})
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, res)
}

// Logout blacklists the submitted refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.auth.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		var revErr *domain.RevocationError
		if errors.As(err, &revErr) && revErr.Reason == domain.RevocationStoreFailure {
			slog.Error("blacklist write failed", "error", err)
		}
		return err
	}
	return JSON(c, http.StatusResetContent, messageResponse{Message: "successfully logged out"})
}

// Verify confirms that the access token is valid.
func (h *AuthHandler) Verify(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return domain.ErrAuthenticationRequired
	}
	return JSON(c, http.StatusOK, verifyResponse{Valid: true, User: user.Summarize()})
}

// Social returns the sign-in handler for the given provider.
func (h *AuthHandler) Social(provider domain.Provider) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req socialRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		res, err := h.auth.SocialLogin(c.Request().Context(), provider, req.AccessToken)
		if err != nil {
			return err
		}
		return JSON(c, http.StatusOK, socialResponse{
			User:      res.User,
			Tokens:    res.Tokens,
			IsNewUser: res.IsNewUser,
		})
	}
}
