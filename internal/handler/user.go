package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sumire/accounts/internal/domain"
	"github.com/sumire/accounts/internal/service"
)

// UserHandler serves profile endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// publicUser is the view of another user's account.
type publicUser struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newPublicUser(u *domain.User) publicUser {
	return publicUser{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// Profile returns the caller's profile.
func (h *UserHandler) Profile(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return domain.ErrAuthenticationRequired
	}
	return JSON(c, http.StatusOK, user)
}

// UpdateProfile patches the caller's profile.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return domain.ErrAuthenticationRequired
	}

	var req domain.ProfileUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.users.UpdateProfile(c.Request().Context(), user.ID, req)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, updated)
}

// Detail returns a user by id.
func (h *UserHandler) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid user id", domain.ErrNotFound)
	}

	user, err := h.users.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, newPublicUser(user))
}
