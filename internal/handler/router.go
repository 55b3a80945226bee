package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sumire/accounts/internal/domain"
	"github.com/sumire/accounts/internal/service"
)

// RouterConfig holds what NewRouter needs to mount the API.
type RouterConfig struct {
	Auth           *service.AuthService
	Users          *service.UserService
	AllowedOrigins []string
}

// NewRouter builds the echo instance with every route and middleware.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewAppValidator()
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Pre(middleware.AddTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.GET("/health/", func(c echo.Context) error {
		return JSON(c, http.StatusOK, map[string]string{"status": "ok"})
	})

	authHandler := NewAuthHandler(cfg.Auth)
	userHandler := NewUserHandler(cfg.Users)
	requireAuth := JWTAuth(cfg.Auth)

	auth := e.Group("/api/auth")
	auth.POST("/login/", authHandler.Login)
	auth.POST("/token/refresh/", authHandler.Refresh)
	auth.POST("/register/", authHandler.Register)
	auth.POST("/logout/", authHandler.Logout, requireAuth)
	auth.GET("/verify/", authHandler.Verify, requireAuth)
	for _, p := range domain.Providers {
		auth.POST("/"+string(p)+"/", authHandler.Social(p))
	}

	users := e.Group("/api/users", requireAuth)
	users.GET("/profile/", userHandler.Profile)
	users.PATCH("/profile/", userHandler.UpdateProfile)
	users.GET("/:id/", userHandler.Detail)

	return e
}
