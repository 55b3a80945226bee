package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/sumire/accounts/internal/config"
	"github.com/sumire/accounts/internal/handler"
	"github.com/sumire/accounts/internal/mail"
	"github.com/sumire/accounts/internal/repository"
	"github.com/sumire/accounts/internal/service"
	"github.com/sumire/accounts/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected")

	if cfg.RunMigrations {
		if err := repository.Migrate(ctx, db.DB); err != nil {
			return err
		}
		slog.Info("migrations applied")
	}

	userRepo := repository.NewUserRepository(db)

	blacklist, closeBlacklist, err := newBlacklist(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeBlacklist()

	creds, err := service.NewCredentialVerifier(userRepo, bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tokens := service.NewTokenIssuer(service.TokenConfig{
		Secret:          cfg.JWTSecret,
		AccessTTL:       cfg.AccessTokenTTL,
		RefreshTTL:      cfg.RefreshTokenTTL,
		RotateRefreshes: cfg.RotateRefreshTokens,
	}, userRepo, blacklist)

	providers := service.NewProviderVerifiers(service.ProviderConfig{
		GoogleClientID:     cfg.GoogleClientID,
		GoogleTokenInfoURL: cfg.GoogleTokenInfoURL,
		TwitterAPIURL:      cfg.TwitterAPIURL,
		DiscordAPIURL:      cfg.DiscordAPIURL,
		Timeout:            cfg.ProviderTimeout,
	}, nil)

	mailer := mail.NewAsync(mail.NewLogDispatcher(cfg.MailFrom, nil), 30*time.Second, nil)

	authSvc := service.NewAuthService(service.AuthDeps{
		Users:       userRepo,
		Credentials: creds,
		Providers:   providers,
		Reconciler:  service.NewReconciler(userRepo),
		Tokens:      tokens,
		Mailer:      mailer,
	})
	userSvc := service.NewUserService(userRepo)

	cleanup := worker.NewCleanup(userRepo, blacklist, cfg.CleanupInterval, cfg.InactiveRetention)
	go cleanup.Run(ctx)

	e := handler.NewRouter(handler.RouterConfig{
		Auth:           authSvc,
		Users:          userSvc,
		AllowedOrigins: []string{cfg.FrontendURL},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newBlacklist selects the blacklist backend. The returned func releases it.
func newBlacklist(ctx context.Context, cfg config.Config, db *sqlx.DB) (service.Blacklist, func(), error) {
	if cfg.BlacklistBackend != config.BlacklistRedis {
		return repository.NewBlacklistRepository(db), func() {}, nil
	}

	client, err := repository.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("redis connected", "addr", cfg.RedisAddr)
	return repository.NewRedisBlacklist(client), func() { _ = client.Close() }, nil
}
