package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/sumire/accounts/internal/domain"
)

const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, display_name, first_name, last_name, bio,
	google_id, twitter_id, discord_id, is_active, created_at, updated_at`

// UserRepository handles user data access operations.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a user by their ID.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id %d: %w", id, err)
	}
	return &user, nil
}

// FindByEmail retrieves a user by their normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// Create inserts a new user. A duplicate email yields domain.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (*domain.User, error) {
	var result domain.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (email, password_hash, display_name, first_name, last_name,
		                    google_id, twitter_id, discord_id, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+userColumns,
		user.Email, user.PasswordHash, user.DisplayName, user.FirstName, user.LastName,
		user.GoogleID, user.TwitterID, user.DiscordID, user.IsActive,
	).StructScan(&result)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &result, nil
}

// InsertIfAbsent inserts the user unless the email is already taken. The
// boolean is false when a row with that email already existed; the caller
// then re-reads it.
func (r *UserRepository) InsertIfAbsent(ctx context.Context, user domain.User) (*domain.User, bool, error) {
	var result domain.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (email, password_hash, display_name, first_name, last_name,
		                    google_id, twitter_id, discord_id, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING `+userColumns,
		user.Email, user.PasswordHash, user.DisplayName, user.FirstName, user.LastName,
		user.GoogleID, user.TwitterID, user.DiscordID, user.IsActive,
	).StructScan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("insert user if absent: %w", err)
	}
	return &result, true, nil
}

// AttachProviderID sets the provider id on a user that does not have one yet
// and returns the stored user. An id that is already set is left untouched.
func (r *UserRepository) AttachProviderID(ctx context.Context, id int64, provider domain.Provider, providerID string) (*domain.User, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}

	var result domain.User
	err = r.db.QueryRowxContext(ctx,
		`UPDATE users SET `+column+` = $2, updated_at = NOW()
		 WHERE id = $1 AND `+column+` IS NULL
		 RETURNING `+userColumns, id, providerID,
	).StructScan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.FindByID(ctx, id)
		}
		return nil, fmt.Errorf("attach %s id to user %d: %w", provider, id, err)
	}
	return &result, nil
}

// UpdateProfile applies the non-nil fields of update and returns the user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, update domain.ProfileUpdate) (*domain.User, error) {
	var result domain.User
	err := r.db.QueryRowxContext(ctx,
		`UPDATE users
		 SET display_name = COALESCE($2, display_name),
		     first_name = COALESCE($3, first_name),
		     last_name = COALESCE($4, last_name),
		     bio = COALESCE($5, bio),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, update.DisplayName, update.FirstName, update.LastName, update.Bio,
	).StructScan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update profile of user %d: %w", id, err)
	}
	return &result, nil
}

// DeleteInactiveBefore removes inactive users created before cutoff.
func (r *UserRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE is_active = FALSE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete inactive users: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete inactive users: %w", err)
	}
	return n, nil
}

func providerColumn(p domain.Provider) (string, error) {
	switch p {
	case domain.ProviderGoogle:
		return "google_id", nil
	case domain.ProviderTwitter:
		return "twitter_id", nil
	case domain.ProviderDiscord:
		return "discord_id", nil
	}
	return "", fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, p)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
