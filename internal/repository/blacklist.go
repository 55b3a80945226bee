package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// BlacklistRepository stores revoked refresh-token ids in Postgres.
type BlacklistRepository struct {
	db *sqlx.DB
}

// NewBlacklistRepository creates a new BlacklistRepository.
func NewBlacklistRepository(db *sqlx.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Add blacklists jti until expiresAt. It reports false when the jti was
// already present; the primary key makes the check-and-insert atomic.
func (r *BlacklistRepository) Add(ctx context.Context, jti string, userID int64, expiresAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO token_blacklist (jti, user_id, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (jti) DO NOTHING`, jti, userID, expiresAt)
	if err != nil {
		return false, fmt.Errorf("blacklist token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("blacklist token: %w", err)
	}
	return n == 1, nil
}

// Contains reports whether jti is blacklisted.
func (r *BlacklistRepository) Contains(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE jti = $1)`, jti)
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return exists, nil
}

// PurgeExpired deletes entries whose token has expired anyway.
func (r *BlacklistRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM token_blacklist WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge token blacklist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge token blacklist: %w", err)
	}
	return n, nil
}
