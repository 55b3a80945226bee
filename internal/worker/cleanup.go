package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// InactiveUserPurger deletes inactive accounts.
type InactiveUserPurger interface {
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// BlacklistPurger drops blacklist entries whose tokens have expired.
type BlacklistPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Cleanup periodically removes stale accounts and expired blacklist entries.
type Cleanup struct {
	users     InactiveUserPurger
	blacklist BlacklistPurger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

// NewCleanup creates a new Cleanup job.
func NewCleanup(users InactiveUserPurger, blacklist BlacklistPurger, interval, retention time.Duration) *Cleanup {
	return &Cleanup{
		users:     users,
		blacklist: blacklist,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

// Run executes the job once immediately and then on every tick until ctx
// is cancelled.
func (c *Cleanup) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.RunOnce(ctx); err != nil {
			slog.Error("cleanup failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single cleanup pass. Both steps always run; their
// errors are joined.
func (c *Cleanup) RunOnce(ctx context.Context) error {
	now := c.now()
	var errs []error

	users, err := c.users.DeleteInactiveBefore(ctx, now.Add(-c.retention))
	if err != nil {
		errs = append(errs, fmt.Errorf("delete inactive users: %w", err))
	}

	tokens, err := c.blacklist.PurgeExpired(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("purge blacklist: %w", err))
	}

	slog.Info("cleanup finished", "inactive_users_deleted", users, "blacklist_entries_purged", tokens, "failed_steps", len(errs))
	return errors.Join(errs...)
}
