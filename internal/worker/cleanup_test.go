package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
	n       int64
}

func (f *fakePurger) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int64, error) {
	return f.record(cutoff)
}

func (f *fakePurger) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	return f.record(now)
}

func (f *fakePurger) record(t time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, t)
	return f.n, f.err
}

func (f *fakePurger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestCleanup_RunOnce(t *testing.T) {
	users := &fakePurger{n: 2}
	tokens := &fakePurger{n: 5}
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	c := NewCleanup(users, tokens, time.Hour, 30*24*time.Hour)
	c.now = func() time.Time { return now }

	require.NoError(t, c.RunOnce(context.Background()))
	assert.Equal(t, []time.Time{time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}, users.cutoffs)
	assert.Equal(t, []time.Time{now}, tokens.cutoffs)
}

func TestCleanup_RunOnceErrors(t *testing.T) {
	usersErr := errors.New("db down")
	users := &fakePurger{err: usersErr}
	tokens := &fakePurger{n: 3}

	err := NewCleanup(users, tokens, time.Hour, time.Hour).RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, usersErr)
	assert.Contains(t, err.Error(), "delete inactive users: db down")
	assert.Equal(t, 1, tokens.calls(), "blacklist is purged even when the user pass fails")
}

func TestCleanup_RunOnceJoinsErrors(t *testing.T) {
	usersErr := errors.New("users table locked")
	tokensErr := errors.New("redis unavailable")
	users := &fakePurger{err: usersErr}
	tokens := &fakePurger{err: tokensErr}

	err := NewCleanup(users, tokens, time.Hour, time.Hour).RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, usersErr)
	assert.ErrorIs(t, err, tokensErr)
	assert.Equal(t, 1, users.calls())
	assert.Equal(t, 1, tokens.calls())
}

func TestCleanup_RunStopsOnCancel(t *testing.T) {
	users := &fakePurger{}
	tokens := &fakePurger{}
	c := NewCleanup(users, tokens, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return users.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
