package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	sent  []string
	err   error
	done  chan struct{}
	delay time.Duration
}

func (r *recordingDispatcher) SendWelcome(ctx context.Context, email, _ string) error {
	defer close(r.done)
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	r.sent = append(r.sent, email)
	r.mu.Unlock()
	return r.err
}

func TestLogDispatcher_SendWelcome(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	d := NewLogDispatcher("noreply@example.com", logger)
	require.NoError(t, d.SendWelcome(context.Background(), "a@x.com", "Alice"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"welcome mail sent"`)
	assert.Contains(t, out, `"to":"a@x.com"`)
	assert.Contains(t, out, `"from":"noreply@example.com"`)
}

func TestAsync_SendWelcome(t *testing.T) {
	rec := &recordingDispatcher{done: make(chan struct{})}
	a := NewAsync(rec, time.Second, nil)

	require.NoError(t, a.SendWelcome(context.Background(), "a@x.com", "Alice"))

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("welcome mail was not dispatched")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"a@x.com"}, rec.sent)
}

func TestAsync_DoesNotBlockOrFail(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	rec := &recordingDispatcher{
		done:  make(chan struct{}),
		delay: time.Hour,
		err:   errors.New("smtp down"),
	}
	a := NewAsync(rec, 20*time.Millisecond, logger)

	start := time.Now()
	require.NoError(t, a.SendWelcome(context.Background(), "a@x.com", "Alice"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("send was not cancelled by its deadline")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.sent)
}
