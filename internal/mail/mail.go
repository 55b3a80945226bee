package mail

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher sends account notifications.
type Dispatcher interface {
	SendWelcome(ctx context.Context, email, displayName string) error
}

// LogDispatcher writes messages to the structured log instead of sending them.
type LogDispatcher struct {
	from   string
	logger *slog.Logger
}

// NewLogDispatcher creates a LogDispatcher. A nil logger uses slog.Default().
func NewLogDispatcher(from string, logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{from: from, logger: logger}
}

// SendWelcome logs the welcome message for email.
func (d *LogDispatcher) SendWelcome(ctx context.Context, email, displayName string) error {
	d.logger.InfoContext(ctx, "welcome mail sent",
		"from", d.from,
		"to", email,
		"subject", WelcomeSubject,
		"display_name", displayName,
	)
	return nil
}

// WelcomeSubject is the subject line of the welcome message.
const WelcomeSubject = "Welcome to Accounts"

// Async wraps a Dispatcher so that each send runs in its own goroutine with
// its own deadline. Failures are logged and never reach the caller.
type Async struct {
	next    Dispatcher
	timeout time.Duration
	logger  *slog.Logger
}

// NewAsync creates an Async dispatcher.
func NewAsync(next Dispatcher, timeout time.Duration, logger *slog.Logger) *Async {
	if logger == nil {
		logger = slog.Default()
	}
	return &Async{next: next, timeout: timeout, logger: logger}
}

// SendWelcome schedules the welcome mail and returns immediately.
func (a *Async) SendWelcome(_ context.Context, email, displayName string) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.next.SendWelcome(ctx, email, displayName); err != nil {
			a.logger.Warn("welcome mail failed", "to", email, "error", err)
		}
	}()
	return nil
}
