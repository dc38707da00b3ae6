package redirector

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultNotifyDelay gives the page's toast library time to load before the first toast.
const DefaultNotifyDelay = time.Second

// Notifier displays a message to the user.
type Notifier interface {
	Show(ctx context.Context, text string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, text string) error

// Show calls f(ctx, text).
func (f NotifierFunc) Show(ctx context.Context, text string) error { return f(ctx, text) }

// NotificationState remembers whether the first notification of a page
// lifetime is still pending. It starts pending and is claimed exactly once.
type NotificationState struct {
	mu      sync.Mutex
	claimed bool
}

// NewNotificationState returns a state with the first notification pending.
func NewNotificationState() *NotificationState {
	return &NotificationState{}
}

// claimFirst reports true for the first caller only.
func (s *NotificationState) claimFirst() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed {
		return false
	}
	s.claimed = true
	return true
}

// First reports whether no notification has been claimed yet.
func (s *NotificationState) First() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.claimed
}

// Toaster delays the first toast of a page lifetime and shows the rest immediately.
// Toasts are never deduplicated.
type Toaster struct {
	notifier Notifier
	state    *NotificationState
	delay    time.Duration
	logger   *slog.Logger
}

// NewToaster wraps n. A nil state starts a fresh page lifetime.
func NewToaster(n Notifier, state *NotificationState, delay time.Duration, logger *slog.Logger) *Toaster {
	if state == nil {
		state = NewNotificationState()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Toaster{notifier: n, state: state, delay: delay, logger: logger}
}

// Notify shows text, waiting for the configured delay if this is the first
// toast. It returns early with ctx.Err() if ctx ends during the wait.
func (t *Toaster) Notify(ctx context.Context, text string) error {
	if t.state.claimFirst() && t.delay > 0 {
		timer := time.NewTimer(t.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	t.logger.Debug("showing toast", "text", text)
	return t.notifier.Show(ctx, text)
}
