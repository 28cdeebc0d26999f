package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Recorder stamps events and hands them to a background drain so the login
// path never blocks on audit persistence. Events are dropped with a warning
// when the buffer is full.
type Recorder struct {
	store  Store
	inbox  chan Event
	logger *slog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRecorder constructs a Recorder buffering up to buffer events. A
// non-positive buffer falls back to 64.
func NewRecorder(store Store, buffer int, opts ...RecorderOption) *Recorder {
	if buffer <= 0 {
		buffer = 64
	}
	r := &Recorder{
		store:  store,
		inbox:  make(chan Event, buffer),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Emit stamps and enqueues one event. It never blocks.
func (r *Recorder) Emit(_ context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case r.inbox <- event:
	default:
		r.logger.Warn("audit buffer full, dropping event",
			"action", event.Action,
			"user_id", event.UserID,
		)
	}
	return nil
}

// Run drains the inbox into the store until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-r.inbox:
			if err := r.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
