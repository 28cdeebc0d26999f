package handshake

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"guahh-connect/internal/audit"
	"guahh-connect/internal/login/metrics"
	"guahh-connect/internal/login/models"
	"guahh-connect/pkg/attrs"
	dErrors "guahh-connect/pkg/domain-errors"
)

// Sink consumes accepted handshakes: persist the user, notify subscribers,
// close the popup.
type Sink interface {
	Consume(ctx context.Context, user *models.UserRecord, service models.ServiceDescriptor) error
}

// Recorder appends audit events for rejected messages.
type Recorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Listener is the single receiver every inbound relay message funnels
// through. The type filter stays permissive on purpose: unrecognized
// messages vanish without a trace beyond a counter. Well-typed messages face
// the origin and ticket checks before they reach the sink.
type Listener struct {
	origin   string
	sink     Sink
	tickets  *Ticketer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder Recorder
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

func WithListenerLogger(logger *slog.Logger) ListenerOption {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithListenerMetrics(m *metrics.Metrics) ListenerOption {
	return func(l *Listener) {
		l.metrics = m
	}
}

// WithTicketer enables single-use ticket verification on top of the origin
// check.
func WithTicketer(t *Ticketer) ListenerOption {
	return func(l *Listener) {
		l.tickets = t
	}
}

// WithListenerRecorder audits rejected messages.
func WithListenerRecorder(r Recorder) ListenerOption {
	return func(l *Listener) {
		l.recorder = r
	}
}

// NewListener constructs a listener trusting only messages originating from
// authPageURL's origin.
func NewListener(authPageURL string, sink Sink, opts ...ListenerOption) (*Listener, error) {
	if sink == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "handshake sink is required")
	}
	origin, err := originOf(authPageURL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid auth page URL")
	}

	l := &Listener{
		origin: origin,
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

// Origin returns the sole origin the listener accepts handshakes from.
func (l *Listener) Origin() string {
	return l.origin
}

// Deliver runs one inbound message through the acceptance checks. It
// returns an error only when an accepted handshake fails downstream;
// filtered and rejected messages produce nil so transports answer the
// poster identically either way.
func (l *Listener) Deliver(ctx context.Context, msg Message) error {
	if msg.Type != TypeAuthSuccess {
		if l.metrics != nil {
			l.metrics.IncrementMessagesIgnored()
		}
		l.logger.DebugContext(ctx, "ignoring message", "type", msg.Type)
		return nil
	}

	if msg.Origin != l.origin {
		l.reject(ctx, "untrusted origin", "origin", msg.Origin)
		return nil
	}

	if l.tickets != nil {
		if err := l.tickets.Consume(msg.State); err != nil {
			l.reject(ctx, "invalid ticket", "origin", msg.Origin, "error", err)
			return nil
		}
	}

	if msg.User == nil {
		l.reject(ctx, "missing user payload", "origin", msg.Origin)
		return nil
	}

	if err := l.sink.Consume(ctx, msg.User, msg.Service); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "consume handshake")
	}
	return nil
}

func (l *Listener) reject(ctx context.Context, reason string, args ...any) {
	if l.metrics != nil {
		l.metrics.IncrementMessagesRejected()
	}
	l.logger.WarnContext(ctx, "rejected handshake: "+reason, args...)

	if l.recorder == nil {
		return
	}
	err := l.recorder.Emit(ctx, audit.Event{
		Action: audit.ActionMessageRejected,
		Origin: attrs.ExtractString(args, "origin"),
		Reason: reason,
	})
	if err != nil {
		l.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}

func originOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("auth page URL must be absolute: %q", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}
