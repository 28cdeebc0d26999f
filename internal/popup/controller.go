package popup

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"guahh-connect/internal/login/metrics"
	"guahh-connect/internal/login/models"
	dErrors "guahh-connect/pkg/domain-errors"
)

// Config carries the values Show needs to build the popup URL.
type Config struct {
	// AuthPageURL is the Guahh login page the popup navigates to.
	AuthPageURL string
	// AppTitle is the fallback service name when the caller supplies none.
	AppTitle string
	// AppOrigin is the fallback service URL when the caller supplies none.
	AppOrigin string
}

// Controller opens popups and tracks at most one handle: the most recently
// opened window. It does not enforce exclusivity; a second Show opens
// another window and supersedes the first handle.
type Controller struct {
	launcher     Launcher
	cfg          Config
	logger       *slog.Logger
	notifier     Notifier
	metrics      *metrics.Metrics
	pollInterval time.Duration

	mu      sync.Mutex
	current *tracked
}

// tracked pairs a window with its watcher stop channel. cancel is
// idempotent so the success path and the watcher can both release it.
type tracked struct {
	win  Window
	stop chan struct{}
	once sync.Once
}

func (t *tracked) cancel() {
	t.once.Do(func() { close(t.stop) })
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithPollInterval overrides the liveness poll interval; used by tests.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// NewController constructs a popup controller.
func NewController(launcher Launcher, cfg Config, opts ...Option) (*Controller, error) {
	if launcher == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "popup launcher is required")
	}
	if cfg.AuthPageURL == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "auth page URL is required")
	}
	if _, err := url.Parse(cfg.AuthPageURL); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid auth page URL")
	}

	c := &Controller{
		launcher:     launcher,
		cfg:          cfg,
		logger:       slog.Default(),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Show opens the authentication popup for the given service descriptor,
// applying the configured fallbacks to missing fields. state, when
// non-empty, rides along as the handshake ticket. The popup is focused and
// watched for manual closure; Show returns once the open request is issued.
func (c *Controller) Show(ctx context.Context, service models.ServiceDescriptor, state string) error {
	resolved := c.resolve(service)

	target, err := buildAuthURL(c.cfg.AuthPageURL, resolved, state)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "build login popup URL")
	}

	screenW, screenH := c.launcher.ScreenSize()
	geo := Center(screenW, screenH)

	win, err := c.launcher.Open(target, WindowName, geo)
	if err != nil {
		c.reportBlocked(ctx, resolved, err)
		return fmt.Errorf("%w: %v", ErrBlocked, err)
	}
	win.Focus()

	t := &tracked{win: win, stop: make(chan struct{})}
	c.mu.Lock()
	if c.current != nil {
		// The newest window wins the tracker; the old watcher is released
		// without closing its window.
		c.current.cancel()
	}
	c.current = t
	c.mu.Unlock()

	go c.watch(t)

	if c.metrics != nil {
		c.metrics.IncrementPopupsOpened()
	}
	c.logger.InfoContext(ctx, "login popup opened",
		"service", resolved.Name,
		"window", WindowName,
	)
	return nil
}

// CloseIfOpen closes the tracked popup and clears the handle; no-op when
// nothing is tracked. The handshake success path calls this, so for any
// given popup either this or the closure watcher fires, never both.
func (c *Controller) CloseIfOpen() {
	c.mu.Lock()
	t := c.current
	c.current = nil
	c.mu.Unlock()

	if t == nil {
		return
	}
	t.cancel()
	if err := t.win.Close(); err != nil {
		c.logger.Warn("close login popup", "error", err)
	}
}

// Active reports whether a popup handle is currently tracked.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Shutdown releases the watcher without closing the window. The popup, if
// any, stays open but is no longer tracked.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	t := c.current
	c.current = nil
	c.mu.Unlock()

	if t != nil {
		t.cancel()
	}
}

func (c *Controller) resolve(service models.ServiceDescriptor) models.ServiceDescriptor {
	if service.Name == "" {
		service.Name = c.cfg.AppTitle
	}
	if service.URL == "" {
		service.URL = c.cfg.AppOrigin
	}
	return service
}

func (c *Controller) reportBlocked(ctx context.Context, service models.ServiceDescriptor, err error) {
	if c.metrics != nil {
		c.metrics.IncrementPopupsBlocked()
	}
	c.logger.ErrorContext(ctx, "login popup blocked",
		"service", service.Name,
		"error", err,
	)
	if c.notifier != nil {
		c.notifier.Notify("Please allow popups for this application to log in with Guahh.")
	}
}

// watch observes one window until it closes or the tracker lets go of it.
// Windows that push a closed signal are waited on; the rest are polled.
func (c *Controller) watch(t *tracked) {
	if cn, ok := t.win.(CloseNotifier); ok {
		select {
		case <-cn.Closed():
			c.handleClosed(t)
		case <-t.stop:
		}
		return
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if t.win.IsClosed() {
				c.handleClosed(t)
				return
			}
		}
	}
}

func (c *Controller) handleClosed(t *tracked) {
	t.cancel()

	c.mu.Lock()
	stillCurrent := c.current == t
	if stillCurrent {
		c.current = nil
	}
	c.mu.Unlock()

	if !stillCurrent {
		return
	}
	if c.metrics != nil {
		c.metrics.IncrementPopupsAbandoned()
	}
	c.logger.Debug("login popup closed before handshake")
}

func buildAuthURL(base string, service models.ServiceDescriptor, state string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("service", service.Name)
	q.Set("url", service.URL)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
