// Package login implements the Guahh session manager: the embeddable core
// that opens the authentication popup, consumes its handshake, persists the
// session record, and fans notifications out to host callbacks.
package login

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"guahh-connect/internal/audit"
	"guahh-connect/internal/handshake"
	"guahh-connect/internal/login/metrics"
	"guahh-connect/internal/login/models"
	"guahh-connect/internal/login/notify"
	"guahh-connect/internal/login/store"
	"guahh-connect/internal/popup"
	dErrors "guahh-connect/pkg/domain-errors"
	"guahh-connect/pkg/platform/sentinel"
	"guahh-connect/pkg/requestcontext"
)

// DefaultAuthPageURL is the central Guahh login page popups navigate to
// when the host configures nothing else.
const DefaultAuthPageURL = "https://auth.guahh.com/login"

// Config carries the host-supplied settings.
type Config struct {
	// AuthPageURL overrides DefaultAuthPageURL. Its origin is the only
	// origin handshake messages are accepted from.
	AuthPageURL string
	// AppTitle is the service-name fallback when Show gets an empty
	// descriptor.
	AppTitle string
	// AppOrigin is the service-URL fallback when Show gets an empty
	// descriptor.
	AppOrigin string
}

// Recorder appends audit events. Satisfied by audit.Recorder.
type Recorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Manager owns the session store, the callback registry, the popup
// controller, and the handshake listener. All state transitions serialize
// through one mutex; callbacks run on the delivering goroutine after the
// transition commits, so fan-out within one event is strictly FIFO by
// registration order.
type Manager struct {
	cfg      Config
	store    store.Store
	registry *notify.Registry
	popups   *popup.Controller
	listener *handshake.Listener
	tickets  *handshake.Ticketer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder Recorder

	// staged by options, consumed in New
	notifier     popup.Notifier
	ticketKey    string
	ticketTTL    time.Duration
	pollInterval time.Duration

	mu          sync.Mutex
	initialized bool
	initErr     error
	closed      bool
	ready       chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mx
	}
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		m.recorder = r
	}
}

// WithNotifier routes user-visible notices (the popup-blocked message)
// somewhere the user will see them.
func WithNotifier(n popup.Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithTicketSigningKey arms single-use handshake tickets: Show embeds a
// signed state parameter and the listener requires its echo. A non-positive
// ttl falls back to the ticket default.
func WithTicketSigningKey(key string, ttl time.Duration) Option {
	return func(m *Manager) {
		m.ticketKey = key
		m.ticketTTL = ttl
	}
}

// WithPopupPollInterval overrides the popup liveness poll interval; used by
// tests.
func WithPopupPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.pollInterval = d
	}
}

// New constructs a Manager. The store holds the single session record; the
// launcher opens authentication windows.
func New(cfg Config, st store.Store, launcher popup.Launcher, opts ...Option) (*Manager, error) {
	if st == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "session store is required")
	}
	if cfg.AuthPageURL == "" {
		cfg.AuthPageURL = DefaultAuthPageURL
	}

	m := &Manager{
		cfg:      cfg,
		store:    st,
		registry: notify.NewRegistry(),
		logger:   slog.Default(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.ticketKey != "" {
		tickets, err := handshake.NewTicketer(m.ticketKey, m.ticketTTL)
		if err != nil {
			return nil, err
		}
		m.tickets = tickets
	}

	ctrlOpts := []popup.Option{
		popup.WithLogger(m.logger),
		popup.WithMetrics(m.metrics),
		popup.WithNotifier(m.notifier),
	}
	if m.pollInterval > 0 {
		ctrlOpts = append(ctrlOpts, popup.WithPollInterval(m.pollInterval))
	}
	popups, err := popup.NewController(launcher, popup.Config{
		AuthPageURL: cfg.AuthPageURL,
		AppTitle:    cfg.AppTitle,
		AppOrigin:   cfg.AppOrigin,
	}, ctrlOpts...)
	if err != nil {
		return nil, err
	}
	m.popups = popups

	listenerOpts := []handshake.ListenerOption{
		handshake.WithListenerLogger(m.logger),
		handshake.WithListenerMetrics(m.metrics),
	}
	if m.tickets != nil {
		listenerOpts = append(listenerOpts, handshake.WithTicketer(m.tickets))
	}
	if m.recorder != nil {
		listenerOpts = append(listenerOpts, handshake.WithListenerRecorder(m.recorder))
	}
	listener, err := handshake.NewListener(cfg.AuthPageURL, sinkAdapter{m}, listenerOpts...)
	if err != nil {
		return nil, err
	}
	m.listener = listener

	return m, nil
}

// Listener exposes the handshake receiver for transports to feed.
func (m *Manager) Listener() *handshake.Listener {
	return m.listener
}

// Ready is closed once Init has run, successfully or not. It replaces
// polling for manager availability.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Init loads any cached session and replays it to the login callbacks
// registered so far, as a synthetic "Cached Session" login. Callbacks
// registered after Init returns do not receive the replay. Init runs once;
// later calls return the first outcome.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized {
		err := m.initErr
		m.mu.Unlock()
		return err
	}
	m.initialized = true

	var (
		cached   *models.UserRecord
		snapshot []notify.LoginFunc
	)
	user, err := m.store.Get(ctx)
	switch {
	case err == nil:
		cached = user
		snapshot = m.registry.LoginSnapshot()
	case errors.Is(err, sentinel.ErrNotFound):
		// first visit, nothing to replay
	default:
		m.initErr = dErrors.Wrap(err, dErrors.CodeInternal, "load cached session")
	}
	initErr := m.initErr
	close(m.ready)
	m.mu.Unlock()

	if initErr != nil {
		m.logger.ErrorContext(ctx, "session manager init failed", "error", initErr)
		return initErr
	}
	if cached != nil {
		dispatched := notify.DispatchLogin(snapshot, cached, models.CachedSession())
		m.incrementReplays()
		m.logAudit(ctx, audit.Event{
			Action:  audit.ActionSessionReplay,
			UserID:  cached.UserID,
			Service: models.CachedSessionName,
		})
		m.logger.InfoContext(ctx, "cached session replayed",
			"user_id", cached.UserID,
			"callbacks", dispatched,
		)
	}
	return nil
}

// Show opens the login popup for service, falling back to the configured
// application title and origin for empty fields. A blocked popup surfaces
// popup.ErrBlocked after notifying the user; there is no retry.
func (m *Manager) Show(ctx context.Context, service models.ServiceDescriptor) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return dErrors.New(dErrors.CodeUnavailable, "session manager is closed")
	}

	state := ""
	if m.tickets != nil {
		var err error
		state, err = m.tickets.Mint(service.Name)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "mint handshake ticket")
		}
	}

	if err := m.popups.Show(ctx, service, state); err != nil {
		m.logAudit(ctx, audit.Event{
			Action:  audit.ActionPopupBlocked,
			Service: service.Name,
			Reason:  err.Error(),
		})
		return err
	}
	return nil
}

// GetUser returns the persisted session record, or nil when nobody is
// logged in.
func (m *Manager) GetUser(ctx context.Context) (*models.UserRecord, error) {
	user, err := m.store.Get(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}
	return user, nil
}

// Logout clears the session and notifies logout callbacks in registration
// order with the user that was cleared; nil when no session existed.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeUnavailable, "session manager is closed")
	}

	prior, err := m.store.Clear(ctx)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		m.mu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeInternal, "clear session")
	}
	snapshot := m.registry.LogoutSnapshot()
	m.mu.Unlock()

	dispatched := notify.DispatchLogout(snapshot, prior)
	m.incrementLogouts()

	userID := ""
	if prior != nil {
		userID = prior.UserID
	}
	m.logAudit(ctx, audit.Event{Action: audit.ActionLogout, UserID: userID})
	m.logger.InfoContext(ctx, "logged out",
		"user_id", userID,
		"callbacks", dispatched,
	)
	return nil
}

// OnLogin registers fn for login events: fresh handshakes and, when
// registered before Init, the cached-session replay.
func (m *Manager) OnLogin(fn notify.LoginFunc) error {
	return m.registry.OnLogin(fn)
}

// OnLogout registers fn for logout events.
func (m *Manager) OnLogout(fn notify.LogoutFunc) error {
	return m.registry.OnLogout(fn)
}

// Close releases the popup watcher and stops accepting handshakes. The
// persisted session is left untouched.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.popups.Shutdown()
	return nil
}

// sinkAdapter feeds accepted handshakes into the manager.
type sinkAdapter struct {
	m *Manager
}

func (s sinkAdapter) Consume(ctx context.Context, user *models.UserRecord, service models.ServiceDescriptor) error {
	return s.m.consume(ctx, user, service)
}

// consume commits one accepted handshake: persist, notify in order, close
// the popup.
func (m *Manager) consume(ctx context.Context, user *models.UserRecord, service models.ServiceDescriptor) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeUnavailable, "session manager is closed")
	}
	if err := m.store.Put(ctx, user); err != nil {
		m.mu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist session")
	}
	snapshot := m.registry.LoginSnapshot()
	m.mu.Unlock()

	dispatched := notify.DispatchLogin(snapshot, user, service)
	m.popups.CloseIfOpen()
	m.incrementLogins()
	m.logAudit(ctx, audit.Event{
		Action:  audit.ActionLogin,
		UserID:  user.UserID,
		Service: service.Name,
		Origin:  requestcontext.Origin(ctx),
		Device:  requestcontext.Device(ctx),
	})
	m.logger.InfoContext(ctx, "login handshake accepted",
		"user_id", user.UserID,
		"service", service.Name,
		"callbacks", dispatched,
	)
	return nil
}

func (m *Manager) logAudit(ctx context.Context, event audit.Event) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.Emit(ctx, event); err != nil {
		m.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}

func (m *Manager) incrementLogins() {
	if m.metrics != nil {
		m.metrics.IncrementLogins()
	}
}

func (m *Manager) incrementReplays() {
	if m.metrics != nil {
		m.metrics.IncrementReplays()
	}
}

func (m *Manager) incrementLogouts() {
	if m.metrics != nil {
		m.metrics.IncrementLogouts()
	}
}
