// Command demo runs a host application embedding the Guahh session manager:
// it serves the handshake relay, opens the login popup in an app-mode
// browser window, and logs session transitions as they happen.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"guahh-connect/internal/audit"
	"guahh-connect/internal/login"
	"guahh-connect/internal/login/metrics"
	"guahh-connect/internal/login/models"
	"guahh-connect/internal/login/store"
	"guahh-connect/internal/platform/config"
	"guahh-connect/internal/platform/httpserver"
	"guahh-connect/internal/platform/logger"
	"guahh-connect/internal/platform/otel"
	platformredis "guahh-connect/internal/platform/redis"
	"guahh-connect/internal/popup"
	httptransport "guahh-connect/internal/transport/http"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "guahh-connect: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, "guahh-connect")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("flush traces", "error", err)
		}
	}()

	sessions, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	recorder := audit.NewRecorder(audit.NewInMemoryStore(), 64, audit.WithRecorderLogger(log))

	launcher, err := popup.NewBrowserLauncher(cfg.BrowserCommand, cfg.ScreenWidth, cfg.ScreenHeight)
	if err != nil {
		return err
	}

	opts := []login.Option{
		login.WithLogger(log),
		login.WithMetrics(metrics.New()),
		login.WithRecorder(recorder),
		login.WithNotifier(consoleNotifier{log: log}),
	}
	if cfg.TicketSigningKey != "" {
		opts = append(opts, login.WithTicketSigningKey(cfg.TicketSigningKey, cfg.TicketTTL))
	}

	manager, err := login.New(login.Config{
		AuthPageURL: cfg.AuthPageURL,
		AppTitle:    cfg.AppTitle,
		AppOrigin:   cfg.AppOrigin,
	}, sessions, launcher, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = manager.Close() }()

	if err := manager.OnLogin(func(user *models.UserRecord, service models.ServiceDescriptor) {
		log.Info("signed in", "user", user.Username, "display_name", user.DisplayName, "service", service.Name)
	}); err != nil {
		return err
	}
	if err := manager.OnLogout(func(user *models.UserRecord) {
		if user == nil {
			log.Info("signed out with no active session")
			return
		}
		log.Info("signed out", "user", user.Username)
	}); err != nil {
		return err
	}

	relay := httptransport.NewHandler(manager.Listener(), log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(relay, log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return recorder.Run(ctx)
	})
	g.Go(func() error {
		log.Info("handshake relay listening",
			"addr", cfg.Addr,
			"backend", string(cfg.SessionBackend),
			"trusted_origin", manager.Listener().Origin(),
		)
		return httpserver.Run(ctx, srv, log)
	})
	g.Go(func() error {
		if err := manager.Init(ctx); err != nil {
			return err
		}
		user, err := manager.GetUser(ctx)
		if err != nil {
			return err
		}
		if user != nil {
			return nil
		}
		// Nobody logged in: open the login popup right away. A blocked
		// popup is reported to the user, not fatal to the process.
		if err := manager.Show(ctx, models.ServiceDescriptor{}); err != nil {
			log.Warn("could not open login popup", "error", err)
		}
		return nil
	})

	return g.Wait()
}

// buildStore selects the session backend and returns it with its cleanup.
func buildStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	noop := func() {}

	switch cfg.SessionBackend {
	case config.BackendFile:
		st, err := store.NewFile(cfg.SessionFile)
		if err != nil {
			return nil, nil, err
		}
		return st, noop, nil

	case config.BackendRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedis(client.Client), func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		st := store.NewPostgres(db)
		if err := st.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return st, func() { _ = db.Close() }, nil

	default:
		return store.NewInMemory(), noop, nil
	}
}

// consoleNotifier surfaces popup notices to whoever is watching the logs.
type consoleNotifier struct {
	log *slog.Logger
}

func (n consoleNotifier) Notify(message string) {
	n.log.Warn(message)
}
