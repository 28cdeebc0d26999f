package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"guahh-connect/internal/login/models"
	"guahh-connect/pkg/platform/sentinel"
)

// Clock abstracts time for testability.
type Clock func() time.Time

// Postgres persists the session record in a single-row table keyed by the
// storage key.
type Postgres struct {
	db    *sql.DB
	clock Clock
}

// PostgresOption configures a Postgres store.
type PostgresOption func(*Postgres)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) PostgresOption {
	return func(s *Postgres) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *Postgres {
	s := &Postgres{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Schema creates the backing table. Callers owning their migrations can run
// the equivalent DDL there instead.
const Schema = `
CREATE TABLE IF NOT EXISTS guahh_session (
	storage_key TEXT PRIMARY KEY,
	record      JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

// EnsureSchema applies Schema against the connected database.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure session schema: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context) (*models.UserRecord, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM guahh_session WHERE storage_key = $1`, StorageKey,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read session record: %w", err)
	}
	return decode(raw)
}

func (s *Postgres) Put(ctx context.Context, user *models.UserRecord) error {
	raw, err := encode(user)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO guahh_session (storage_key, record, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (storage_key) DO UPDATE SET
			record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, StorageKey, raw, s.clock()); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	return nil
}

// Clear decodes the row before deleting it so a malformed record surfaces
// instead of being dropped silently.
func (s *Postgres) Clear(ctx context.Context) (*models.UserRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin clear session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	err = tx.QueryRowContext(ctx,
		`SELECT record FROM guahh_session WHERE storage_key = $1 FOR UPDATE`, StorageKey,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read session record: %w", err)
	}

	prior, err := decode(raw)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM guahh_session WHERE storage_key = $1`, StorageKey,
	); err != nil {
		return nil, fmt.Errorf("delete session record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit clear session: %w", err)
	}
	return prior, nil
}
