package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"guahh-connect/internal/login/models"
	"guahh-connect/pkg/platform/sentinel"
)

// Redis persists the session record under the fixed storage key so separate
// processes sharing the same Redis observe one session.
type Redis struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithTTL expires the session record after d. Zero keeps it until cleared.
func WithTTL(d time.Duration) RedisOption {
	return func(s *Redis) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(rdb redis.Cmdable, opts ...RedisOption) *Redis {
	s := &Redis{rdb: rdb}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Redis) Get(ctx context.Context) (*models.UserRecord, error) {
	raw, err := s.rdb.Get(ctx, StorageKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read session record: %w", err)
	}
	return decode(raw)
}

func (s *Redis) Put(ctx context.Context, user *models.UserRecord) error {
	raw, err := encode(user)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, StorageKey, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	return nil
}

// Clear reads before deleting so a record that no longer decodes surfaces as
// ErrMalformedRecord instead of being dropped silently.
func (s *Redis) Clear(ctx context.Context) (*models.UserRecord, error) {
	prior, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Del(ctx, StorageKey).Err(); err != nil {
		return nil, fmt.Errorf("delete session record: %w", err)
	}
	return prior, nil
}
