package store

import (
	"context"
	"sync"

	"guahh-connect/internal/login/models"
	"guahh-connect/pkg/platform/sentinel"
)

// InMemory keeps the session record in process memory. It holds the
// serialized bytes rather than the struct so it round-trips records exactly
// like the persistent backends.
type InMemory struct {
	mu  sync.RWMutex
	raw []byte
}

// NewInMemory constructs an empty in-memory session store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Get(_ context.Context) (*models.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.raw == nil {
		return nil, sentinel.ErrNotFound
	}
	return decode(s.raw)
}

func (s *InMemory) Put(_ context.Context, user *models.UserRecord) error {
	raw, err := encode(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	return nil
}

func (s *InMemory) Clear(_ context.Context) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw == nil {
		return nil, sentinel.ErrNotFound
	}
	prior, err := decode(s.raw)
	if err != nil {
		return nil, err
	}
	s.raw = nil
	return prior, nil
}
