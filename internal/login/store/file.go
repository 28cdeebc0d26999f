package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"guahh-connect/internal/login/models"
	dErrors "guahh-connect/pkg/domain-errors"
	"guahh-connect/pkg/platform/sentinel"
)

// File persists the session record as a JSON document on disk, created with
// 0600 so other local users cannot read the identity payload.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile constructs a file-backed session store at path, creating parent
// directories as needed.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "session file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &File{path: path}, nil
}

func (s *File) Get(_ context.Context) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *File) Put(_ context.Context, user *models.UserRecord) error {
	raw, err := encode(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write-then-rename keeps readers from observing a half-written record.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (s *File) Clear(_ context.Context) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, err := s.read()
	if err != nil {
		return nil, err
	}
	if err := os.Remove(s.path); err != nil {
		return nil, fmt.Errorf("remove session file: %w", err)
	}
	return prior, nil
}

func (s *File) read() (*models.UserRecord, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	return decode(raw)
}
