// Package store persists the single Guahh session record. Every backend
// keeps at most one record under the fixed storage key and serializes it
// verbatim, so hosts sharing a backend observe the same session.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"guahh-connect/internal/login/models"
	dErrors "guahh-connect/pkg/domain-errors"
)

// StorageKey is the fixed key the session record lives under in every
// backend.
const StorageKey = "guahh_user"

// ErrMalformedRecord reports persisted bytes that no longer decode into a
// user record. Get and Clear return it wrapped and leave the stored value in
// place.
var ErrMalformedRecord = errors.New("malformed session record")

// Store persists at most one user record. Implementations return
// sentinel.ErrNotFound when no record exists.
type Store interface {
	Get(ctx context.Context) (*models.UserRecord, error)
	Put(ctx context.Context, user *models.UserRecord) error
	Clear(ctx context.Context) (*models.UserRecord, error)
}

func encode(user *models.UserRecord) ([]byte, error) {
	if user == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "user record is required")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode session record: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (*models.UserRecord, error) {
	var u models.UserRecord
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return &u, nil
}
