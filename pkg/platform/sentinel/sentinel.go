package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the ticketer return
// these (optionally wrapped) so callers can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrExpired: handshake ticket has expired
// - ErrAlreadyUsed: handshake ticket already consumed
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrAlreadyUsed = errors.New("already used")
)
