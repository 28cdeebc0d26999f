// Package handshake validates and consumes the result message the Guahh
// auth page posts back to its opener.
package handshake

import "guahh-connect/internal/login/models"

// TypeAuthSuccess is the sole recognized message discriminant. Messages
// carrying any other type are ignored without error.
const TypeAuthSuccess = "GUAHH_AUTH_SUCCESS"

// Message is the cross-window payload. Origin is the transport-level sender
// origin recorded by the relay, never part of the posted body.
type Message struct {
	Type    string                   `json:"type"`
	User    *models.UserRecord       `json:"user,omitempty"`
	Service models.ServiceDescriptor `json:"service"`
	State   string                   `json:"state,omitempty"`

	Origin string `json:"-"`
}
