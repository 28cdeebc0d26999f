// Package audit keeps an append-only trail of authentication events so
// hosts can answer "when did this user last log in, and from where".
package audit

import (
	"context"
	"time"
)

// Action names the flow edge an event was emitted from.
type Action string

const (
	ActionLogin           Action = "login"
	ActionSessionReplay   Action = "session_replay"
	ActionLogout          Action = "logout"
	ActionPopupBlocked    Action = "popup_blocked"
	ActionMessageRejected Action = "message_rejected"
)

// Event is emitted from the login flow. Keep it transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	ID        string
	Timestamp time.Time
	Action    Action
	UserID    string
	Service   string
	Origin    string
	Device    string
	Reason    string
}

// Store persists events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}
