// Package notify fans login and logout events out to host callbacks in
// registration order.
package notify

import (
	"sync"

	"guahh-connect/internal/login/models"
	dErrors "guahh-connect/pkg/domain-errors"
)

// LoginFunc receives the authenticated user and the service descriptor the
// login was performed for.
type LoginFunc func(user *models.UserRecord, service models.ServiceDescriptor)

// LogoutFunc receives the user whose session was cleared; nil when no
// session existed.
type LogoutFunc func(user *models.UserRecord)

// Registry holds the ordered subscriber lists. Entries stay registered for
// the lifetime of the registry; there is no removal.
type Registry struct {
	mu     sync.Mutex
	login  []LoginFunc
	logout []LogoutFunc
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OnLogin appends fn to the login list.
func (r *Registry) OnLogin(fn LoginFunc) error {
	if fn == nil {
		return dErrors.New(dErrors.CodeValidation, "login callback is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.login = append(r.login, fn)
	return nil
}

// OnLogout appends fn to the logout list.
func (r *Registry) OnLogout(fn LogoutFunc) error {
	if fn == nil {
		return dErrors.New(dErrors.CodeValidation, "logout callback is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logout = append(r.logout, fn)
	return nil
}

// LoginSnapshot returns the login callbacks registered so far, in order.
// Dispatching from a snapshot keeps one event's fan-out stable even if a
// callback registers further callbacks while running.
func (r *Registry) LoginSnapshot() []LoginFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LoginFunc, len(r.login))
	copy(out, r.login)
	return out
}

// LogoutSnapshot returns the logout callbacks registered so far, in order.
func (r *Registry) LogoutSnapshot() []LogoutFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogoutFunc, len(r.logout))
	copy(out, r.logout)
	return out
}

// DispatchLogin invokes every snapshot entry in order with identical
// arguments and reports how many ran.
func DispatchLogin(snapshot []LoginFunc, user *models.UserRecord, service models.ServiceDescriptor) int {
	for _, fn := range snapshot {
		fn(user, service)
	}
	return len(snapshot)
}

// DispatchLogout invokes every snapshot entry in order and reports how many
// ran.
func DispatchLogout(snapshot []LogoutFunc, user *models.UserRecord) int {
	for _, fn := range snapshot {
		fn(user)
	}
	return len(snapshot)
}
