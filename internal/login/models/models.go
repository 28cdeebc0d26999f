package models

// UserRecord is the identity payload the Guahh auth page mints on a
// successful login. The manager treats it as opaque beyond presence or
// absence; it is persisted and replayed with these exact wire names.
type UserRecord struct {
	UserID            string   `json:"userId"`
	Username          string   `json:"username"`
	DisplayName       string   `json:"displayName"`
	ProfilePictureURL string   `json:"profilePictureUrl,omitempty"`
	IsVerified        bool     `json:"isVerified"`
	ConnectedServices []string `json:"connectedServices,omitempty"`
}

// Clone returns a deep copy so stored records cannot be mutated through
// values handed to callbacks.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	cp := *u
	if u.ConnectedServices != nil {
		cp.ConnectedServices = make([]string, len(u.ConnectedServices))
		copy(cp.ConnectedServices, u.ConnectedServices)
	}
	return &cp
}

// ServiceDescriptor identifies the application a login was requested for.
// Both fields round-trip through the popup URL query string.
type ServiceDescriptor struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// CachedSessionName labels the synthetic descriptor passed to login
// callbacks when a persisted session is replayed at startup instead of
// minted by a fresh handshake.
const CachedSessionName = "Cached Session"

// CachedSession builds the descriptor used for startup replays.
func CachedSession() ServiceDescriptor {
	return ServiceDescriptor{Name: CachedSessionName}
}
