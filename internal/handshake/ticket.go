package handshake

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "guahh-connect/pkg/domain-errors"
	"guahh-connect/pkg/platform/sentinel"
)

// DefaultTicketTTL bounds how long a popup has to complete authentication
// before its ticket expires.
const DefaultTicketTTL = 5 * time.Minute

// TicketClaims binds a handshake ticket to the popup that initiated it.
type TicketClaims struct {
	Service string `json:"service,omitempty"`
	jwt.RegisteredClaims
}

// Ticketer mints the signed state ticket Show embeds in the popup URL and
// consumes the echo the auth page posts back. Each ticket is single-use.
type Ticketer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewTicketer constructs a Ticketer signing with HS256. A non-positive ttl
// falls back to DefaultTicketTTL.
func NewTicketer(signingKey string, ttl time.Duration) (*Ticketer, error) {
	if signingKey == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "ticket signing key is required")
	}
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &Ticketer{
		signingKey: []byte(signingKey),
		issuer:     "guahh-connect",
		ttl:        ttl,
		pending:    map[string]time.Time{},
	}, nil
}

// Mint issues a ticket for one popup and registers it as pending.
func (t *Ticketer) Mint(service string) (string, error) {
	now := time.Now()
	jti := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TicketClaims{
		Service: service,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    t.issuer,
			ID:        jti,
		},
	})

	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign handshake ticket: %w", err)
	}

	t.mu.Lock()
	for id, expiry := range t.pending {
		if now.After(expiry) {
			delete(t.pending, id)
		}
	}
	t.pending[jti] = now.Add(t.ttl)
	t.mu.Unlock()

	return signed, nil
}

// Consume verifies signature and expiry, then retires the ticket. A ticket
// that verifies but is no longer pending was already consumed.
func (t *Ticketer) Consume(tokenString string) error {
	parsed, err := jwt.ParseWithClaims(tokenString, &TicketClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("handshake ticket: %w", sentinel.ErrExpired)
		}
		return dErrors.New(dErrors.CodeUnauthorized, "invalid handshake ticket")
	}

	claims, ok := parsed.Claims.(*TicketClaims)
	if !ok || !parsed.Valid {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid handshake ticket claims")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, pending := t.pending[claims.ID]; !pending {
		return fmt.Errorf("handshake ticket %s: %w", claims.ID, sentinel.ErrAlreadyUsed)
	}
	delete(t.pending, claims.ID)
	return nil
}
