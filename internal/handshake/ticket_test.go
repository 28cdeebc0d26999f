package handshake

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "guahh-connect/pkg/domain-errors"
	"guahh-connect/pkg/platform/sentinel"
)

func TestNewTicketer(t *testing.T) {
	t.Run("empty key rejected", func(t *testing.T) {
		_, err := NewTicketer("", 0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("non-positive ttl falls back to default", func(t *testing.T) {
		tk, err := NewTicketer("secret", 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultTicketTTL, tk.ttl)
	})
}

func TestTicketRoundTrip(t *testing.T) {
	tk, err := NewTicketer("secret", time.Minute)
	require.NoError(t, err)

	ticket, err := tk.Mint("Acme")
	require.NoError(t, err)
	require.NotEmpty(t, ticket)

	assert.NoError(t, tk.Consume(ticket))
}

func TestTicketSingleUse(t *testing.T) {
	tk, err := NewTicketer("secret", time.Minute)
	require.NoError(t, err)

	ticket, err := tk.Mint("Acme")
	require.NoError(t, err)
	require.NoError(t, tk.Consume(ticket))

	err = tk.Consume(ticket)
	assert.True(t, errors.Is(err, sentinel.ErrAlreadyUsed))
}

func TestTicketExpiry(t *testing.T) {
	tk, err := NewTicketer("secret", time.Minute)
	require.NoError(t, err)
	tk.ttl = -time.Minute // mint already-expired tickets

	ticket, err := tk.Mint("Acme")
	require.NoError(t, err)

	err = tk.Consume(ticket)
	assert.True(t, errors.Is(err, sentinel.ErrExpired))
}

func TestTicketWrongKey(t *testing.T) {
	minting, err := NewTicketer("secret", time.Minute)
	require.NoError(t, err)
	verifying, err := NewTicketer("other-secret", time.Minute)
	require.NoError(t, err)

	ticket, err := minting.Mint("Acme")
	require.NoError(t, err)

	err = verifying.Consume(ticket)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestTicketGarbage(t *testing.T) {
	tk, err := NewTicketer("secret", time.Minute)
	require.NoError(t, err)

	assert.True(t, dErrors.HasCode(tk.Consume(""), dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(tk.Consume("not.a.jwt"), dErrors.CodeUnauthorized))
}

func TestMintPrunesExpiredPending(t *testing.T) {
	tk, err := NewTicketer("secret", time.Minute)
	require.NoError(t, err)

	tk.ttl = -time.Minute
	_, err = tk.Mint("stale")
	require.NoError(t, err)

	tk.ttl = time.Minute
	_, err = tk.Mint("fresh")
	require.NoError(t, err)

	tk.mu.Lock()
	defer tk.mu.Unlock()
	assert.Len(t, tk.pending, 1)
}
