package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderStampsAndPersists(t *testing.T) {
	store := NewInMemoryStore()
	recorder := NewRecorder(store, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = recorder.Run(ctx)
	}()

	require.NoError(t, recorder.Emit(ctx, Event{
		Action:  ActionLogin,
		UserID:  "42",
		Service: "Acme",
	}))

	require.Eventually(t, func() bool {
		events, err := store.All(context.Background())
		return err == nil && len(events) == 1
	}, time.Second, 5*time.Millisecond)

	events, err := store.All(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, ActionLogin, events[0].Action)

	cancel()
	<-done
}

func TestRecorderDropsWhenFull(t *testing.T) {
	store := NewInMemoryStore()
	recorder := NewRecorder(store, 1)

	// No drain running: the second emit must not block.
	ctx := context.Background()
	require.NoError(t, recorder.Emit(ctx, Event{Action: ActionLogin, UserID: "1"}))

	doneC := make(chan struct{})
	go func() {
		defer close(doneC)
		_ = recorder.Emit(ctx, Event{Action: ActionLogin, UserID: "2"})
	}()

	select {
	case <-doneC:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}
}

func TestListByUser(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Event{ID: "1", UserID: "42", Action: ActionLogin}))
	require.NoError(t, store.Append(ctx, Event{ID: "2", UserID: "7", Action: ActionLogin}))
	require.NoError(t, store.Append(ctx, Event{ID: "3", UserID: "42", Action: ActionLogout}))

	events, err := store.ListByUser(ctx, "42")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionLogin, events[0].Action)
	assert.Equal(t, ActionLogout, events[1].Action)
}
