package handshake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"guahh-connect/internal/audit"
	"guahh-connect/internal/login/models"
	dErrors "guahh-connect/pkg/domain-errors"
)

type sinkCall struct {
	user    *models.UserRecord
	service models.ServiceDescriptor
}

type recordingSink struct {
	mu    sync.Mutex
	calls []sinkCall
	fail  error
}

func (s *recordingSink) Consume(_ context.Context, user *models.UserRecord, service models.ServiceDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.calls = append(s.calls, sinkCall{user: user, service: service})
	return nil
}

func (s *recordingSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type captureRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *captureRecorder) Emit(_ context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *captureRecorder) snapshot() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

const testAuthPage = "https://auth.guahh.com/login"

type ListenerSuite struct {
	suite.Suite
	sink     *recordingSink
	listener *Listener
}

func TestListenerSuite(t *testing.T) {
	suite.Run(t, new(ListenerSuite))
}

func (s *ListenerSuite) SetupTest() {
	s.sink = &recordingSink{}

	var err error
	s.listener, err = NewListener(testAuthPage, s.sink)
	s.Require().NoError(err)
}

func (s *ListenerSuite) goodMessage() Message {
	return Message{
		Type:    TypeAuthSuccess,
		User:    &models.UserRecord{UserID: "42", Username: "ada", DisplayName: "Ada L."},
		Service: models.ServiceDescriptor{Name: "Acme", URL: "https://acme.test"},
		Origin:  "https://auth.guahh.com",
	}
}

func (s *ListenerSuite) TestNewListener() {
	s.Run("nil sink rejected", func() {
		_, err := NewListener(testAuthPage, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("relative auth page URL rejected", func() {
		_, err := NewListener("/login", s.sink)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("origin strips path and query", func() {
		s.Equal("https://auth.guahh.com", s.listener.Origin())
	})
}

func (s *ListenerSuite) TestDeliverAccepts() {
	ctx := context.Background()
	msg := s.goodMessage()

	s.Require().NoError(s.listener.Deliver(ctx, msg))

	s.Require().Len(s.sink.calls, 1)
	s.Equal(msg.User, s.sink.calls[0].user)
	s.Equal(msg.Service, s.sink.calls[0].service)
}

func (s *ListenerSuite) TestDeliverIgnoresOtherTypes() {
	ctx := context.Background()
	msg := s.goodMessage()
	msg.Type = "OTHER"

	s.NoError(s.listener.Deliver(ctx, msg))
	s.Zero(s.sink.callCount())
}

func (s *ListenerSuite) TestDeliverRejectsUntrustedOrigin() {
	ctx := context.Background()

	s.Run("foreign origin", func() {
		msg := s.goodMessage()
		msg.Origin = "https://evil.example"
		s.NoError(s.listener.Deliver(ctx, msg))
		s.Zero(s.sink.callCount())
	})

	s.Run("missing origin", func() {
		msg := s.goodMessage()
		msg.Origin = ""
		s.NoError(s.listener.Deliver(ctx, msg))
		s.Zero(s.sink.callCount())
	})

	s.Run("origin with path does not match", func() {
		msg := s.goodMessage()
		msg.Origin = "https://auth.guahh.com/login"
		s.NoError(s.listener.Deliver(ctx, msg))
		s.Zero(s.sink.callCount())
	})
}

func (s *ListenerSuite) TestDeliverRejectsMissingUser() {
	ctx := context.Background()
	msg := s.goodMessage()
	msg.User = nil

	s.NoError(s.listener.Deliver(ctx, msg))
	s.Zero(s.sink.callCount())
}

func (s *ListenerSuite) TestDeliverSinkFailure() {
	ctx := context.Background()
	s.sink.fail = errors.New("store down")

	err := s.listener.Deliver(ctx, s.goodMessage())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ListenerSuite) TestRejectionsAudited() {
	ctx := context.Background()
	recorder := &captureRecorder{}

	listener, err := NewListener(testAuthPage, s.sink, WithListenerRecorder(recorder))
	s.Require().NoError(err)

	msg := s.goodMessage()
	msg.Origin = "https://evil.example"
	s.NoError(listener.Deliver(ctx, msg))

	missing := s.goodMessage()
	missing.User = nil
	s.NoError(listener.Deliver(ctx, missing))

	events := recorder.snapshot()
	s.Require().Len(events, 2)
	s.Equal(audit.ActionMessageRejected, events[0].Action)
	s.Equal("https://evil.example", events[0].Origin)
	s.Equal("untrusted origin", events[0].Reason)
	s.Equal(audit.ActionMessageRejected, events[1].Action)
	s.Equal("https://auth.guahh.com", events[1].Origin)
	s.Equal("missing user payload", events[1].Reason)

	// Accepted deliveries leave the rejection trail alone.
	s.NoError(listener.Deliver(ctx, s.goodMessage()))
	s.Len(recorder.snapshot(), 2)
}

func (s *ListenerSuite) TestDeliverWithTickets() {
	ctx := context.Background()
	tickets, err := NewTicketer("secret", time.Minute)
	s.Require().NoError(err)

	listener, err := NewListener(testAuthPage, s.sink, WithTicketer(tickets))
	s.Require().NoError(err)

	s.Run("missing ticket rejected", func() {
		s.NoError(listener.Deliver(ctx, s.goodMessage()))
		s.Zero(s.sink.callCount())
	})

	s.Run("valid ticket accepted once", func() {
		ticket, err := tickets.Mint("Acme")
		s.Require().NoError(err)

		msg := s.goodMessage()
		msg.State = ticket
		s.NoError(listener.Deliver(ctx, msg))
		s.Equal(1, s.sink.callCount())

		// Replaying the same ticket is rejected.
		s.NoError(listener.Deliver(ctx, msg))
		s.Equal(1, s.sink.callCount())
	})
}
