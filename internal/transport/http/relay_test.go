package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"guahh-connect/internal/handshake"
	"guahh-connect/internal/login/models"
	dErrors "guahh-connect/pkg/domain-errors"
	"guahh-connect/pkg/requestcontext"
	"guahh-connect/pkg/testutil"
)

type recordingReceiver struct {
	mu       sync.Mutex
	err      error
	messages []handshake.Message
	origins  []string
	devices  []string
}

func (r *recordingReceiver) Deliver(ctx context.Context, msg handshake.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	r.origins = append(r.origins, requestcontext.Origin(ctx))
	r.devices = append(r.devices, requestcontext.Device(ctx))
	return r.err
}

type RelaySuite struct {
	suite.Suite
	receiver *recordingReceiver
	router   http.Handler
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.receiver = &recordingReceiver{}
	s.router = NewRouter(NewHandler(s.receiver, logger), logger)
}

func (s *RelaySuite) postHandshake(body any, headers map[string]string) *http.Request {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/handshake", body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func (s *RelaySuite) TestHandshakeAccepted() {
	msg := handshake.Message{
		Type:    handshake.TypeAuthSuccess,
		User:    &models.UserRecord{UserID: "42", Username: "ada"},
		Service: models.ServiceDescriptor{Name: "Acme CRM"},
	}
	req := s.postHandshake(msg, map[string]string{
		"Origin":     "https://auth.guahh.com",
		"User-Agent": "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	})

	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
	testutil.AssertJSONContains(s.T(), rr, "status", "accepted")

	s.Require().Len(s.receiver.messages, 1)
	got := s.receiver.messages[0]
	s.Equal(handshake.TypeAuthSuccess, got.Type)
	s.Equal("42", got.User.UserID)
	s.Equal("Acme CRM", got.Service.Name)
	s.Equal("https://auth.guahh.com", got.Origin)

	s.Equal("https://auth.guahh.com", s.receiver.origins[0])
	s.Contains(s.receiver.devices[0], "Firefox")
}

func (s *RelaySuite) TestOriginComesFromTransportOnly() {
	// A body field named origin must not override the Origin header.
	body := map[string]any{
		"type":    handshake.TypeAuthSuccess,
		"user":    map[string]any{"userId": "42"},
		"service": map[string]any{"name": "Acme CRM"},
		"origin":  "https://evil.example",
	}
	req := s.postHandshake(body, map[string]string{"Origin": "https://auth.guahh.com"})

	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
	s.Require().Len(s.receiver.messages, 1)
	s.Equal("https://auth.guahh.com", s.receiver.messages[0].Origin)
}

func (s *RelaySuite) TestMissingOriginHeader() {
	msg := handshake.Message{Type: handshake.TypeAuthSuccess}
	rr := testutil.DoRequest(s.router, s.postHandshake(msg, nil))

	testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
	s.Require().Len(s.receiver.messages, 1)
	s.Empty(s.receiver.messages[0].Origin)
}

func (s *RelaySuite) TestInvalidBody() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/v1/handshake", "{not json")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	s.Empty(s.receiver.messages)
}

func (s *RelaySuite) TestDeliveryFailure() {
	s.receiver.err = dErrors.New(dErrors.CodeInternal, "persist session")

	msg := handshake.Message{Type: handshake.TypeAuthSuccess}
	rr := testutil.DoRequest(s.router, s.postHandshake(msg, nil))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
}

func (s *RelaySuite) TestDeliveryAfterShutdown() {
	s.receiver.err = dErrors.New(dErrors.CodeUnavailable, "session manager is closed")

	msg := handshake.Message{Type: handshake.TypeAuthSuccess}
	rr := testutil.DoRequest(s.router, s.postHandshake(msg, nil))

	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
}

func (s *RelaySuite) TestMethodNotAllowed() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/handshake")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusMethodNotAllowed)
}

func (s *RelaySuite) TestHealthz() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/healthz")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "ok")
}

func (s *RelaySuite) TestMetricsExposed() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/metrics")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
}

func (s *RelaySuite) TestRequestIDEchoed() {
	msg := handshake.Message{Type: "OTHER"}

	s.Run("generated when absent", func() {
		rr := testutil.DoRequest(s.router, s.postHandshake(msg, nil))
		s.NotEmpty(rr.Header().Get("X-Request-Id"))
	})

	s.Run("honored when supplied", func() {
		rr := testutil.DoRequest(s.router, s.postHandshake(msg, map[string]string{
			"X-Request-Id": "req-123",
		}))
		s.Equal("req-123", rr.Header().Get("X-Request-Id"))
	})
}
