// Package httptransport exposes the loopback relay the Guahh auth page posts
// its handshake result back through. It stands in for the window.opener
// channel a browser provides: the page POSTs the same message it would have
// posted cross-window, and the relay hands it to the handshake receiver.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"guahh-connect/internal/device"
	"guahh-connect/internal/handshake"
	"guahh-connect/internal/transport/http/shared"
	dErrors "guahh-connect/pkg/domain-errors"
	"guahh-connect/pkg/requestcontext"
)

// Receiver runs one inbound message through the handshake checks.
type Receiver interface {
	Deliver(ctx context.Context, msg handshake.Message) error
}

// Handler is the thin HTTP layer over the handshake receiver. It makes no
// acceptance decisions itself; it only lifts transport details, the Origin
// header and the user agent, into the message and context.
type Handler struct {
	receiver Receiver
	logger   *slog.Logger
}

// NewHandler creates the relay handler.
func NewHandler(receiver Receiver, logger *slog.Logger) *Handler {
	return &Handler{
		receiver: receiver,
		logger:   logger,
	}
}

// Register mounts the relay routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/handshake", h.handleHandshake)
}

func (h *Handler) handleHandshake(w http.ResponseWriter, r *http.Request) {
	tracer := otel.Tracer("guahh-connect/internal/transport/http")
	ctx, span := tracer.Start(r.Context(), "handshake.deliver")
	defer span.End()

	requestID := requestcontext.RequestID(ctx)

	var msg handshake.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.logger.WarnContext(ctx, "invalid handshake payload",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	// The sender origin comes from the transport, never from the body.
	msg.Origin = r.Header.Get("Origin")
	span.SetAttributes(
		attribute.String("handshake.origin", msg.Origin),
		attribute.String("handshake.service", msg.Service.Name),
	)

	ctx = requestcontext.WithOrigin(ctx, msg.Origin)
	ctx = requestcontext.WithDevice(ctx, device.ParseUserAgent(r.UserAgent()))

	if err := h.receiver.Deliver(ctx, msg); err != nil {
		h.logger.ErrorContext(ctx, "handshake delivery failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	// Accepted covers both persisted logins and silently dropped messages so
	// the poster cannot probe which messages pass the filters.
	shared.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
