package testutil

import (
	"context"

	"guahh-connect/pkg/requestcontext"
)

// DeliveryContext builds a context carrying the transport values the relay
// stamps before handing a handshake to its receiver. Tests that drive a
// receiver directly use it to stand in for a browser post.
func DeliveryContext(ctx context.Context, origin, device string) context.Context {
	if origin != "" {
		ctx = requestcontext.WithOrigin(ctx, origin)
	}
	if device != "" {
		ctx = requestcontext.WithDevice(ctx, device)
	}
	return ctx
}
