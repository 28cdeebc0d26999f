// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. The relay sets them; the login manager reads them
// when enriching audit events, without importing anything HTTP-shaped.
package requestcontext

import "context"

type (
	requestIDKey struct{}
	originKey    struct{}
	deviceKey    struct{}
)

// WithRequestID attaches the relay-assigned request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID, or "" when none was set.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// WithOrigin attaches the transport-level sender origin.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// Origin returns the sender origin, or "" when none was set.
func Origin(ctx context.Context) string {
	v, _ := ctx.Value(originKey{}).(string)
	return v
}

// WithDevice attaches a human-readable device summary ("Chrome 120 on Linux").
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceKey{}, device)
}

// Device returns the device summary, or "" when none was set.
func Device(ctx context.Context) string {
	v, _ := ctx.Value(deviceKey{}).(string)
	return v
}
