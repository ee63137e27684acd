// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the values; services only read them. Keeping this package
// free of net/http lets engine services stay transport-agnostic.
//
// Usage in services (read values):
//
//	officer, ok := requestcontext.Officer(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithOfficer(ctx, officer)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject a fixed clock):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"altanbank/pkg/domain"
)

type (
	officerKey        struct{}
	requestIDKey      struct{}
	requestTimeKey    struct{}
	idempotencyKeyKey struct{}
)

// WithOfficer stores the pre-resolved caller identity.
func WithOfficer(ctx context.Context, officer domain.Officer) context.Context {
	return context.WithValue(ctx, officerKey{}, officer)
}

// Officer returns the caller identity set by the auth middleware.
func Officer(ctx context.Context) (domain.Officer, bool) {
	officer, ok := ctx.Value(officerKey{}).(domain.Officer)
	return officer, ok
}

// WithRequestID stores the correlation id for the request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation id, or an empty string.
func RequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

// WithTime pins the request clock. Tests use this to make daily-window and
// effective-dating behavior deterministic.
func WithTime(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, now)
}

// Now returns the pinned request time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if now, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return now
	}
	return time.Now().UTC()
}

// WithIdempotencyKey stores the caller-supplied idempotency key, if any.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, idempotencyKeyKey{}, key)
}

// IdempotencyKey returns the caller-supplied key, or an empty string.
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyKey{}).(string)
	return key
}
