// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// The auth middleware resolves the caller into an (actor DID, actor type)
// pair and injects it here; services read the pair without depending on
// net/http. The request-scoped clock lets tests and batch jobs pin time.
//
// Usage in services (read values):
//
//	actor := requestcontext.ActorDID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithActor(ctx, did, actorType)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	actorDIDKey    struct{}
	actorTypeKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// ActorDID retrieves the authenticated actor's DID from the context.
// Returns "" if not set.
func ActorDID(ctx context.Context) string {
	if did, ok := ctx.Value(actorDIDKey{}).(string); ok {
		return did
	}
	return ""
}

// ActorType retrieves the authenticated actor's stakeholder type ("farmer",
// "auditor", ...) from the context. Returns "" if not set.
func ActorType(ctx context.Context) string {
	if t, ok := ctx.Value(actorTypeKey{}).(string); ok {
		return t
	}
	return ""
}

// WithActor injects the resolved (actor DID, actor type) pair into the
// context. The core trusts this pair verbatim.
func WithActor(ctx context.Context, did, actorType string) context.Context {
	ctx = context.WithValue(ctx, actorDIDKey{}, did)
	return context.WithValue(ctx, actorTypeKey{}, actorType)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, CLI, tests that
// don't care about the clock).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that assert on derived timestamps, and for workers that need a
// consistent clock within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
