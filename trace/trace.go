// Package trace carries the request correlation ID and W3C trace context
// from a caller's context onto outgoing API requests.
package trace

import (
	"context"
	nethttp "net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"

	// HeaderRequestID is the correlation header the dashboard API echoes back.
	HeaderRequestID = "X-Request-Id"
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = "traceparent"
)

var propagator = propagation.NewCompositeTextMapPropagator(
	propagation.TraceContext{},
	propagation.Baggage{},
)

// WithRequestID stores a request ID on the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID stored on ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureRequestID returns ctx carrying a request ID, generating a UUID when
// none is present. All attempts of one logical call share the returned ID.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id, ok := RequestIDFromContext(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}

// Inject writes the request ID and the active span context into h. An
// explicit X-Request-Id already present on h wins.
func Inject(ctx context.Context, h nethttp.Header) {
	if h.Get(HeaderRequestID) == "" {
		if id, ok := RequestIDFromContext(ctx); ok {
			h.Set(HeaderRequestID, id)
		}
	}
	propagator.Inject(ctx, propagation.HeaderCarrier(h))
}
