package testutil

import (
	"net/http"
	"time"

	"clubreg/pkg/requestcontext"
)

// WithRequestID adds a request ID to the request context, simulating what
// the request middleware does in production.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock, so tests can assert on
// timestamps deterministically.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}
