// Package request assigns every incoming request a stable identifier so log
// lines, audit events, and error responses can be correlated.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"clubreg/pkg/requestcontext"
)

// HeaderName is the header the identifier is read from and echoed back on.
const HeaderName = "X-Request-ID"

// Middleware propagates the client's request ID, or generates one when the
// client did not send any.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderName)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(HeaderName, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
