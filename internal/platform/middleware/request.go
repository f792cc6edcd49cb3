package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"agritrust/pkg/requestcontext"
)

// RequestMetadata stamps every request with a correlation ID and a
// request-scoped clock reading so derived timestamps within one request are
// consistent.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
