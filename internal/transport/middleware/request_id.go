package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/pkg/ctxutil"
)

// RequestIDHeader is the HTTP header used to propagate request IDs.
const RequestIDHeader = "X-Request-Id"

// RequestID returns middleware that attaches a request ID to the context
// and echoes it back in the response. An incoming header value is reused
// so IDs stay stable across proxies.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}
			ctx := ctxutil.WithRequestID(r.Context(), id)
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
