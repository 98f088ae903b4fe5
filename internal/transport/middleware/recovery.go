package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/pkg/ctxutil"
)

// Recovery turns a panicking handler into a 500 response and logs the
// panic value with its stack and the request id. http.ErrAbortHandler
// passes through untouched; the server handles it itself.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
