package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/pkg/ctxutil"
)

type accessValidator interface {
	ValidateAccessToken(token string) (uuid.UUID, error)
}

// Auth resolves the learner identity from a Bearer token. Requests without
// a token pass through as guests; only a present but invalid token is
// rejected, so guest study flows never require credentials.
func Auth(validator accessValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r) // guest
				return
			}
			learnerID, err := validator.ValidateAccessToken(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := ctxutil.WithLearnerID(r.Context(), learnerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
