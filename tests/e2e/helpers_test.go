//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres"
	memoryrepo "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres/memory"
	questionrepo "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres/question"
	reviewlogrepo "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres/reviewlog"
	sessionrepo "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres/session"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres/testhelper"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/auth"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/config"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/service/catalog"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/service/study"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/service/study/leitner"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/transport/middleware"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/transport/rest"
)

const testJWTSecret = "e2e-test-secret-with-at-least-32-chars!"

// testStack is the fully wired application served over an in-process handler.
type testStack struct {
	pool    *pgxpool.Pool
	handler http.Handler
	jwt     *auth.JWTManager
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	questions := questionrepo.New(pool)
	records := memoryrepo.New(pool)
	reviews := reviewlogrepo.New(pool)
	sessions := sessionrepo.New(pool)
	txManager := postgres.NewTxManager(pool)

	jwtManager := auth.NewJWTManager(testJWTSecret, "loklernen", time.Hour)
	entitlement := auth.NewEntitlement(nil)

	catalogSvc := catalog.NewService(logger, questions, entitlement)
	studySvc := study.NewService(
		logger,
		catalogSvc,
		records,
		reviews,
		sessions,
		txManager,
		study.SystemClock{},
		leitner.DefaultConfig(),
		10,
	)

	health := rest.NewHealthHandler(pool, "e2e")
	router := rest.NewRouter(logger, studySvc, catalogSvc, health)

	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.CORS(config.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET,POST,DELETE,OPTIONS", AllowedHeaders: "Authorization,Content-Type"}),
		middleware.Auth(jwtManager),
	)(router)

	return &testStack{pool: pool, handler: handler, jwt: jwtManager}
}

// token mints an access token for the given learner.
func (s *testStack) token(t *testing.T, learnerID uuid.UUID) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(learnerID)
	require.NoError(t, err)
	return tok
}

// do sends a JSON request through the full middleware chain and decodes
// the response body into out (when out is non-nil).
func (s *testStack) do(t *testing.T, method, path, token string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out),
			"decode response for %s %s: %s", method, path, rec.Body.String())
	}
	return rec
}

// seedBatch inserts n fresh signal questions in one sub-category and
// returns the sub-category name so tests can filter to their own data.
func seedBatch(t *testing.T, pool *pgxpool.Pool, n int) string {
	t.Helper()
	sub := "Hauptsignale-" + uuid.NewString()[:8]
	for i := 0; i < n; i++ {
		testhelper.SeedQuestion(t, pool, "SIGNAL", sub)
	}
	return sub
}
