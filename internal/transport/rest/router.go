package rest

import (
	"log/slog"
	"net/http"
)

// NewRouter assembles the REST route table. Middleware is layered on by
// the caller so tests can exercise routes without the full chain.
func NewRouter(
	logger *slog.Logger,
	studySvc studyService,
	catalogSvc catalogService,
	health *HealthHandler,
) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.HandleFunc("GET /health", health.Health)

	NewStudyHandler(studySvc, logger).Register(mux)
	NewCatalogHandler(catalogSvc, logger).Register(mux)

	return mux
}
