package rest

import (
	"context"
	"net/http"
	"time"
)

// storePinger is the slice of the connection pool the health endpoints need.
type storePinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 3 * time.Second

// HealthHandler answers the liveness, readiness and full health endpoints.
// Live never touches the store; Ready and Health do.
type HealthHandler struct {
	store   storePinger
	version string
}

func NewHealthHandler(store storePinger, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version}
}

type healthReport struct {
	Status    string       `json:"status"`
	Version   string       `json:"version,omitempty"`
	Database  *storeHealth `json:"database,omitempty"`
	CheckedAt time.Time    `json:"checkedAt"`
}

type storeHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Live reports that the process is up. Always 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthReport{Status: "ok", CheckedAt: time.Now()})
}

// Ready reports whether the service can take traffic: the store must
// answer a ping within the timeout.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.pingStore(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthReport{Status: "down", CheckedAt: time.Now()})
		return
	}
	writeJSON(w, http.StatusOK, healthReport{Status: "ok", CheckedAt: time.Now()})
}

// Health is the full report: build version plus store status and latency.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	report := healthReport{Status: "ok", Version: h.version, CheckedAt: time.Now()}

	latency, err := h.pingStore(r.Context())
	if err != nil {
		report.Status = "down"
		report.Database = &storeHealth{Status: "down"}
		writeJSON(w, http.StatusServiceUnavailable, report)
		return
	}

	report.Database = &storeHealth{Status: "ok", Latency: latency.String()}
	writeJSON(w, http.StatusOK, report)
}

func (h *HealthHandler) pingStore(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	if err := h.store.Ping(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
