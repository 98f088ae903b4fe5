package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Limit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hitFrom(handler http.Handler, addr string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/study/sessions", nil)
	req.RemoteAddr = addr
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_ExhaustsAndRefills(t *testing.T) {
	rl := NewRateLimiter(6, time.Hour)
	defer rl.Stop()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	handler := limitedHandler(rl)

	for i := 0; i < 6; i++ {
		if rec := hitFrom(handler, "10.0.0.1:40001"); rec.Code != http.StatusOK {
			t.Fatalf("request %d code = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}

	rec := hitFrom(handler, "10.0.0.1:40001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("exhausted client code = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// 6 per minute refills one token every 10 seconds.
	now = now.Add(10 * time.Second)
	if rec := hitFrom(handler, "10.0.0.1:40001"); rec.Code != http.StatusOK {
		t.Errorf("code after refill = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	defer rl.Stop()

	handler := limitedHandler(rl)

	hitFrom(handler, "10.0.0.1:40001")
	hitFrom(handler, "10.0.0.1:40001")
	if rec := hitFrom(handler, "10.0.0.1:40001"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("exhausted client code = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	if rec := hitFrom(handler, "10.0.0.2:40001"); rec.Code != http.StatusOK {
		t.Errorf("other client code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRateLimiter_BucketIgnoresClientPort(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	defer rl.Stop()

	handler := limitedHandler(rl)

	// Each request arrives on a fresh connection, so the port differs.
	hitFrom(handler, "10.0.0.9:40001")
	hitFrom(handler, "10.0.0.9:40002")
	if rec := hitFrom(handler, "10.0.0.9:40003"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("code = %d, want %d despite changing ports", rec.Code, http.StatusTooManyRequests)
	}
}
