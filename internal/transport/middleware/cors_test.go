package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/config"
)

func corsConfig(origins string, credentials bool) config.CORSConfig {
	return config.CORSConfig{
		AllowedOrigins:   origins,
		AllowedMethods:   "GET,POST,DELETE,OPTIONS",
		AllowedHeaders:   "Authorization,Content-Type",
		AllowCredentials: credentials,
		MaxAge:           3600,
	}
}

func TestCORS_OriginMatching(t *testing.T) {
	tests := []struct {
		name      string
		origins   string
		origin    string
		wantAllow string
	}{
		{"exact match", "https://loklernen.app", "https://loklernen.app", "https://loklernen.app"},
		{"second entry", "https://loklernen.app, https://staging.loklernen.app", "https://staging.loklernen.app", "https://staging.loklernen.app"},
		{"unknown origin", "https://loklernen.app", "https://evil.example", ""},
		{"wildcard echoes origin", "*", "https://anywhere.example", "https://anywhere.example"},
		{"no origin header", "https://loklernen.app", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			served := false
			handler := CORS(corsConfig(tt.origins, false))(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					served = true
					w.WriteHeader(http.StatusOK)
				}),
			)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/questions", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if !served {
				t.Fatal("handler not reached on a plain request")
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if got := rec.Header().Get("Vary"); got != "Origin" {
				t.Errorf("Vary = %q, want Origin", got)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(corsConfig("https://loklernen.app", true))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("preflight must not reach the handler")
		}),
	)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/study/sessions", nil)
	req.Header.Set("Origin", "https://loklernen.app")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %d, want %d", rec.Code, http.StatusNoContent)
	}
	headers := map[string]string{
		"Access-Control-Allow-Origin":      "https://loklernen.app",
		"Access-Control-Allow-Credentials": "true",
		"Access-Control-Allow-Methods":     "GET,POST,DELETE,OPTIONS",
		"Access-Control-Allow-Headers":     "Authorization,Content-Type",
		"Access-Control-Max-Age":           "3600",
	}
	for name, want := range headers {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestCORS_CredentialsNotSetWhenDisabled(t *testing.T) {
	handler := CORS(corsConfig("*", false))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/questions", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Allow-Credentials = %q, want unset", got)
	}
}
