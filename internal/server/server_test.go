package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"gittogether/api/internal/config"
	"gittogether/api/internal/handlers"
)

func TestServerMountsRoutesWithMiddleware(t *testing.T) {
	cfg := &config.AppConfig{
		Environment:      "test",
		HTTP:             config.HTTPConfig{Host: "127.0.0.1", Port: 0},
		AllowCORSOrigins: []string{"http://localhost:5173"},
	}
	srv, err := NewHTTPServer(cfg, zerolog.Nop(), handlers.NewHandlerSet(zerolog.Nop(), cfg, handlers.Deps{}))
	if err != nil {
		t.Fatalf("NewHTTPServer: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("request id middleware not applied")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
}

func TestServerRejectsInvalidTrustedProxy(t *testing.T) {
	cfg := &config.AppConfig{
		Environment: "test",
		HTTP:        config.HTTPConfig{TrustedProxies: []string{"not-an-ip"}},
	}
	if _, err := NewHTTPServer(cfg, zerolog.Nop(), handlers.NewHandlerSet(zerolog.Nop(), cfg, handlers.Deps{})); err == nil {
		t.Fatal("expected an invalid proxy entry to fail")
	}
}
