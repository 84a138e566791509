package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gittogether/api/internal/apperr"
	"gittogether/api/internal/models"
	"gittogether/api/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, token string) (models.User, error) {
	switch token {
	case "":
		return models.User{}, apperr.New(apperr.KindAuthentication, "UNAUTHORIZED", "Please login")
	case "good":
		return models.User{ID: "u1", FirstName: "Ada"}, nil
	default:
		return models.User{}, apperr.New(apperr.KindAuthentication, "INVALID_SESSION", "Session is invalid or expired")
	}
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/me", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.String(http.StatusTeapot, "no user")
			return
		}
		c.String(http.StatusOK, user.ID)
	})
	return r
}

func TestAuth(t *testing.T) {
	r := newRouter(Auth(stubAuth{}, zerolog.Nop()))

	tests := []struct {
		name   string
		cookie string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"invalid", "bad", http.StatusUnauthorized},
		{"valid", "good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: security.SessionCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCORS(t *testing.T) {
	r := newRouter(CORS([]string{"http://localhost:5173"}))

	req := httptest.NewRequest(http.MethodOptions, "/me", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("preflight: status=%d headers=%v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin must not be allowed")
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(requestIDHeader, "injected\nvalue")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	got := rec.Header().Get(requestIDHeader)
	if got == "" || got == "injected\nvalue" {
		t.Fatalf("expected a fresh request id, got %q", got)
	}

	const id = "0b7e1c5e-8f7a-4c1e-9d85-2f4c3a1b6d90"
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(requestIDHeader, id)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) != id {
		t.Fatalf("expected id to propagate, got %q", rec.Header().Get(requestIDHeader))
	}
}

func TestRateLimit(t *testing.T) {
	r := newRouter(RateLimit(0.001, 2, zerolog.Nop()))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] == http.StatusTooManyRequests || codes[1] == http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}
