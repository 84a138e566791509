package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gittogether/api/internal/config"
)

type captured struct {
	apiKey string
	path   string
	body   message
}

func newServer(t *testing.T, status int, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.apiKey = r.Header.Get("api-key")
		got.path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got.body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"messageId":"<abc@smtp-relay>"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) config.EmailConfig {
	return config.EmailConfig{
		APIKey:            "key-123",
		BaseURL:           baseURL + "/",
		Sender:            "no-reply@gittogether.xyz",
		SenderName:        "GitTogether",
		ReplyTo:           "no-reply@gittogether.xyz",
		AdminAddress:      "admin@gittogether.xyz",
		PendingTemplateID: 1,
	}
}

func TestSendPendingRequestEmail(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusCreated, &got)

	id, err := NewClient(testConfig(srv.URL)).SendPendingRequestEmail(context.Background(), "bob@example.com", "Bob")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "<abc@smtp-relay>" {
		t.Fatalf("message id = %q", id)
	}
	if got.apiKey != "key-123" || got.path != "/smtp/email" {
		t.Fatalf("unexpected request: key=%q path=%q", got.apiKey, got.path)
	}
	if got.body.TemplateID != 1 || got.body.Params["firstName"] != "Bob" || got.body.To[0].Email != "bob@example.com" {
		t.Fatalf("unexpected body: %+v", got.body)
	}
}

func TestSendContactEmail(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusCreated, &got)

	_, err := NewClient(testConfig(srv.URL)).SendContactEmail(context.Background(), ContactMessage{
		FromName:  "Alice Tester",
		FromEmail: "alice@example.com",
		Subject:   "Feature request",
		Body:      "Please add group chats.",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.body.To[0].Email != "admin@gittogether.xyz" || got.body.ReplyTo.Email != "alice@example.com" {
		t.Fatalf("unexpected routing: %+v", got.body)
	}
	if !strings.Contains(got.body.TextContent, "Please add group chats.") || got.body.Subject != "[Contact] Feature request" {
		t.Fatalf("unexpected content: %+v", got.body)
	}
}

func TestSendErrors(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusBadRequest, &got)

	_, err := NewClient(testConfig(srv.URL)).SendPendingRequestEmail(context.Background(), "bob@example.com", "Bob")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected API error, got %v", err)
	}

	cfg := testConfig(srv.URL)
	cfg.APIKey = ""
	_, err = NewClient(cfg).SendPendingRequestEmail(context.Background(), "bob@example.com", "Bob")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
