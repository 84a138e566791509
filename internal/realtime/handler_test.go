package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"gittogether/api/internal/config"
	"gittogether/api/internal/models"
	"gittogether/api/internal/response"
	"gittogether/api/internal/security"
	"gittogether/api/internal/service"
)

type tokenAuth map[string]models.User

func (a tokenAuth) Authenticate(_ context.Context, token string) (models.User, error) {
	switch token {
	case "":
		return models.User{}, service.ErrUnauthorized
	case "deleted":
		return models.User{}, service.ErrSessionUserNotFound
	}
	u, ok := a[token]
	if !ok {
		return models.User{}, service.ErrInvalidSession
	}
	return u, nil
}

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func testServer(t *testing.T, f *gatewayFixture) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := tokenAuth{"alice": f.alice, "bob": f.bob}
	h := NewHandler(auth, f.gw, config.RealtimeConfig{SendBuffer: 16, WriteTimeout: time.Second}, nil, zerolog.Nop())

	r := gin.New()
	r.GET("/ws", h.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHandshakeRefusals(t *testing.T) {
	f := newGatewayFixture(t)
	gin.SetMode(gin.TestMode)
	h := NewHandler(tokenAuth{"alice": f.alice}, f.gw, config.RealtimeConfig{}, []string{"http://localhost:5173"}, zerolog.Nop())
	r := gin.New()
	r.GET("/ws", h.Serve)

	tests := []struct {
		cookie string
		want   string
	}{
		{"", service.CodeUnauthorized},
		{"garbage", service.CodeInvalidSession},
		{"deleted", service.CodeUserNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.cookie != "" {
			req.AddCookie(&http.Cookie{Name: security.SessionCookie, Value: tt.cookie})
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("cookie %q: status = %d", tt.cookie, rec.Code)
		}
		var body response.Body
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Success || body.Message != tt.want {
			t.Fatalf("cookie %q: body = %+v, want message %s", tt.cookie, body, tt.want)
		}
	}
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Cookie", security.SessionCookie+"="+token)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		t.Fatalf("dial as %s: %v", token, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, data any) {
	t.Helper()
	if err := wsjson.Write(ctx, conn, map[string]any{"event": event, "data": data}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) wireFrame {
	t.Helper()
	var f wireFrame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		t.Fatalf("read: %v", err)
	}
	return f
}

// roundTrip sends an unknown event and waits for its error, so every earlier
// frame from conn has been processed.
func roundTrip(t *testing.T, ctx context.Context, conn *websocket.Conn) {
	t.Helper()
	send(t, ctx, conn, "ping", map[string]string{})
	if f := read(t, ctx, conn); f.Event != EventAppError {
		t.Fatalf("sync got %s", f.Event)
	}
}

func TestWebsocketChatRoundTrip(t *testing.T) {
	f := newGatewayFixture(t)
	srv := testServer(t, f)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dial(t, ctx, srv, "alice")
	bob := dial(t, ctx, srv, "bob")

	for _, conn := range []*websocket.Conn{alice, bob} {
		send(t, ctx, conn, EventJoinChat, map[string]string{"chatId": f.chat.ID})
		roundTrip(t, ctx, conn)
	}

	send(t, ctx, alice, EventSendMessage, map[string]string{"chatId": f.chat.ID, "text": "hi over the wire"})

	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		got := read(t, ctx, conn)
		if got.Event != EventMessageReceived {
			t.Fatalf("%s got %s: %s", name, got.Event, got.Data)
		}
		var m MessageReceived
		if err := json.Unmarshal(got.Data, &m); err != nil {
			t.Fatal(err)
		}
		if m.Text != "hi over the wire" || m.SenderUserID != f.alice.ID || m.LastName != "Tester" {
			t.Fatalf("%s got %+v", name, m)
		}
	}
}

func TestWebsocketErrorsKeepConnectionOpen(t *testing.T) {
	f := newGatewayFixture(t)
	srv := testServer(t, f)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dial(t, ctx, srv, "alice")
	if err := alice.Write(ctx, websocket.MessageText, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	got := read(t, ctx, alice)
	var ae AppError
	if err := json.Unmarshal(got.Data, &ae); err != nil {
		t.Fatal(err)
	}
	if got.Event != EventAppError || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("got %s %+v", got.Event, ae)
	}

	send(t, ctx, alice, "bogus", map[string]string{})
	if got := read(t, ctx, alice); got.Event != EventAppError {
		t.Fatalf("unknown event got %s", got.Event)
	}

	send(t, ctx, alice, EventJoinChat, map[string]string{"chatId": f.chat.ID})
	send(t, ctx, alice, EventSendMessage, map[string]string{"chatId": f.chat.ID, "text": "still here"})
	if got := read(t, ctx, alice); got.Event != EventMessageReceived {
		t.Fatalf("after errors got %s: %s", got.Event, got.Data)
	}
}

func TestWebsocketAcceptsEscapedMaxLengthMessage(t *testing.T) {
	f := newGatewayFixture(t)
	srv := testServer(t, f)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dial(t, ctx, srv, "alice")
	send(t, ctx, alice, EventJoinChat, map[string]string{"chatId": f.chat.ID})
	roundTrip(t, ctx, alice)

	escaped := strings.Repeat(`\ud83d\ude00`, models.MaxMessageLength)
	frame := `{"event":"` + EventSendMessage + `","data":{"chatId":"` + f.chat.ID + `","text":"` + escaped + `"}}`
	if err := alice.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		t.Fatal(err)
	}

	got := read(t, ctx, alice)
	if got.Event != EventMessageReceived {
		t.Fatalf("got %s: %.200s", got.Event, got.Data)
	}
	var m MessageReceived
	if err := json.Unmarshal(got.Data, &m); err != nil {
		t.Fatal(err)
	}
	if m.Text != strings.Repeat("\U0001F600", models.MaxMessageLength) {
		t.Fatalf("text has %d bytes, want %d emoji", len(m.Text), models.MaxMessageLength)
	}
}
