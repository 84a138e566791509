package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"gittogether/api/internal/config"
)

func newTestStore(t *testing.T, endpoint string) *ObjectStore {
	t.Helper()
	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:   endpoint,
		AccessKey:  "access",
		SecretKey:  "secret",
		Bucket:     "profiles",
		Region:     "us-east-1",
		PresignTTL: 2 * time.Minute,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestPresignGet(t *testing.T) {
	store := newTestStore(t, "http://localhost:9000")

	raw, err := store.PresignGet(context.Background(), "users/u1/photo.png")
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Scheme != "http" || u.Host != "localhost:9000" {
		t.Fatalf("unexpected url %s", raw)
	}
	if !strings.HasSuffix(u.Path, "/profiles/users/u1/photo.png") {
		t.Fatalf("unexpected path %s", u.Path)
	}
	if u.Query().Get("X-Amz-Expires") != "120" {
		t.Fatalf("expected 120s expiry, got %s", u.Query().Get("X-Amz-Expires"))
	}
}

func TestPresignGetEmptyKey(t *testing.T) {
	store := newTestStore(t, "localhost:9000")
	if _, err := store.PresignGet(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestNewObjectStoreHTTPS(t *testing.T) {
	store := newTestStore(t, "https://s3.example.com")
	raw, err := store.PresignGet(context.Background(), "a.png")
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(raw, "https://s3.example.com/") {
		t.Fatalf("expected https endpoint, got %s", raw)
	}
}

func TestImageContentType(t *testing.T) {
	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 32)...)
	objects := map[string][]byte{
		"/profiles/users/u1.png": png,
		"/profiles/users/u1.txt": []byte("hello, not an image"),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("ETag", `"etag"`)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	ctx := context.Background()

	mime, exists, err := store.ImageContentType(ctx, "users/u1.png")
	if err != nil || !exists || mime != "image/png" {
		t.Fatalf("png: %q %v %v", mime, exists, err)
	}
	mime, exists, err = store.ImageContentType(ctx, "users/u1.txt")
	if err != nil || !exists || mime != "" {
		t.Fatalf("text: %q %v %v", mime, exists, err)
	}
	_, exists, err = store.ImageContentType(ctx, "users/missing.png")
	if err != nil || exists {
		t.Fatalf("missing: %v %v", exists, err)
	}
}
