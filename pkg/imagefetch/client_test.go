package imagefetch

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"qrmaster/internal/config"
	"qrmaster/internal/errors"
)

func newTestClient(maxBytes int64) *Client {
	return newTestClientWithTTL(maxBytes, time.Minute)
}

func newTestClientWithTTL(maxBytes int64, ttl time.Duration) *Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewClient(config.FetchConfig{
		Timeout:    5 * time.Second,
		RetryCount: 0,
		MaxBytes:   maxBytes,
		CacheTTL:   ttl,
	}, logger)
}

func TestFetch(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("png bytes"))
		case "/big.png":
			w.Write(bytes.Repeat([]byte("x"), 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(32)
	ctx := context.Background()

	data, err := client.Fetch(ctx, server.URL+"/ok.png")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "png bytes" {
		t.Errorf("body = %q", data)
	}

	// Second fetch is served from the cache
	if _, err := client.Fetch(ctx, server.URL+"/ok.png"); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}

	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{"not found", server.URL + "/missing.png", http.StatusNotFound},
		{"too large", server.URL + "/big.png", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Fetch(ctx, tt.url)
			var fetchErr *errors.FetchError
			if !stderrors.As(err, &fetchErr) {
				t.Fatalf("Fetch() error = %v, want FetchError", err)
			}
			if fetchErr.Status != tt.wantStatus {
				t.Errorf("status = %d, want %d", fetchErr.Status, tt.wantStatus)
			}
		})
	}
}

func TestFetchWithoutCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("png bytes"))
	}))
	defer server.Close()

	client := newTestClientWithTTL(32, 0)
	for i := 0; i < 3; i++ {
		if _, err := client.Fetch(context.Background(), server.URL+"/ok.png"); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}
	if hits.Load() != 3 {
		t.Errorf("server hits = %d, want 3 with caching off", hits.Load())
	}
}

func TestFetchRejectsNonHTTPURLs(t *testing.T) {
	client := newTestClient(1024)

	for _, raw := range []string{"ftp://example.com/a.png", "/a.png", "", "https://"} {
		_, err := client.Fetch(context.Background(), raw)
		var inputErr *errors.InputError
		if !stderrors.As(err, &inputErr) {
			t.Errorf("Fetch(%q) error = %v, want InputError", raw, err)
		}
	}
}
