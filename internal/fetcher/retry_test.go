package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/contextcli/context-cli/internal/types"
)

func fastRetryConfig(maxRetries int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxRetries = maxRetries
	cfg.BackoffBase = time.Millisecond
	return cfg
}

func TestRetrySucceedsAfterTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := RequestWithRetry(context.Background(), srv.Client(), http.MethodGet, srv.URL, fastRetryConfig(3))
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRetryFinalRetryableStatusReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	resp, err := RequestWithRetry(context.Background(), srv.Client(), http.MethodGet, srv.URL, fastRetryConfig(2))
	if err != nil {
		t.Fatalf("final retryable status must be returned, not raised: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestRetryNonRetryableStatusImmediate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := RequestWithRetry(context.Background(), srv.Client(), http.MethodGet, srv.URL, fastRetryConfig(3))
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	resp.Body.Close()

	if calls.Load() != 1 {
		t.Errorf("calls = %d, 404 must not be retried", calls.Load())
	}
}

func TestRetryNetworkErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	_, err := RequestWithRetry(context.Background(), &http.Client{Timeout: time.Second}, http.MethodGet, srv.URL, fastRetryConfig(1))
	if err == nil {
		t.Fatal("expected error for refused connection")
	}
	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("err = %T, want *types.FetchError", err)
	}
	if !fetchErr.IsRetryable() {
		t.Error("connection refused should be marked retryable")
	}
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	start := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := RequestWithRetry(context.Background(), srv.Client(), http.MethodGet, srv.URL, fastRetryConfig(2))
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	resp.Body.Close()

	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("elapsed = %s, Retry-After of 1s not honored", elapsed)
	}
}

func TestRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := RequestWithRetry(ctx, srv.Client(), http.MethodGet, srv.URL, fastRetryConfig(3))
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
