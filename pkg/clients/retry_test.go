package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoWithRetry_EventualSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	cfg := HTTPExecutorConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
	resp, err := DoWithRetry(context.Background(), server.Client(), req, NewHTTPExecutor(cfg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestDoWithRetry_BodyResentEachAttempt(t *testing.T) {
	var calls int32
	var lastBody atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		lastBody.Store(string(body))
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodPost, server.URL, strings.NewReader(`{"q":"news"}`))
	cfg := HTTPExecutorConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
	resp, err := DoWithRetry(context.Background(), server.Client(), req, NewHTTPExecutor(cfg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if got := lastBody.Load().(string); got != `{"q":"news"}` {
		t.Fatalf("body not resent on retry, got %q", got)
	}
}

func TestDoWithRetry_NonRetryableStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := DoWithRetry(context.Background(), server.Client(), req, NewHTTPExecutor(DefaultHTTPExecutorConfig()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("404 should not be retried, got %d attempts", got)
	}
}

func TestDoWithRetry_SharedExecutorTripsBreaker(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	executor := NewHTTPExecutor(HTTPExecutorConfig{
		MaxRetries:     0,
		BaseDelay:      time.Millisecond,
		MaxDelay:       time.Millisecond,
		CircuitBreaker: NewCircuitBreaker(CircuitBreakerConfig{Name: "shared"}),
	})

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	for i := 0; i < 5; i++ {
		resp, err := DoWithRetry(context.Background(), server.Client(), req, executor)
		if err == nil {
			resp.Body.Close()
		}
	}

	before := atomic.LoadInt32(&calls)
	if _, err := DoWithRetry(context.Background(), server.Client(), req, executor); err == nil {
		t.Fatalf("expected open breaker to reject the call")
	}
	if got := atomic.LoadInt32(&calls); got != before {
		t.Fatalf("open breaker should not reach the server: %d calls before, %d after", before, got)
	}
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "test",
		MinRequests:  2,
		FailureRatio: 0.5,
		Timeout:      time.Minute,
	})

	fail := func() error { return io.ErrUnexpectedEOF }
	for i := 0; i < 3; i++ {
		_ = cb.Call(fail)
	}
	if !cb.IsOpen() {
		t.Fatalf("expected circuit breaker to be open, state=%s", cb.State())
	}
	if err := cb.Call(func() error { return nil }); err == nil {
		t.Fatalf("expected call to be rejected while open")
	}
}
