package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"autouploader/internal/retry"
)

func fastRetry() Option {
	return WithRetry(retry.Policy{Attempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Factor: 2})
}

func get(url string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDoJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	t.Cleanup(server.Close)

	client := New(time.Second, 0, fastRetry())
	var out struct{ ID int }
	if err := client.DoJSON(context.Background(), get(server.URL), &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.ID != 7 || calls.Load() != 3 {
		t.Fatalf("id=%d calls=%d", out.ID, calls.Load())
	}
}

func TestDoJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := New(time.Second, 0, fastRetry())
	err := client.DoJSON(context.Background(), get(server.URL+"/x?api_key=secret"), nil)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("error leaks query string: %v", err)
	}
}

func TestDoJSONDecodeErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`not json`))
	}))
	t.Cleanup(server.Close)

	var out map[string]any
	if err := New(time.Second, 0, fastRetry()).DoJSON(context.Background(), get(server.URL), &out); err == nil {
		t.Fatal("expected decode error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestStatusErrorTemporary(t *testing.T) {
	for code, want := range map[int]bool{400: false, 404: false, 408: true, 429: true, 500: true, 503: true} {
		if got := (&StatusError{StatusCode: code}).Temporary(); got != want {
			t.Errorf("Temporary(%d) = %v, want %v", code, got, want)
		}
	}
	if !NotFound(&StatusError{StatusCode: 404}) || NotFound(errors.New("x")) {
		t.Fatal("NotFound mismatch")
	}
}

func TestTransportErrorsAreTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(time.Second, 0, WithRetry(retry.Policy{Attempts: 2, InitialDelay: time.Millisecond}))
	err := client.DoJSON(context.Background(), get(url), nil)
	if err == nil || !retry.IsTemporary(err) {
		t.Fatalf("expected temporary transport error, got %v", err)
	}
}
