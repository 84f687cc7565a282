package forwarder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rthmn/signal-engine/pkg/models"
)

func TestForwardPostsSignalWithBearerToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/signals/raw" {
			t.Errorf("expected path /signals/raw, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token-123" {
			t.Errorf("expected bearer token header, got %s", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	f := New(ts.URL, "token-123")
	if err := f.Forward(context.Background(), models.Signal{ID: 1, Pair: "EURUSD"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestForwardReturnsErrorOnNon2xxWithoutRetrying(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	f := New(ts.URL, "token-123")
	if err := f.Forward(context.Background(), models.Signal{ID: 2, Pair: "EURUSD"}); err == nil {
		t.Fatalf("expected an error for a non-2xx downstream response")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one attempt (RetryMax=0), got %d", calls)
	}
}

func TestForwardAndLogNeverPanicsOnFailure(t *testing.T) {
	f := New("http://127.0.0.1:0", "token-123")
	ForwardAndLog(context.Background(), f, models.Signal{ID: 3, Pair: "EURUSD"})
}
