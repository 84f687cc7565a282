package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rthmn/signal-engine/internal/dedup"
	"github.com/rthmn/signal-engine/internal/forwarder"
	"github.com/rthmn/signal-engine/internal/instruments"
	"github.com/rthmn/signal-engine/internal/patterns"
	"github.com/rthmn/signal-engine/internal/scanner"
	"github.com/rthmn/signal-engine/internal/store"
	"github.com/rthmn/signal-engine/internal/tracker"
	"github.com/rthmn/signal-engine/pkg/models"
)

func testGraph() *patterns.Graph {
	return &patterns.Graph{
		StartingPoints: []int32{20},
		Boxes: map[int32][][]int32{
			20: {{10}},
		},
	}
}

func buildPipeline(t *testing.T) (*Pipeline, *int32, *int32) {
	t.Helper()

	var insertCount, forwardCount int32
	var mu sync.Mutex

	storeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			mu.Lock()
			insertCount++
			mu.Unlock()
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]map[string]int64{{"id": 1}})
	}))
	t.Cleanup(storeServer.Close)

	forwardServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		forwardCount++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(forwardServer.Close)

	graph := testGraph()
	paths := scanner.EnumerateTraversals(graph)
	detector := scanner.NewDetector(graph, paths, instruments.NewCache())
	deduplicator := dedup.New()
	storeClient := store.New(storeServer.URL, "test-key", 0)
	tr := tracker.New(storeClient, tracker.SystemClock{})
	fwd := forwarder.New(forwardServer.URL, "test-key")

	return &Pipeline{
		Detector:     detector,
		Deduplicator: deduplicator,
		Tracker:      tr,
		Forwarder:    fwd,
	}, &insertCount, &forwardCount
}

func TestProcessEmitsSignalOnFirstMatch(t *testing.T) {
	p, insertCount, forwardCount := buildPipeline(t)

	update := BoxUpdate{
		Pair:  "AAPL",
		Price: 100,
		Boxes: []models.Box{
			{High: 0.21, Low: 0.19, Value: 0.20},
			{High: 0.11, Low: 0.09, Value: 0.10},
		},
	}

	p.Process(context.Background(), update)

	if *insertCount != 1 {
		t.Fatalf("expected exactly one store insert, got %d", *insertCount)
	}
	if *forwardCount != 1 {
		t.Fatalf("expected exactly one downstream forward, got %d", *forwardCount)
	}
	if activeCount := p.Tracker.GetActiveCount(); activeCount != 1 {
		t.Fatalf("expected one active signal registered, got %d", activeCount)
	}
}

func TestProcessSuppressesRepeatedIdenticalDetection(t *testing.T) {
	p, insertCount, _ := buildPipeline(t)

	update := BoxUpdate{
		Pair:  "AAPL",
		Price: 100,
		Boxes: []models.Box{
			{High: 0.21, Low: 0.19, Value: 0.20},
			{High: 0.11, Low: 0.09, Value: 0.10},
		},
	}

	p.Process(context.Background(), update)
	p.Process(context.Background(), update)

	if *insertCount != 1 {
		t.Fatalf("expected the dedup stage to suppress the repeated identical detection, got %d inserts", *insertCount)
	}
}

func TestProcessDoesNotPanicOnNilBoxes(t *testing.T) {
	p, _, _ := buildPipeline(t)

	// A nil Boxes slice with a non-zero price exercises the early return
	// path without panicking; this asserts Process never panics the caller
	// regardless of malformed input shape.
	p.Process(context.Background(), BoxUpdate{Pair: "AAPL", Price: 100, Boxes: nil})
}
