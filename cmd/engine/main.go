package main

import (
	"log"
	"time"

	"github.com/rthmn/signal-engine/internal/api"
	"github.com/rthmn/signal-engine/internal/config"
	"github.com/rthmn/signal-engine/internal/dedup"
	"github.com/rthmn/signal-engine/internal/forwarder"
	"github.com/rthmn/signal-engine/internal/ingest"
	"github.com/rthmn/signal-engine/internal/instruments"
	"github.com/rthmn/signal-engine/internal/patterns"
	"github.com/rthmn/signal-engine/internal/scanner"
	"github.com/rthmn/signal-engine/internal/store"
	"github.com/rthmn/signal-engine/internal/tracker"
)

func main() {
	log.Println("Starting Signal Engine...")
	log.Println("Loading pattern graph and enumerating traversal paths...")

	cfg := config.Load()

	graph := patterns.Default()
	if err := graph.Validate(); err != nil {
		log.Fatalf("FATAL: invalid pattern graph: %v", err)
	}
	paths := scanner.EnumerateTraversals(graph)
	log.Printf("Enumerated %d traversal paths from %d starting points", len(paths), len(graph.StartingPoints))

	instrumentCache := instruments.NewCache()
	detector := scanner.NewDetector(graph, paths, instrumentCache)
	deduplicator := dedup.New()

	storeClient := store.New(cfg.SupabaseURL, cfg.SupabaseServiceKey, time.Duration(cfg.StoreHTTPTimeoutMS)*time.Millisecond)
	clock := tracker.SystemClock{}
	signalTracker := tracker.New(storeClient, clock)

	signalForwarder := forwarder.New(cfg.MainServerURL, cfg.SupabaseServiceKey)

	pipeline := &ingest.Pipeline{
		Detector:     detector,
		Deduplicator: deduplicator,
		Tracker:      signalTracker,
		Forwarder:    signalForwarder,
	}
	dispatcher := ingest.NewDispatcher(pipeline)

	handler := &api.Handler{
		Dispatcher: dispatcher,
		Detector:   detector,
		Tracker:    signalTracker,
		StartedAt:  time.Now(),
	}
	r := api.SetupRouter(handler)

	log.Printf("Engine running on :%s (%d traversal paths loaded)", cfg.Port, len(paths))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
