// Package ingest wires a single box-update event through the full
// pipeline: settle-check against the tracker, detect, deduplicate,
// synthesise, and persist + forward. Updates for different pairs may
// run concurrently; within one pair the caller is responsible for
// serialising updates so the hit-detection ordering contract holds.
package ingest

import (
	"context"
	"log"
	"strings"

	"github.com/rthmn/signal-engine/internal/dedup"
	"github.com/rthmn/signal-engine/internal/forwarder"
	"github.com/rthmn/signal-engine/internal/scanner"
	"github.com/rthmn/signal-engine/internal/signal"
	"github.com/rthmn/signal-engine/internal/tracker"
	"github.com/rthmn/signal-engine/pkg/models"
)

// Pipeline holds references to every stage the ingestion loop drives.
type Pipeline struct {
	Detector     *scanner.Detector
	Deduplicator *dedup.Deduplicator
	Tracker      *tracker.Tracker
	Forwarder    *forwarder.Forwarder
}

// BoxUpdate is one incoming event from the upstream box engine.
type BoxUpdate struct {
	Pair  string
	Boxes []models.Box
	Price float64
}

// Process runs a single box-update through the full pipeline. It
// recovers from any panic in the detector/synthesiser stage so that
// one pair's internal failure never propagates across the pair
// boundary into a shared goroutine.
func (p *Pipeline) Process(ctx context.Context, update BoxUpdate) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Ingest] recovered panic processing %s: %v", update.Pair, r)
		}
	}()

	pair := strings.ToUpper(update.Pair)

	if update.Price > 0 {
		p.Detector.UpdatePrice(pair, update.Price)
	}

	for _, settlement := range p.Tracker.CheckPrice(ctx, pair, update.Price) {
		if settlement.Signal.Level == 1 {
			p.Deduplicator.RemoveL1(pair, settlement.Signal.SignalType)
		}
	}

	candidates := p.Detector.Detect(pair, update.Boxes)
	if len(candidates) == 0 {
		return
	}

	var survivors []models.PatternMatch
	for _, c := range candidates {
		if p.Deduplicator.FilterBox0AndL1(pair, c) {
			continue
		}
		survivors = append(survivors, c)
	}
	if len(survivors) == 0 {
		return
	}

	survivors = dedup.RemoveSubsetDuplicates(survivors)

	for _, c := range survivors {
		sig, ok := signal.Synthesize(c)
		if !ok || !signal.Valid(sig) {
			continue
		}
		if p.Deduplicator.FilterStructuralBoxes(pair, c) {
			continue
		}

		id := p.Tracker.AddSignal(ctx, sig)
		if id == 0 {
			continue
		}
		sig.ID = id
		forwarder.ForwardAndLog(ctx, p.Forwarder, sig)
	}
}
