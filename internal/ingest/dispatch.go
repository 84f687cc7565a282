package ingest

import (
	"context"
	"strings"
	"sync"
)

// pairLocks serialises Process calls per pair while letting different
// pairs proceed concurrently, preserving the hit-detection ordering
// contract §5 requires within a single pair.
type pairLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *pairLocks) forPair(pair string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[pair]
	if !ok {
		l = &sync.Mutex{}
		p.locks[pair] = l
	}
	return l
}

// Dispatcher runs Pipeline.Process for concurrently-arriving updates,
// one at a time per pair.
type Dispatcher struct {
	pipeline *Pipeline
	locks    *pairLocks
}

// NewDispatcher wraps pipeline with per-pair serialisation.
func NewDispatcher(pipeline *Pipeline) *Dispatcher {
	return &Dispatcher{pipeline: pipeline, locks: newPairLocks()}
}

// Dispatch serialises concurrent updates for the same pair and runs
// each through the pipeline. Safe to call concurrently for different pairs.
// The lock key is uppercased to match Pipeline.Process's own pair
// normalisation, so differently-cased updates for the same pair still
// serialise against each other.
func (d *Dispatcher) Dispatch(ctx context.Context, update BoxUpdate) {
	lock := d.locks.forPair(strings.ToUpper(update.Pair))
	lock.Lock()
	defer lock.Unlock()
	d.pipeline.Process(ctx, update)
}
