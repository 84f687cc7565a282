// Package tracker implements the Active Signal Tracker: a per-pair
// in-memory registry of live signals that, on each price tick, detects
// crossed targets and stop-losses, transitions signals through the
// active → (partial|success|failed) state machine, and reconciles
// state to the external store.
package tracker

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/rthmn/signal-engine/pkg/models"
)

// Store is the subset of the external store adapter the tracker needs.
// Implemented by internal/store.Client.
type Store interface {
	InsertActiveSignal(ctx context.Context, signal models.Signal) (int64, error)
	UpdateSignalStatus(ctx context.Context, id int64, status models.SettlementStatus) error
	UpdateSignalTargetsAndStops(ctx context.Context, id int64, targets []float64, stopLosses []float64, targetHits []*models.Hit, stopLossHit *models.Hit) error
}

// Clock abstracts "now" for deterministic tests.
type Clock interface {
	NowMillis() int64
}

// Tracker holds, per pair, the ordered list of live ActiveSignals.
type Tracker struct {
	mu     sync.RWMutex
	active map[string][]*models.ActiveSignal
	store  Store
	clock  Clock
}

// New returns an empty Tracker backed by store.
func New(store Store, clock Clock) *Tracker {
	return &Tracker{
		active: make(map[string][]*models.ActiveSignal),
		store:  store,
		clock:  clock,
	}
}

// AddSignal writes signal to the external store, captures its
// assigned id, and — only on successful insert — registers it as a
// live ActiveSignal. Returns the assigned id, or 0 if the store
// insert failed (the signal is then never added to in-memory state).
func (t *Tracker) AddSignal(ctx context.Context, sig models.Signal) int64 {
	pair := strings.ToUpper(sig.Pair)
	sig.Pair = pair

	id, err := t.store.InsertActiveSignal(ctx, sig)
	if err != nil {
		log.Printf("[Tracker] failed to persist signal for %s: %v", pair, err)
		return 0
	}
	sig.ID = id

	active := &models.ActiveSignal{
		Signal:     sig,
		TargetHits: make([]*models.Hit, len(sig.Targets)),
		Status:     models.StatusActive,
	}

	t.mu.Lock()
	t.active[pair] = append(t.active[pair], active)
	total := t.countLocked()
	t.mu.Unlock()

	log.Printf("[Tracker] added active signal: %s %s L%d (id: %d, corr: %s, total: %d)", pair, sig.SignalType, sig.Level, id, sig.CorrelationID, total)
	return id
}

func (t *Tracker) countLocked() int {
	n := 0
	for _, v := range t.active {
		n += len(v)
	}
	return n
}

// GetActiveCount returns the total number of live signals across all pairs.
func (t *Tracker) GetActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.countLocked()
}

// GetActiveByPair returns the live signal count per pair.
func (t *Tracker) GetActiveByPair() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int, len(t.active))
	for k, v := range t.active {
		out[k] = len(v)
	}
	return out
}

// hitUpdate batches a target/stop-loss hit update to persist outside the write lock.
type hitUpdate struct {
	id          int64
	targets     []float64
	stopLosses  []float64
	targetHits  []*models.Hit
	stopLossHit *models.Hit
}

// CheckPrice evaluates every live signal for pair against the latest
// tick: stamps newly-crossed targets and stop-losses, determines
// settlement status, removes settled signals from in-memory state,
// and persists hit updates and settlements to the store. I/O never
// happens while the write lock over pair's signal list is held.
func (t *Tracker) CheckPrice(ctx context.Context, pair string, price float64) []models.Settlement {
	if price <= 0 {
		return nil
	}
	pair = strings.ToUpper(pair)
	now := t.clock.NowMillis()

	var updates []hitUpdate
	var toSettle []int // indices into signals, ascending

	t.mu.Lock()
	signals := t.active[pair]
	for idx, sig := range signals {
		stopHitNow := checkStopLoss(sig, price, now)
		anyTargetHitNow := checkTargets(sig, price, now)

		if stopHitNow || anyTargetHitNow {
			updates = append(updates, hitUpdate{
				id:          sig.ID,
				targets:     sig.Targets,
				stopLosses:  sig.StopLosses,
				targetHits:  append([]*models.Hit{}, sig.TargetHits...),
				stopLossHit: sig.StopLossHit,
			})
		}

		anyTargetPreviouslyHit := false
		for _, h := range sig.TargetHits {
			if h != nil {
				anyTargetPreviouslyHit = true
				break
			}
		}

		lastTargetHit := len(sig.Targets) > 0 && sig.TargetHits[len(sig.TargetHits)-1] != nil

		switch {
		case sig.StopLossHit != nil && anyTargetPreviouslyHit:
			sig.Status = models.StatusPartial
			toSettle = append(toSettle, idx)
		case sig.StopLossHit != nil:
			sig.Status = models.StatusFailed
			toSettle = append(toSettle, idx)
		case lastTargetHit:
			sig.Status = models.StatusSuccess
			toSettle = append(toSettle, idx)
		}
	}

	var settledSignals []*models.ActiveSignal
	if len(toSettle) > 0 {
		remaining := signals[:0:0]
		settleSet := make(map[int]bool, len(toSettle))
		for _, i := range toSettle {
			settleSet[i] = true
		}
		for idx, sig := range signals {
			if settleSet[idx] {
				settledSignals = append(settledSignals, sig)
			} else {
				remaining = append(remaining, sig)
			}
		}
		t.active[pair] = remaining
	}
	t.mu.Unlock()

	for _, u := range updates {
		if err := t.store.UpdateSignalTargetsAndStops(ctx, u.id, u.targets, u.stopLosses, u.targetHits, u.stopLossHit); err != nil {
			log.Printf("[Tracker] failed to update hit state for signal %d: %v", u.id, err)
		}
	}

	settlements := make([]models.Settlement, 0, len(settledSignals))
	for _, sig := range settledSignals {
		if err := t.store.UpdateSignalStatus(ctx, sig.ID, sig.Status); err != nil {
			log.Printf("[Tracker] failed to update status for signal %d: %v", sig.ID, err)
		}
		log.Printf("[Tracker] settled: %s %s L%d -> %s (id: %d, corr: %s)", sig.Pair, sig.SignalType, sig.Level, sig.Status, sig.ID, sig.CorrelationID)
		settlements = append(settlements, models.Settlement{Signal: sig.Signal, Status: sig.Status})
	}

	return settlements
}

func checkStopLoss(sig *models.ActiveSignal, price float64, now int64) bool {
	if sig.StopLossHit != nil {
		return false
	}
	if len(sig.StopLosses) == 0 {
		return false
	}
	stop := sig.StopLosses[0]
	hit := false
	if sig.SignalType == models.Long {
		hit = price <= stop
	} else {
		hit = price >= stop
	}
	if hit {
		sig.StopLossHit = &models.Hit{TimestampMillis: now, Price: price}
	}
	return hit
}

func checkTargets(sig *models.ActiveSignal, price float64, now int64) bool {
	anyHit := false
	for i, target := range sig.Targets {
		if sig.TargetHits[i] != nil {
			continue
		}
		var hit bool
		if sig.SignalType == models.Long {
			hit = price >= target
		} else {
			hit = price <= target
		}
		if hit {
			sig.TargetHits[i] = &models.Hit{TimestampMillis: now, Price: price}
			anyHit = true
		}
	}
	return anyHit
}
