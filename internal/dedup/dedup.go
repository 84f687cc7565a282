// Package dedup implements the multi-stage deduplicator: four
// independent filters that suppress redundant pattern detections
// across time, anchored on the stability of the primary box and of
// structurally-significant boxes. Each internal map is guarded by its
// own reader-writer lock; FilterBox0AndL1, the one call that touches
// more than one map, takes the locks in the order box-0 state → L1 →
// structural and never holds two of them at once, so it cannot deadlock.
package dedup

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rthmn/signal-engine/pkg/models"
)

// Tolerance is the absolute tolerance used for every real-valued
// bound comparison in the deduplicator.
const Tolerance = 1e-5

type bounds struct {
	High float64
	Low  float64
}

func (b bounds) differs(other bounds, tol float64) bool {
	return math.Abs(b.High-other.High) >= tol || math.Abs(b.Low-other.Low) >= tol
}

// Deduplicator holds all per-pair deduplication state in memory.
type Deduplicator struct {
	box0Mu    sync.RWMutex
	box0State map[string]bounds // keyed by pair

	l1Mu    sync.RWMutex
	l1Active map[string]bounds // keyed by "<pair>:<signal_type>"

	structMu    sync.RWMutex
	structState map[string]map[int32]bounds // keyed by "<pair>:<signal_type>:<boxes>"
}

// New returns an empty Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{
		box0State:   make(map[string]bounds),
		l1Active:    make(map[string]bounds),
		structState: make(map[string]map[int32]bounds),
	}
}

// FilterBox0AndL1 runs stages 4.5.1 and 4.5.2: it invalidates all
// per-pair dedup state when the primary box has moved, then (for
// level-1 matches) suppresses a match whose box-0 bounds are
// unchanged from the last emitted level-1 signal of the same
// direction. Returns true if the match should be suppressed.
func (d *Deduplicator) FilterBox0AndL1(pair string, match models.PatternMatch) bool {
	if len(match.BoxDetails) == 0 {
		return true
	}
	box0 := match.BoxDetails[0]
	current := bounds{High: box0.High, Low: box0.Low}

	d.box0Mu.Lock()
	existing, ok := d.box0State[pair]
	box0Changed := ok && existing.differs(current, Tolerance)
	d.box0State[pair] = current
	d.box0Mu.Unlock()

	if box0Changed {
		prefix := pair + ":"
		d.l1Mu.Lock()
		for k := range d.l1Active {
			if strings.HasPrefix(k, prefix) {
				delete(d.l1Active, k)
			}
		}
		d.l1Mu.Unlock()

		d.structMu.Lock()
		for k := range d.structState {
			if strings.HasPrefix(k, prefix) {
				delete(d.structState, k)
			}
		}
		d.structMu.Unlock()
	}

	if match.Level != 1 {
		return false
	}

	key := fmt.Sprintf("%s:%s", pair, match.TraversalPath.SignalType)
	d.l1Mu.Lock()
	defer d.l1Mu.Unlock()
	if existing, ok := d.l1Active[key]; ok && !existing.differs(current, Tolerance) {
		return true
	}
	d.l1Active[key] = current
	return false
}

// RemoveL1 drops the active level-1 entry for pair/signalType, called
// by the tracker when a level-1 signal settles.
func (d *Deduplicator) RemoveL1(pair string, signalType models.SignalType) {
	key := fmt.Sprintf("%s:%s", pair, signalType)
	d.l1Mu.Lock()
	delete(d.l1Active, key)
	d.l1Mu.Unlock()
}

// FilterStructuralBoxes runs stage 4.5.3: it tracks the bounds of the
// first `level` structural (direction-matching) boxes, sorted by
// descending absolute integer value, under a key derived from their
// integer values. A match is a duplicate only if every tracked box's
// bounds are unchanged and the tracking state was already populated.
func (d *Deduplicator) FilterStructuralBoxes(pair string, match models.PatternMatch) bool {
	structural := models.PrimaryBoxes(match.BoxDetails, match.TraversalPath.SignalType)
	if len(structural) > match.Level {
		structural = structural[:match.Level]
	}
	if len(structural) == 0 {
		return false
	}

	parts := make([]string, len(structural))
	for i, b := range structural {
		parts[i] = fmt.Sprintf("%d", b.IntegerValue)
	}
	key := fmt.Sprintf("%s:%s:%s", pair, match.TraversalPath.SignalType, strings.Join(parts, "_"))

	d.structMu.Lock()
	defer d.structMu.Unlock()

	tracked, ok := d.structState[key]
	if !ok {
		tracked = make(map[int32]bounds)
		d.structState[key] = tracked
	}

	allMatch := len(tracked) > 0
	anyChanged := false

	for _, b := range structural {
		current := bounds{High: b.High, Low: b.Low}
		if existing, ok := tracked[b.IntegerValue]; ok {
			if existing.differs(current, Tolerance) {
				anyChanged = true
				allMatch = false
				tracked[b.IntegerValue] = current
			}
		} else {
			allMatch = false
			tracked[b.IntegerValue] = current
		}
	}

	return !anyChanged && allMatch
}

// RemoveSubsetDuplicates runs stage 4.5.4: given a batch of surviving
// detections, sorts by descending level and drops any detection whose
// integer alphabet is a strict subset of a previously-kept, deeper,
// same-direction detection's alphabet.
func RemoveSubsetDuplicates(batch []models.PatternMatch) []models.PatternMatch {
	sorted := append([]models.PatternMatch{}, batch...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Level > sorted[j].Level
	})

	var kept []models.PatternMatch
	for _, p := range sorted {
		pValues := toSet(p.TraversalPath.Path)
		isDuplicate := false
		for _, q := range kept {
			if q.TraversalPath.SignalType != p.TraversalPath.SignalType {
				continue
			}
			if q.Level <= p.Level {
				continue
			}
			qValues := toSet(q.TraversalPath.Path)
			if len(pValues) < len(qValues) && isSubset(pValues, qValues) {
				isDuplicate = true
				break
			}
		}
		if !isDuplicate {
			kept = append(kept, p)
		}
	}
	return kept
}

func toSet(path []int32) map[int32]struct{} {
	s := make(map[int32]struct{}, len(path))
	for _, v := range path {
		s[v] = struct{}{}
	}
	return s
}

func isSubset(a, b map[int32]struct{}) bool {
	for v := range a {
		if _, ok := b[v]; !ok {
			return false
		}
	}
	return true
}
