package scanner

import (
	"math"

	"github.com/rthmn/signal-engine/internal/instruments"
	"github.com/rthmn/signal-engine/internal/patterns"
	"github.com/rthmn/signal-engine/pkg/models"
)

// Detector matches live box values against the enumerated traversal
// paths, built once at startup and read without locking thereafter.
type Detector struct {
	graph  *patterns.Graph
	paths  []models.TraversalPath
	config *instruments.Cache
}

// NewDetector builds a Detector for the given graph and traversal set.
// The caller is expected to have produced paths via EnumerateTraversals(graph).
func NewDetector(graph *patterns.Graph, paths []models.TraversalPath, config *instruments.Cache) *Detector {
	return &Detector{graph: graph, paths: paths, config: config}
}

// PathCount returns the number of precomputed traversal paths.
func (d *Detector) PathCount() int {
	return len(d.paths)
}

// UpdatePrice installs pair's instrument config from price the first
// time pair is seen, before detection runs against its boxes.
func (d *Detector) UpdatePrice(pair string, price float64) {
	d.config.UpdatePrice(pair, price)
}

// Detect matches pair's live boxes against every precomputed traversal
// path and returns every full match, each annotated with its reversal level.
func (d *Detector) Detect(pair string, boxes []models.Box) []models.PatternMatch {
	if len(boxes) == 0 {
		return nil
	}

	cfg := d.config.Get(pair)
	integerValues := make([]int32, len(boxes))
	valueSet := make(map[int32]struct{}, len(boxes))
	for i, b := range boxes {
		iv := int32(math.Round(b.Value / cfg.Point))
		integerValues[i] = iv
		valueSet[iv] = struct{}{}
	}

	var matches []models.PatternMatch
	for _, t := range d.paths {
		first := abs32(t.Path[0])
		_, hasPos := valueSet[first]
		_, hasNeg := valueSet[-first]
		if !hasPos && !hasNeg {
			continue
		}
		if !pathPresent(t.Path, valueSet) {
			continue
		}
		matches = append(matches, d.buildMatch(pair, t, boxes, integerValues))
	}

	return matches
}

func pathPresent(path []int32, valueSet map[int32]struct{}) bool {
	for _, v := range path {
		if _, ok := valueSet[v]; !ok {
			return false
		}
	}
	return true
}

func (d *Detector) buildMatch(pair string, t models.TraversalPath, boxes []models.Box, integerValues []int32) models.PatternMatch {
	details := make([]models.BoxDetail, 0, len(t.Path))
	for _, pathValue := range t.Path {
		for i, iv := range integerValues {
			if iv == pathValue {
				details = append(details, models.BoxDetail{
					IntegerValue: iv,
					High:         boxes[i].High,
					Low:          boxes[i].Low,
					Value:        boxes[i].Value,
				})
				break
			}
		}
	}

	return models.PatternMatch{
		Pair:          pair,
		Level:         t.Level,
		TraversalPath: t,
		BoxDetails:    details,
	}
}
