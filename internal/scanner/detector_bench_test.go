package scanner

import (
	"testing"

	"github.com/rthmn/signal-engine/internal/instruments"
	"github.com/rthmn/signal-engine/internal/patterns"
	"github.com/rthmn/signal-engine/pkg/models"
)

// BenchmarkEnumerateTraversals measures the one-time startup cost of
// expanding the pattern graph into its full traversal path set.
func BenchmarkEnumerateTraversals(b *testing.B) {
	g := patterns.Default()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = EnumerateTraversals(g)
	}
}

// matchingBoxes lines up with the default fixture graph's starting
// points (130, 231, 267, 340, 420, 510) under the stock-class default
// point of 0.01, so every starting point passes the first-element fast
// check; only the one-element [420] path matches in full.
func matchingBoxes() []models.Box {
	values := []float64{1.30, 2.31, 2.67, 3.40, 4.20, 5.10}
	boxes := make([]models.Box, len(values))
	for i, v := range values {
		boxes[i] = models.Box{High: v + 0.01, Low: v - 0.01, Value: v}
	}
	return boxes
}

// BenchmarkDetect measures the steady-state hot path: matching one
// pair's live boxes against the full enumerated path set on every box
// update, which is where the engine spends most of its time at the
// pattern graph's full-scale path count (§2, §9).
func BenchmarkDetect(b *testing.B) {
	g := patterns.Default()
	paths := EnumerateTraversals(g)

	benchCases := []struct {
		name  string
		pair  string
		boxes []models.Box
	}{
		{"SomeMatches", "TSLA", matchingBoxes()},
		{"NoMatch", "TSLA", []models.Box{{High: 1.01, Low: 0.99, Value: 1.00}}},
	}

	for _, bc := range benchCases {
		b.Run(bc.name, func(b *testing.B) {
			cache := instruments.NewCache()
			d := NewDetector(g, paths, cache)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = d.Detect(bc.pair, bc.boxes)
			}
		})
	}
}
