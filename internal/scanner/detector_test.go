package scanner

import (
	"testing"

	"github.com/rthmn/signal-engine/internal/instruments"
	"github.com/rthmn/signal-engine/internal/patterns"
	"github.com/rthmn/signal-engine/pkg/models"
)

func simpleGraph() *patterns.Graph {
	return &patterns.Graph{
		StartingPoints: []int32{10},
		Boxes: map[int32][][]int32{
			10: {{5}},
		},
	}
}

func TestDetectMatchesOnlyPresentSigns(t *testing.T) {
	g := simpleGraph()
	paths := EnumerateTraversals(g)
	cache := instruments.NewCache()
	d := NewDetector(g, paths, cache)

	// "TSLA" falls back to the 0.01 stock point, so 0.10 -> 10 and 0.05 -> 5.
	boxes := []models.Box{
		{High: 0.11, Low: 0.09, Value: 0.10},
		{High: 0.06, Low: 0.04, Value: 0.05},
	}

	matches := d.Detect("TSLA", boxes)
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match (LONG only, SHORT signs absent), got %d", len(matches))
	}
	if matches[0].TraversalPath.SignalType != models.Long {
		t.Fatalf("expected the surviving match to be LONG, got %v", matches[0].TraversalPath.SignalType)
	}
	if matches[0].Level != 1 {
		t.Fatalf("expected level 1 for a two-element fully-consumed path, got %d", matches[0].Level)
	}
}

func TestDetectReturnsNoneWhenBoxesEmpty(t *testing.T) {
	g := simpleGraph()
	paths := EnumerateTraversals(g)
	cache := instruments.NewCache()
	d := NewDetector(g, paths, cache)

	if matches := d.Detect("TSLA", nil); matches != nil {
		t.Fatalf("expected nil matches for empty box set, got %v", matches)
	}
}

func TestPathCountMatchesEnumeratedPaths(t *testing.T) {
	g := simpleGraph()
	paths := EnumerateTraversals(g)
	cache := instruments.NewCache()
	d := NewDetector(g, paths, cache)

	if d.PathCount() != len(paths) {
		t.Fatalf("expected PathCount() == %d, got %d", len(paths), d.PathCount())
	}
}
