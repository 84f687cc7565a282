package scanner

import (
	"reflect"
	"testing"

	"github.com/rthmn/signal-engine/internal/patterns"
	"github.com/rthmn/signal-engine/pkg/models"
)

func testGraph() *patterns.Graph {
	return &patterns.Graph{
		StartingPoints: []int32{10, 20, 30},
		Boxes: map[int32][][]int32{
			10: {{5}},
			20: {{20}},       // self-terminating
			30: {{25, -30}},  // cycles back to the starting key
		},
	}
}

func findPath(paths []models.TraversalPath, start int32, signalType models.SignalType) (models.TraversalPath, bool) {
	for _, p := range paths {
		if p.StartingPoint == start && p.SignalType == signalType {
			return p, true
		}
	}
	return models.TraversalPath{}, false
}

func TestEnumerateTraversalsOrdinaryTermination(t *testing.T) {
	paths := EnumerateTraversals(testGraph())

	long, ok := findPath(paths, 10, models.Long)
	if !ok {
		t.Fatalf("expected a LONG path starting at 10")
	}
	if !reflect.DeepEqual(long.Path, []int32{10, 5}) {
		t.Fatalf("expected path [10 5], got %v", long.Path)
	}

	short, ok := findPath(paths, -10, models.Short)
	if !ok {
		t.Fatalf("expected a SHORT path starting at -10")
	}
	if !reflect.DeepEqual(short.Path, []int32{-10, -5}) {
		t.Fatalf("expected path [-10 -5], got %v", short.Path)
	}
}

func TestEnumerateTraversalsSelfTerminating(t *testing.T) {
	paths := EnumerateTraversals(testGraph())

	long, ok := findPath(paths, 20, models.Long)
	if !ok {
		t.Fatalf("expected a LONG path starting at 20")
	}
	if !reflect.DeepEqual(long.Path, []int32{20}) {
		t.Fatalf("expected self-terminating path to stay unextended: [20], got %v", long.Path)
	}

	short, ok := findPath(paths, -20, models.Short)
	if !ok {
		t.Fatalf("expected a SHORT path starting at -20")
	}
	if !reflect.DeepEqual(short.Path, []int32{-20}) {
		t.Fatalf("expected self-terminating path to stay unextended: [-20], got %v", short.Path)
	}
}

func TestEnumerateTraversalsCycle(t *testing.T) {
	paths := EnumerateTraversals(testGraph())

	long, ok := findPath(paths, 30, models.Long)
	if !ok {
		t.Fatalf("expected a LONG path starting at 30")
	}
	if !reflect.DeepEqual(long.Path, []int32{30, 25, -30}) {
		t.Fatalf("expected cycle to emit as terminal: [30 25 -30], got %v", long.Path)
	}

	short, ok := findPath(paths, -30, models.Short)
	if !ok {
		t.Fatalf("expected a SHORT path starting at -30")
	}
	if !reflect.DeepEqual(short.Path, []int32{-30, -25, 30}) {
		t.Fatalf("expected cycle to emit as terminal: [-30 -25 30], got %v", short.Path)
	}
}

func TestEnumerateTraversalsCountsOneStartingKeyPairPerStartingPoint(t *testing.T) {
	paths := EnumerateTraversals(testGraph())
	if len(paths) != 6 {
		t.Fatalf("expected 6 paths (3 starting points x 2 signs), got %d", len(paths))
	}
}

func TestEnumerateTraversalsAssignsLevel(t *testing.T) {
	paths := EnumerateTraversals(testGraph())

	long, ok := findPath(paths, 10, models.Long)
	if !ok {
		t.Fatalf("expected a LONG path starting at 10")
	}
	if long.Level != 1 {
		t.Fatalf("expected level 1 for the fully-consumed two-element path, got %d", long.Level)
	}

	cycle, ok := findPath(paths, 30, models.Long)
	if !ok {
		t.Fatalf("expected a LONG path starting at 30")
	}
	if cycle.Level != 1 {
		t.Fatalf("expected level 1 for the single-segment cycle path, got %d", cycle.Level)
	}
}
