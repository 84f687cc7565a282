// Package scanner implements the Traversal Enumerator and Pattern
// Detector: at startup it expands the pattern graph into every valid
// traversal path, then on each box update it matches live box
// integers against those paths.
package scanner

import (
	"github.com/rthmn/signal-engine/internal/patterns"
	"github.com/rthmn/signal-engine/pkg/models"
)

// EnumerateTraversals expands g into the list of all traversal paths,
// following the depth-first algorithm in the spec: for each starting
// point and sign, walk the graph, emitting a path whenever a node has
// no outgoing patterns, a pattern self-terminates, or a pattern cycles
// back to the current key. The enumerator never deduplicates —
// identical paths reachable by different routes are retained.
func EnumerateTraversals(g *patterns.Graph) []models.TraversalPath {
	var all []models.TraversalPath

	var startingKeys []int32
	for _, sp := range g.StartingPoints {
		startingKeys = append(startingKeys, sp, -sp)
	}

	for _, start := range startingKeys {
		traverse(g, start, []int32{start}, start, &all)
	}

	for i := range all {
		all[i].Level = calculateLevel(g, all[i].Path)
	}

	return all
}

// calculateLevel replays path against g, greedily matching the longest
// prefix of path[1:] that equals a sign-adjusted pattern from
// Boxes[|key|], incrementing level on each match. Level is at least 1.
// Depends only on g and path, so EnumerateTraversals computes it once
// per path at startup rather than leaving it to be redone on every
// live box match against the same static path.
func calculateLevel(g *patterns.Graph, path []int32) int {
	if len(path) <= 1 {
		return 1
	}

	level := 0
	currentIndex := 0
	currentKey := path[0]

	for currentIndex < len(path)-1 {
		segs, ok := g.Boxes[abs32(currentKey)]
		if !ok || len(segs) == 0 {
			break
		}

		bestLen := 0
		var bestLast int32
		for _, seg := range segs {
			adjusted := seg
			if currentKey < 0 {
				adjusted = negate(seg)
			}

			start := currentIndex + 1
			end := start + len(adjusted)
			if end > len(path) || len(adjusted) <= bestLen {
				continue
			}
			if equalSlices(adjusted, path[start:end]) {
				bestLen = len(adjusted)
				bestLast = adjusted[len(adjusted)-1]
			}
		}

		if bestLen == 0 {
			break
		}
		level++
		currentIndex += bestLen
		currentKey = bestLast
	}

	if level < 1 {
		return 1
	}
	return level
}

func equalSlices(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func traverse(g *patterns.Graph, currentKey int32, path []int32, start int32, out *[]models.TraversalPath) {
	absKey := abs32(currentKey)
	segs, ok := g.Boxes[absKey]
	if !ok || len(segs) == 0 {
		*out = append(*out, emit(path, start))
		return
	}

	for _, seg := range segs {
		adjusted := seg
		if currentKey < 0 {
			adjusted = negate(seg)
		}
		last := adjusted[len(adjusted)-1]

		if len(adjusted) == 1 && abs32(last) == abs32(currentKey) {
			// Self-terminating: emit the path unextended, don't recurse.
			*out = append(*out, emit(path, start))
			continue
		}

		extended := append(append([]int32{}, path...), adjusted...)

		if abs32(last) == abs32(currentKey) {
			// Cycle: emit the extended path as terminal.
			*out = append(*out, emit(extended, start))
			continue
		}

		traverse(g, last, extended, start, out)
	}
}

func emit(path []int32, start int32) models.TraversalPath {
	signalType := models.Short
	if start > 0 {
		signalType = models.Long
	}
	return models.TraversalPath{
		Path:          append([]int32{}, path...),
		StartingPoint: start,
		SignalType:    signalType,
	}
}

func negate(seq []int32) []int32 {
	out := make([]int32, len(seq))
	for i, v := range seq {
		out[i] = -v
	}
	return out
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
