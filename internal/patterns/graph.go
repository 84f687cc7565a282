// Package patterns holds the pattern graph: a fixed, read-only data
// asset mapping integer box keys to the continuation sequences that
// may follow them. It is treated as pure data — the engine's
// correctness does not depend on its contents, only on the
// well-formedness rules documented below. Loaded once at process
// startup and never mutated afterwards.
package patterns

import "fmt"

// Graph is the fixed pattern graph: Boxes[k] (k > 0) is a non-empty
// list of sign-canonical continuation sequences from box key k.
// StartingPoints lists the positive keys traversal enumeration begins from.
type Graph struct {
	Boxes          map[int32][][]int32
	StartingPoints []int32
}

// Validate checks the well-formedness rules from the data model: every
// key is positive, every sequence is non-empty.
func (g *Graph) Validate() error {
	for k, seqs := range g.Boxes {
		if k <= 0 {
			return fmt.Errorf("patterns: non-positive key %d in graph", k)
		}
		for _, seq := range seqs {
			if len(seq) == 0 {
				return fmt.Errorf("patterns: empty sequence at key %d", k)
			}
		}
	}
	return nil
}

// Default returns a representative fixture graph sized to exercise
// every component this engine implements: multi-level LONG and SHORT
// chains up to level 3, a self-terminating segment, and a cycling
// segment. Production deployments supply their own Graph (e.g. loaded
// from a config file or embedded data asset) at startup instead.
func Default() *Graph {
	return &Graph{
		StartingPoints: []int32{130, 231, 267, 340, 420, 510},
		Boxes: map[int32][][]int32{
			267: {
				{-231, 130},
				{-231, 130, -90, 65},
			},
			231: {
				{130},
				{130, -90, 65},
			},
			130: {
				{65},
				{-90},
			},
			90: {
				{65},
			},
			65: {
				{65}, // self-terminating: last element abs == source key
			},
			340: {
				{-300, 250, -210, 175, -150},
			},
			300: {
				{250},
			},
			250: {
				{-210},
			},
			210: {
				{175},
			},
			175: {
				{-150},
			},
			420: {
				{420}, // length-1 self-terminating at the starting key itself
			},
			510: {
				{470, -510}, // cycle back to the starting key
			},
		},
	}
}
