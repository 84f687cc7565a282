// Package models holds the wire and domain types shared across the
// signal engine: boxes received from the upstream box engine, the
// pattern graph's derived types, and the signals emitted to storage
// and to the downstream service.
package models

import "sort"

// Box is a single quantised price range reported by the upstream box
// engine. The sign of Value encodes direction: positive is a bullish
// range, negative is bearish.
type Box struct {
	High  float64 `json:"high" msgpack:"high"`
	Low   float64 `json:"low" msgpack:"low"`
	Value float64 `json:"value" msgpack:"value"`
}

// SignalType is the direction of a detected pattern or synthesised signal.
type SignalType string

const (
	Long  SignalType = "LONG"
	Short SignalType = "SHORT"
)

// TraversalPath is one complete path through the pattern graph,
// precomputed once at startup. Level is the reversal level the greedy
// longest-prefix replay assigns to Path; it depends only on Path and
// the graph, so it is computed once at enumeration time rather than
// recomputed on every matching box update.
type TraversalPath struct {
	Path          []int32
	StartingPoint int32
	SignalType    SignalType
	Level         int
}

// BoxDetail is the live box data backing one element of a matched
// traversal path.
type BoxDetail struct {
	IntegerValue int32   `json:"integer_value"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Value        float64 `json:"value"`
}

// PatternMatch is a traversal path that matched the live box set for a pair.
type PatternMatch struct {
	Pair          string
	Level         int
	TraversalPath TraversalPath
	BoxDetails    []BoxDetail
}

// Signal is the deterministic output of the synthesiser: an entry,
// an ordered stop-loss list, an ordered cumulative target list and
// their risk:reward ratios. ID is assigned by the external store on
// insert; CorrelationID is minted once at synthesis time and carried
// through every log line this signal appears in, so a single trade's
// path through detection, persistence and forwarding can be traced
// without the store-assigned id (unavailable until after insert).
type Signal struct {
	ID              int64      `json:"id,omitempty"`
	CorrelationID   string     `json:"correlation_id"`
	Pair            string     `json:"pair"`
	SignalType      SignalType `json:"signal_type"`
	Level           int        `json:"level"`
	PatternSequence []int32    `json:"pattern_sequence"`
	BoxDetails      []BoxDetail `json:"box_details"`
	Entry           float64    `json:"entry"`
	StopLosses      []float64  `json:"stop_losses"`
	Targets         []float64  `json:"targets"`
	RiskReward      []float64  `json:"risk_reward"`
}

// Hit records when and at what price a target or stop-loss was crossed.
type Hit struct {
	TimestampMillis int64   `json:"timestamp_ms"`
	Price           float64 `json:"price"`
}

// SettlementStatus is the terminal (or pending) state of an ActiveSignal.
type SettlementStatus string

const (
	StatusActive  SettlementStatus = "active"
	StatusPartial SettlementStatus = "partial"
	StatusSuccess SettlementStatus = "success"
	StatusFailed  SettlementStatus = "failed"
)

// ActiveSignal is a live Signal tracked against subsequent price ticks.
type ActiveSignal struct {
	Signal
	TargetHits    []*Hit
	StopLossHit   *Hit
	Status        SettlementStatus
	CreatedAtUnix int64
}

// Settlement describes an ActiveSignal that has just reached a terminal status.
type Settlement struct {
	Signal Signal
	Status SettlementStatus
}

// PrimaryBoxes returns the direction-matching subset of details
// (positive integer values for LONG, negative for SHORT), sorted by
// descending absolute integer value. Shared by the deduplicator's
// structural-box rule and the signal synthesiser's trade-rule lookup,
// both of which must agree on what "primary box N" means.
func PrimaryBoxes(details []BoxDetail, signalType SignalType) []BoxDetail {
	isLong := signalType == Long
	out := make([]BoxDetail, 0, len(details))
	for _, b := range details {
		if (isLong && b.IntegerValue > 0) || (!isLong && b.IntegerValue < 0) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return absInt32(out[i].IntegerValue) > absInt32(out[j].IntegerValue)
	})
	return out
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
