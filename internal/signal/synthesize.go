package signal

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/rthmn/signal-engine/pkg/models"
)

// Synthesize converts a matched pattern into a Signal per the
// trade-rules table. The second return value is false when the match
// has no corresponding rule, or the rule's required entry/stop/targets
// could not all be resolved from the primary box set — such a match
// is skipped by the caller.
func Synthesize(match models.PatternMatch) (models.Signal, bool) {
	signalType := match.TraversalPath.SignalType
	primary := models.PrimaryBoxes(match.BoxDetails, signalType)

	rule, ok := ruleForLevel(signalType, match.Level)
	if !ok {
		return models.Signal{}, false
	}

	entry, ok := priceAt(primary, rule.entryBox, rule.entryPoint)
	if !ok {
		return models.Signal{}, false
	}

	stopLosses := make([]float64, 0, len(rule.stopBoxes))
	for _, idx := range rule.stopBoxes {
		if p, ok := priceAt(primary, idx, rule.stopPoint); ok {
			stopLosses = append(stopLosses, p)
		}
	}
	if len(stopLosses) == 0 {
		return models.Signal{}, false
	}

	targets, ok := computeTargets(primary, rule, signalType)
	if !ok || len(targets) == 0 {
		return models.Signal{}, false
	}

	riskReward := computeRiskReward(entry, stopLosses[0], targets, signalType)

	return models.Signal{
		CorrelationID:   uuid.New().String(),
		Pair:            match.Pair,
		SignalType:      signalType,
		Level:           match.Level,
		PatternSequence: append([]int32{}, match.TraversalPath.Path...),
		BoxDetails:      append([]models.BoxDetail{}, match.BoxDetails...),
		Entry:           entry,
		StopLosses:      stopLosses,
		Targets:         targets,
		RiskReward:      riskReward,
	}, true
}

func computeTargets(primary []models.BoxDetail, rule tradeRule, signalType models.SignalType) ([]float64, bool) {
	if len(rule.targetBoxes) == 0 {
		return nil, false
	}
	firstBoxIdx := rule.targetBoxes[0]
	base, ok := priceAt(primary, firstBoxIdx, rule.targetPoint)
	if !ok {
		return nil, false
	}

	var firstBoxSize float64
	if firstBoxIdx < len(primary) {
		firstBoxSize = primary[firstBoxIdx].High - primary[firstBoxIdx].Low
	}

	targets := make([]float64, 0, len(rule.targetBoxes)+1)
	for _, idx := range rule.targetBoxes {
		if p, ok := priceAt(primary, idx, rule.targetPoint); ok {
			targets = append(targets, p)
		}
	}

	var lastTarget float64
	if signalType == models.Long {
		lastTarget = base + firstBoxSize
	} else {
		lastTarget = base - firstBoxSize
	}
	targets = append(targets, lastTarget)

	if signalType == models.Long {
		sort.Float64s(targets)
	} else {
		sort.Sort(sort.Reverse(sort.Float64Slice(targets)))
	}

	return targets, true
}

func computeRiskReward(entry, stop float64, targets []float64, signalType models.SignalType) []float64 {
	risk := math.Abs(entry - stop)
	if risk <= 0 {
		return nil
	}
	out := make([]float64, len(targets))
	for i, t := range targets {
		var reward float64
		if signalType == models.Long {
			reward = math.Abs(t - entry)
		} else {
			reward = math.Abs(entry - t)
		}
		out[i] = math.Round(reward / risk)
	}
	return out
}

// Valid reports whether a synthesised signal has everything the spec
// requires for emission: an entry, a non-empty stop-loss list, a
// non-empty target list, and one risk:reward ratio per target (which
// in turn requires a strictly positive entry-to-stop distance).
func Valid(s models.Signal) bool {
	return len(s.StopLosses) > 0 && len(s.Targets) > 0 && len(s.RiskReward) == len(s.Targets)
}
