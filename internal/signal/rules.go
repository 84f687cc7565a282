// Package signal implements the Signal Synthesiser: deterministic
// conversion of a matched pattern at a given reversal level into a
// concrete Signal with an entry, a stop-loss, ordered cumulative
// targets, and per-target risk:reward ratios.
package signal

import "github.com/rthmn/signal-engine/pkg/models"

// pricePoint selects which bound of a box a rule reads.
type pricePoint int

const (
	priceHigh pricePoint = iota
	priceLow
)

// tradeRule is one row of the trade-rules table, indexed by (signal
// type, level). Boxes are 0-indexed into the primary (direction
// matching) box slice, sorted by descending absolute integer value —
// box 0 is the largest.
type tradeRule struct {
	level       int
	entryBox    int
	entryPoint  pricePoint
	stopBoxes   []int
	stopPoint   pricePoint
	targetBoxes []int
	targetPoint pricePoint
}

func longRules() []tradeRule {
	rules := make([]tradeRule, 0, 6)
	for level := 1; level <= 6; level++ {
		targetBoxes := make([]int, level)
		for i := range targetBoxes {
			targetBoxes[i] = i
		}
		rules = append(rules, tradeRule{
			level:       level,
			entryBox:    level,
			entryPoint:  priceHigh,
			stopBoxes:   []int{level - 1},
			stopPoint:   priceLow,
			targetBoxes: targetBoxes,
			targetPoint: priceHigh,
		})
	}
	return rules
}

func shortRules() []tradeRule {
	rules := make([]tradeRule, 0, 6)
	for level := 1; level <= 6; level++ {
		targetBoxes := make([]int, level)
		for i := range targetBoxes {
			targetBoxes[i] = i
		}
		rules = append(rules, tradeRule{
			level:       level,
			entryBox:    level,
			entryPoint:  priceLow,
			stopBoxes:   []int{level - 1},
			stopPoint:   priceHigh,
			targetBoxes: targetBoxes,
			targetPoint: priceLow,
		})
	}
	return rules
}

var (
	longRuleTable  = longRules()
	shortRuleTable = shortRules()
)

func rulesFor(signalType models.SignalType) []tradeRule {
	if signalType == models.Long {
		return longRuleTable
	}
	return shortRuleTable
}

func ruleForLevel(signalType models.SignalType, level int) (tradeRule, bool) {
	for _, r := range rulesFor(signalType) {
		if r.level == level {
			return r, true
		}
	}
	return tradeRule{}, false
}

func priceAt(boxes []models.BoxDetail, idx int, point pricePoint) (float64, bool) {
	if idx < 0 || idx >= len(boxes) {
		return 0, false
	}
	b := boxes[idx]
	if point == priceHigh {
		return b.High, true
	}
	return b.Low, true
}
