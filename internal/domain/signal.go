package domain

import "sort"

// Signal represents a trade direction decision.
type Signal string

// Signal constants.
const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// IndicatorResult is the outcome of a single indicator evaluation.
// A nil Value means insufficient history, never an error.
type IndicatorResult struct {
	Value    *float64
	Signal   Signal
	Reason   string
	Metadata map[string]float64
}

// HoldResult returns an IndicatorResult for insufficient history.
func HoldResult(reason string) IndicatorResult {
	return IndicatorResult{Signal: SignalHold, Reason: reason}
}

// MacroStatus represents the macro risk regime.
type MacroStatus string

// Macro status constants.
const (
	MacroRiskOn  MacroStatus = "RISK_ON"
	MacroRiskOff MacroStatus = "RISK_OFF"
	MacroNeutral MacroStatus = "NEUTRAL"
)

// MacroAssessment is an optional macro-risk overlay input.
// It is never required for a valid decision.
type MacroAssessment struct {
	Status MacroStatus
	Score  float64 // 0-100
	Reason string
}

// MultiIndicatorResult is the consensus decision over all active indicators.
type MultiIndicatorResult struct {
	Indicators       map[string]IndicatorResult
	CustomIndicators map[string]IndicatorResult
	OverallSignal    Signal
	SignalStrength   float64 // 0-100
	Reason           string
	Macro            *MacroAssessment
}

// ActiveCount returns the number of evaluated indicators, built-in plus custom.
func (r *MultiIndicatorResult) ActiveCount() int {
	return len(r.Indicators) + len(r.CustomIndicators)
}

// CountSignals tallies directions across all active indicators.
func (r *MultiIndicatorResult) CountSignals() (buys, sells, total int) {
	tally := func(m map[string]IndicatorResult) {
		for _, ir := range m {
			total++
			switch ir.Signal {
			case SignalBuy:
				buys++
			case SignalSell:
				sells++
			}
		}
	}
	tally(r.Indicators)
	tally(r.CustomIndicators)
	return buys, sells, total
}

// BuyIndicatorNames returns the names of indicators signalling BUY, sorted
// for deterministic output.
func (r *MultiIndicatorResult) BuyIndicatorNames() []string {
	var names []string
	for name, ir := range r.Indicators {
		if ir.Signal == SignalBuy {
			names = append(names, name)
		}
	}
	for name, ir := range r.CustomIndicators {
		if ir.Signal == SignalBuy {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Refinement is the output of the optional signal-refinement collaborator.
// On collaborator failure the rule-based signal is kept unchanged.
type Refinement struct {
	ConfidenceScore float64 // 0-100
	RefinedSignal   Signal
	Reasoning       string
}

// SignalRecord is a persisted evaluation outcome, owned by callers.
type SignalRecord struct {
	Symbol      string
	TimestampMs int64
	Signal      Signal
	Strength    float64
	Reason      string
	Indicators  map[string]Signal // per-indicator direction at evaluation time
}
