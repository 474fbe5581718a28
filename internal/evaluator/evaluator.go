// Package evaluator combines independent indicator opinions into a single
// consensus trade signal. The rule is conservative: BUY or SELL only when
// every active indicator agrees, HOLD otherwise with a strength score
// reflecting how close the panel came to agreement.
package evaluator

import (
	"fmt"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/indicator"
)

// Evaluator evaluates a configured indicator panel against price series.
type Evaluator struct {
	cfg Config
}

// New creates an evaluator, filling config defaults.
func New(cfg Config) *Evaluator {
	cfg.ApplyDefaults()
	return &Evaluator{cfg: cfg}
}

// Config returns the effective configuration after defaulting.
func (e *Evaluator) Config() Config {
	return e.cfg
}

// Evaluate runs every active indicator over the symbol series (and the
// market index series for the market-direction check) and derives the
// consensus. The call is pure: same inputs, same result.
func (e *Evaluator) Evaluate(symbol *domain.PriceSeries, index *domain.PriceSeries) *domain.MultiIndicatorResult {
	result := &domain.MultiIndicatorResult{
		Indicators:       make(map[string]domain.IndicatorResult),
		CustomIndicators: make(map[string]domain.IndicatorResult),
	}
	if symbol == nil || symbol.Len() == 0 {
		result.OverallSignal = domain.SignalHold
		result.Reason = "no price data"
		return result
	}

	result.Indicators[IndicatorPattern] = e.evaluatePattern(symbol)
	result.Indicators[IndicatorMomentum] = e.evaluateMomentum(symbol)
	result.Indicators[IndicatorMarketDirection] = e.evaluateMarketDirection(index)
	result.Indicators[IndicatorVolume] = e.evaluateVolume(symbol)

	for _, name := range e.cfg.ExtraIndicators {
		result.Indicators[name] = e.evaluateExtra(name, symbol)
	}

	for _, cc := range e.cfg.CustomIndicators {
		if !cc.Enabled {
			continue
		}
		result.CustomIndicators[cc.Name] = indicator.EvaluateCustom(cc, symbol)
	}

	e.applyConsensus(result)
	return result
}

// applyConsensus sets the overall signal, strength and reason from the
// per-indicator tallies. Unanimity is required for a directional signal;
// strength is the fraction of indicators agreeing with the leading
// direction, scaled to 0-100.
func (e *Evaluator) applyConsensus(r *domain.MultiIndicatorResult) {
	buys, sells, total := r.CountSignals()
	if total == 0 {
		r.OverallSignal = domain.SignalHold
		r.SignalStrength = 0
		r.Reason = "no active indicators"
		return
	}

	switch {
	case buys == total:
		r.OverallSignal = domain.SignalBuy
		r.SignalStrength = 100
		r.Reason = fmt.Sprintf("all %d indicators bullish", total)
	case sells == total:
		r.OverallSignal = domain.SignalSell
		r.SignalStrength = 100
		r.Reason = fmt.Sprintf("all %d indicators bearish", total)
	default:
		r.OverallSignal = domain.SignalHold
		leading := buys
		direction := "bullish"
		if sells > buys {
			leading = sells
			direction = "bearish"
		}
		r.SignalStrength = float64(leading) / float64(total) * 100
		r.Reason = fmt.Sprintf("mixed: %d of %d indicators %s", leading, total, direction)
	}
}

// ApplyMacro overlays a macro-risk assessment on a computed result. The
// overlay only adjusts strength: +15 when the regime aligns with the
// signal's direction, -10 when it opposes it, clamped to [0, 100]. The
// direction itself never changes. A nil assessment is a no-op.
func ApplyMacro(r *domain.MultiIndicatorResult, macro *domain.MacroAssessment) {
	if r == nil || macro == nil {
		return
	}
	r.Macro = macro

	var delta float64
	switch {
	case macro.Status == domain.MacroRiskOn && r.OverallSignal == domain.SignalBuy,
		macro.Status == domain.MacroRiskOff && r.OverallSignal == domain.SignalSell:
		delta = 15
	case macro.Status == domain.MacroRiskOff && r.OverallSignal == domain.SignalBuy,
		macro.Status == domain.MacroRiskOn && r.OverallSignal == domain.SignalSell:
		delta = -10
	default:
		return
	}

	r.SignalStrength += delta
	if r.SignalStrength > 100 {
		r.SignalStrength = 100
	}
	if r.SignalStrength < 0 {
		r.SignalStrength = 0
	}
	r.Reason = fmt.Sprintf("%s; macro %s (%+.0f strength)", r.Reason, macro.Status, delta)
}
