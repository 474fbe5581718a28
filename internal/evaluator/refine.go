package evaluator

import (
	"context"
	"fmt"

	"equity-signal-lab/internal/domain"
)

// Refiner is an optional collaborator that can second-guess the rule-based
// consensus, for example an external scoring service. Implementations may
// block; the context bounds the call.
type Refiner interface {
	RefineSignal(ctx context.Context, symbol string, result *domain.MultiIndicatorResult, series *domain.PriceSeries) (*domain.Refinement, error)
}

// EvaluateRefined runs the standard evaluation and then offers the result
// to the refiner. Any refiner failure, absence, or invalid output leaves
// the rule-based result untouched: the collaborator is advisory, never a
// dependency.
func (e *Evaluator) EvaluateRefined(ctx context.Context, refiner Refiner, symbol string, series, index *domain.PriceSeries) *domain.MultiIndicatorResult {
	result := e.Evaluate(series, index)
	if refiner == nil {
		return result
	}

	refinement, err := refiner.RefineSignal(ctx, symbol, result, series)
	if err != nil || refinement == nil {
		return result
	}
	switch refinement.RefinedSignal {
	case domain.SignalBuy, domain.SignalSell, domain.SignalHold:
	default:
		return result
	}

	result.OverallSignal = refinement.RefinedSignal
	result.SignalStrength = clamp(refinement.ConfidenceScore, 0, 100)
	if refinement.Reasoning != "" {
		result.Reason = fmt.Sprintf("%s; refined: %s", result.Reason, refinement.Reasoning)
	}
	return result
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
