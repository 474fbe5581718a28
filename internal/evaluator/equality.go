package evaluator

import "equity-signal-lab/internal/domain"

// SignalSetsEqual reports whether two evaluation results describe the same
// decision: the same overall direction and the same per-indicator
// directions over the same indicator set. Values, strengths, and reasons
// are ignored so that tiny numeric drift does not register as a change.
// Callers use this for change detection between consecutive evaluations.
func SignalSetsEqual(a, b *domain.MultiIndicatorResult) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.OverallSignal != b.OverallSignal {
		return false
	}
	return signalMapsEqual(a.Indicators, b.Indicators) &&
		signalMapsEqual(a.CustomIndicators, b.CustomIndicators)
}

func signalMapsEqual(a, b map[string]domain.IndicatorResult) bool {
	if len(a) != len(b) {
		return false
	}
	for name, ra := range a {
		rb, ok := b[name]
		if !ok || ra.Signal != rb.Signal {
			return false
		}
	}
	return true
}
