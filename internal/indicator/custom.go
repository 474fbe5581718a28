package indicator

import (
	"fmt"

	"equity-signal-lab/internal/domain"
)

// EvaluateCustom runs one configured indicator against a series and applies
// its condition. The config's type selects the computation, the condition
// compares the computed value to the threshold, and the result carries
// current and previous values in metadata for auditability.
//
// Insufficient history yields {nil, HOLD, reason}, never an error. Unknown
// types and conditions are configuration mistakes and also degrade to HOLD.
func EvaluateCustom(cfg domain.CustomIndicatorConfig, s *domain.PriceSeries) domain.IndicatorResult {
	cfg.ApplyDefaults()

	series, err := customSeries(cfg, s)
	if err != nil {
		return domain.HoldResult(err.Error())
	}

	n := len(series)
	if n == 0 || series[n-1] == nil {
		return domain.HoldResult(fmt.Sprintf("%s: insufficient history for %s", cfg.Name, cfg.Type))
	}
	current := *series[n-1]

	var previous *float64
	if n >= 2 && series[n-2] != nil {
		previous = series[n-2]
	}

	meta := map[string]float64{
		"current":   current,
		"threshold": cfg.Threshold,
	}
	if previous != nil {
		meta["previous"] = *previous
	}

	fired, reason, err := applyCondition(cfg, current, previous)
	if err != nil {
		return domain.HoldResult(err.Error())
	}

	result := domain.IndicatorResult{
		Value:    Float(current),
		Signal:   domain.SignalHold,
		Reason:   reason,
		Metadata: meta,
	}
	if fired {
		result.Signal = cfg.SignalOnMatch
	}
	return result
}

// applyCondition evaluates the configured comparison. Crossover conditions
// fire only on the transition bar: the previous value on the threshold's
// near side, the current value past it.
func applyCondition(cfg domain.CustomIndicatorConfig, current float64, previous *float64) (bool, string, error) {
	t := cfg.Threshold
	switch cfg.Condition {
	case domain.ConditionGreaterThan:
		return current > t, fmt.Sprintf("%s: %.4f > %.4f is %t", cfg.Name, current, t, current > t), nil
	case domain.ConditionLessThan:
		return current < t, fmt.Sprintf("%s: %.4f < %.4f is %t", cfg.Name, current, t, current < t), nil
	case domain.ConditionCrossOverAbove:
		if previous == nil {
			return false, fmt.Sprintf("%s: no previous value for crossover", cfg.Name), nil
		}
		fired := *previous <= t && current > t
		return fired, fmt.Sprintf("%s: crossover above %.4f (prev %.4f, curr %.4f) is %t", cfg.Name, t, *previous, current, fired), nil
	case domain.ConditionCrossOverBelow:
		if previous == nil {
			return false, fmt.Sprintf("%s: no previous value for crossover", cfg.Name), nil
		}
		fired := *previous >= t && current < t
		return fired, fmt.Sprintf("%s: crossover below %.4f (prev %.4f, curr %.4f) is %t", cfg.Name, t, *previous, current, fired), nil
	default:
		return false, "", fmt.Errorf("%s: unknown condition %q", cfg.Name, cfg.Condition)
	}
}

// customSeries computes the nullable value series for the configured type.
func customSeries(cfg domain.CustomIndicatorConfig, s *domain.PriceSeries) ([]*float64, error) {
	switch cfg.Type {
	case domain.CustomTypeSMA:
		return SMASeries(s.Closes, cfg.Period), nil
	case domain.CustomTypeEMA:
		return EMASeries(s.Closes, cfg.Period), nil
	case domain.CustomTypeRSI:
		return RSISeries(s.Closes, cfg.Period), nil
	case domain.CustomTypeMACD:
		macdLine, _, _ := MACDSeries(s.Closes, cfg.FastPeriod, cfg.SlowPeriod, cfg.SignalPeriod)
		return macdLine, nil
	case domain.CustomTypeMACDSignal:
		_, signalLine, _ := MACDSeries(s.Closes, cfg.FastPeriod, cfg.SlowPeriod, cfg.SignalPeriod)
		return signalLine, nil
	case domain.CustomTypeMACDHistogram:
		_, _, histogram := MACDSeries(s.Closes, cfg.FastPeriod, cfg.SlowPeriod, cfg.SignalPeriod)
		return histogram, nil
	case domain.CustomTypeATR:
		return ATRSeries(s.Highs, s.Lows, s.Closes, cfg.Period), nil
	case domain.CustomTypeROC:
		return ROCSeries(s.Closes, cfg.Period), nil
	case domain.CustomTypeCCI:
		return CCISeries(s.Highs, s.Lows, s.Closes, cfg.Period), nil
	case domain.CustomTypeMFI:
		return MFISeries(s.Highs, s.Lows, s.Closes, s.Volumes, cfg.Period), nil
	case domain.CustomTypeWilliamsR:
		return WilliamsRSeries(s.Highs, s.Lows, s.Closes, cfg.Period), nil
	case domain.CustomTypeOBV:
		return OBVSeries(s.Closes, s.Volumes), nil
	case domain.CustomTypeADX:
		return ADXSeries(s.Highs, s.Lows, s.Closes, cfg.Period), nil
	default:
		return nil, fmt.Errorf("%s: unknown indicator type %q", cfg.Name, cfg.Type)
	}
}
