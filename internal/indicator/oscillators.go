package indicator

import "math"

// CCI returns the Commodity Channel Index over the trailing period window,
// or nil when fewer than period bars exist. A zero mean deviation yields 0.
func CCI(highs, lows, closes []float64, period int) *float64 {
	return last(CCISeries(highs, lows, closes, period))
}

// CCISeries returns the rolling CCI:
// (TP - SMA(TP)) / (0.015 * mean absolute deviation), TP = (H+L+C)/3.
func CCISeries(highs, lows, closes []float64, period int) []*float64 {
	mustPositive("CCI", period)
	mustAligned("CCI", len(highs), len(lows), len(closes))

	n := len(closes)
	out := make([]*float64, n)
	if n < period {
		return out
	}

	tp := typicalPrices(highs, lows, closes)
	for i := period - 1; i < n; i++ {
		window := tp[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		meanDev := 0.0
		for _, v := range window {
			meanDev += math.Abs(v - mean)
		}
		meanDev /= float64(period)

		if meanDev == 0 {
			out[i] = Float(0)
			continue
		}
		out[i] = Float((tp[i] - mean) / (0.015 * meanDev))
	}
	return out
}

// MFI returns the Money Flow Index over the trailing period window, or nil
// when fewer than period+1 bars exist. When negative flow is zero the MFI
// is 100.
func MFI(highs, lows, closes, volumes []float64, period int) *float64 {
	return last(MFISeries(highs, lows, closes, volumes, period))
}

// MFISeries returns the rolling MFI. Raw money flow TP*volume is classified
// positive or negative by comparing each bar's typical price to the prior
// bar's within the window.
func MFISeries(highs, lows, closes, volumes []float64, period int) []*float64 {
	mustPositive("MFI", period)
	mustAligned("MFI", len(highs), len(lows), len(closes), len(volumes))

	n := len(closes)
	out := make([]*float64, n)
	if n < period+1 {
		return out
	}

	tp := typicalPrices(highs, lows, closes)
	for i := period; i < n; i++ {
		positive := 0.0
		negative := 0.0
		for j := i - period + 1; j <= i; j++ {
			flow := tp[j] * volumes[j]
			switch {
			case tp[j] > tp[j-1]:
				positive += flow
			case tp[j] < tp[j-1]:
				negative += flow
			}
		}
		if negative == 0 {
			out[i] = Float(100)
			continue
		}
		ratio := positive / negative
		out[i] = Float(100 - 100/(1+ratio))
	}
	return out
}

func typicalPrices(highs, lows, closes []float64) []float64 {
	tp := make([]float64, len(closes))
	for i := range closes {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	return tp
}
