package indicator

import "math"

// ADX returns the latest Average Directional Index, or nil when fewer than
// 2*period bars exist.
func ADX(highs, lows, closes []float64, period int) *float64 {
	return last(ADXSeries(highs, lows, closes, period))
}

// ADXSeries returns the rolling ADX with 2*period-1 entries of leading nil
// padding.
//
// +DM/-DM/TR are accumulated with Wilder's running-sum smoothing, which is
// not a simple average: smooth = smooth - smooth/period + new. DX is
// |+DI - -DI| / (+DI + -DI) * 100, and the ADX itself is the Wilder-smoothed
// DX sum divided by period.
func ADXSeries(highs, lows, closes []float64, period int) []*float64 {
	mustPositive("ADX", period)
	mustAligned("ADX", len(highs), len(lows), len(closes))

	n := len(closes)
	out := make([]*float64, n)
	if n < 2*period {
		return out
	}

	trs := trueRanges(highs, lows, closes)

	// Directional movement per bar, defined from bar 1.
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Seed the smoothed sums from the first period bars of movement.
	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += trs[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dxAt := func() float64 {
		if smTR == 0 {
			return 0
		}
		plusDI := smPlus / smTR * 100
		minusDI := smMinus / smTR * 100
		sum := plusDI + minusDI
		if sum == 0 {
			return 0
		}
		return math.Abs(plusDI-minusDI) / sum * 100
	}

	// DX values become available at bar index period; the first ADX needs
	// period of them, landing at index 2*period-1.
	dxSum := dxAt()
	for i := period + 1; i < 2*period; i++ {
		smTR = smTR - smTR/float64(period) + trs[i]
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		dxSum += dxAt()
	}
	out[2*period-1] = Float(dxSum / float64(period))

	for i := 2 * period; i < n; i++ {
		smTR = smTR - smTR/float64(period) + trs[i]
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		dxSum = dxSum - dxSum/float64(period) + dxAt()
		out[i] = Float(dxSum / float64(period))
	}
	return out
}
