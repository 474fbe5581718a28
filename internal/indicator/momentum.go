package indicator

// RSI returns Wilder's Relative Strength Index over the last period changes,
// or nil when fewer than period+1 prices exist. When the average loss is
// zero the RSI is 100; there is never a division by zero.
func RSI(prices []float64, period int) *float64 {
	return last(RSISeries(prices, period))
}

// RSISeries returns the rolling RSI with nil padding for the first period
// entries. Average gain and loss use Wilder's smoothing:
// avg = (prevAvg*(period-1) + current) / period.
func RSISeries(prices []float64, period int) []*float64 {
	mustPositive("RSI", period)
	out := make([]*float64, len(prices))
	if len(prices) < period+1 {
		return out
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = Float(rsiFromAverages(avgGain, avgLoss))

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = Float(rsiFromAverages(avgGain, avgLoss))
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ROC returns the rate of change in percent against the price period bars
// back, or nil when fewer than period+1 prices exist.
func ROC(prices []float64, period int) *float64 {
	return last(ROCSeries(prices, period))
}

// ROCSeries returns the rolling rate of change with nil padding for the
// first period entries. A zero reference price yields nil, not infinity.
func ROCSeries(prices []float64, period int) []*float64 {
	mustPositive("ROC", period)
	out := make([]*float64, len(prices))
	for i := period; i < len(prices); i++ {
		ref := prices[i-period]
		if ref == 0 {
			continue
		}
		out[i] = Float((prices[i] - ref) / ref * 100)
	}
	return out
}

// WilliamsR returns Williams %R over the trailing period window, or nil when
// fewer than period bars exist. A flat window (zero range) yields 0.
func WilliamsR(highs, lows, closes []float64, period int) *float64 {
	return last(WilliamsRSeries(highs, lows, closes, period))
}

// WilliamsRSeries returns the rolling Williams %R:
// ((highestHigh - close) / (highestHigh - lowestLow)) * -100.
func WilliamsRSeries(highs, lows, closes []float64, period int) []*float64 {
	mustPositive("Williams %R", period)
	mustAligned("Williams %R", len(highs), len(lows), len(closes))

	out := make([]*float64, len(closes))
	for i := period - 1; i < len(closes); i++ {
		hh, ll := windowExtremes(highs, lows, i-period+1, i)
		r := hh - ll
		if r == 0 {
			out[i] = Float(0)
			continue
		}
		out[i] = Float((hh - closes[i]) / r * -100)
	}
	return out
}

// StochasticValue holds the %K and %D lines.
type StochasticValue struct {
	K float64
	D float64
}

// Stochastic returns the latest %K and %D, or nil when fewer than
// kPeriod+dPeriod-1 bars exist. %K is the position of the close within the
// trailing kPeriod range; %D is an SMA(dPeriod) of %K. A flat window yields
// %K of 50 (mid-range, no directional information).
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) *StochasticValue {
	mustPositive("Stochastic %K", kPeriod)
	mustPositive("Stochastic %D", dPeriod)
	mustAligned("Stochastic", len(highs), len(lows), len(closes))

	n := len(closes)
	if n < kPeriod+dPeriod-1 {
		return nil
	}

	kSeries := make([]float64, 0, n-kPeriod+1)
	for i := kPeriod - 1; i < n; i++ {
		hh, ll := windowExtremes(highs, lows, i-kPeriod+1, i)
		r := hh - ll
		if r == 0 {
			kSeries = append(kSeries, 50)
			continue
		}
		kSeries = append(kSeries, (closes[i]-ll)/r*100)
	}

	d := SMA(kSeries, dPeriod)
	if d == nil {
		return nil
	}
	return &StochasticValue{K: kSeries[len(kSeries)-1], D: *d}
}

// windowExtremes returns the highest high and lowest low over bars
// [start, end] inclusive.
func windowExtremes(highs, lows []float64, start, end int) (hh, ll float64) {
	hh, ll = highs[start], lows[start]
	for i := start + 1; i <= end; i++ {
		if highs[i] > hh {
			hh = highs[i]
		}
		if lows[i] < ll {
			ll = lows[i]
		}
	}
	return hh, ll
}
