package indicator

import "math"

// Bands holds a three-line channel around price.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands returns the latest bands, or nil when fewer than period
// prices exist. Middle is SMA(period); the band width is stdDevMult
// population standard deviations of the window.
func BollingerBands(prices []float64, period int, stdDevMult float64) *Bands {
	mustPositive("Bollinger", period)
	if len(prices) < period {
		return nil
	}

	window := prices[len(prices)-period:]
	mean := 0.0
	for _, p := range window {
		mean += p
	}
	mean /= float64(period)

	variance := 0.0
	for _, p := range window {
		d := p - mean
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))

	return &Bands{
		Upper:  mean + stdDevMult*sd,
		Middle: mean,
		Lower:  mean - stdDevMult*sd,
	}
}

// ATR returns Wilder's Average True Range, or nil when fewer than period+1
// bars exist.
func ATR(highs, lows, closes []float64, period int) *float64 {
	return last(ATRSeries(highs, lows, closes, period))
}

// ATRSeries returns the rolling ATR with nil padding for the first period
// entries. True range uses the prior close; the first smoothed value is a
// simple average of the first period true ranges, after which Wilder's
// smoothing applies: atr = (prevATR*(period-1) + tr) / period.
func ATRSeries(highs, lows, closes []float64, period int) []*float64 {
	mustPositive("ATR", period)
	mustAligned("ATR", len(highs), len(lows), len(closes))

	n := len(closes)
	out := make([]*float64, n)
	if n < period+1 {
		return out
	}

	trs := trueRanges(highs, lows, closes)

	seed := 0.0
	for _, tr := range trs[1 : period+1] {
		seed += tr
	}
	seed /= float64(period)
	out[period] = Float(seed)

	prev := seed
	for i := period + 1; i < n; i++ {
		v := (prev*float64(period-1) + trs[i]) / float64(period)
		out[i] = Float(v)
		prev = v
	}
	return out
}

// trueRanges returns the per-bar true range. Index 0 falls back to
// high-low since there is no prior close.
func trueRanges(highs, lows, closes []float64) []float64 {
	trs := make([]float64, len(closes))
	trs[0] = highs[0] - lows[0]
	for i := 1; i < len(closes); i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		trs[i] = math.Max(hl, math.Max(hc, lc))
	}
	return trs
}

// KeltnerChannels returns the latest channel, or nil when there is not
// enough history for either the EMA middle line or the ATR band width.
func KeltnerChannels(highs, lows, closes []float64, emaPeriod, atrPeriod int, atrMult float64) *Bands {
	mustAligned("Keltner", len(highs), len(lows), len(closes))

	middle := EMA(closes, emaPeriod)
	atr := ATR(highs, lows, closes, atrPeriod)
	if middle == nil || atr == nil {
		return nil
	}
	return &Bands{
		Upper:  *middle + atrMult**atr,
		Middle: *middle,
		Lower:  *middle - atrMult**atr,
	}
}
