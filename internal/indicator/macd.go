package indicator

// MACDValue holds one point of the MACD computation.
// Invariant: Histogram == MACD - Signal.
type MACDValue struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD returns the latest MACD value, or nil when fewer than
// slowPeriod+signalPeriod prices exist.
func MACD(prices []float64, fastPeriod, slowPeriod, signalPeriod int) *MACDValue {
	macdLine, signalLine, histogram := MACDSeries(prices, fastPeriod, slowPeriod, signalPeriod)
	for i := len(prices) - 1; i >= 0; i-- {
		if macdLine[i] != nil && signalLine[i] != nil {
			return &MACDValue{
				MACD:      *macdLine[i],
				Signal:    *signalLine[i],
				Histogram: *histogram[i],
			}
		}
	}
	return nil
}

// MACDSeries returns the MACD line, signal line and histogram as parallel
// nullable series. The MACD line is EMA(fast)-EMA(slow); the signal line is
// an EMA(signalPeriod) of the MACD line; the histogram is their difference.
// All three are nil until slowPeriod+signalPeriod prices are available.
func MACDSeries(prices []float64, fastPeriod, slowPeriod, signalPeriod int) (macdLine, signalLine, histogram []*float64) {
	mustPositive("MACD fast", fastPeriod)
	mustPositive("MACD slow", slowPeriod)
	mustPositive("MACD signal", signalPeriod)

	n := len(prices)
	macdLine = make([]*float64, n)
	signalLine = make([]*float64, n)
	histogram = make([]*float64, n)
	if n < slowPeriod+signalPeriod {
		return macdLine, signalLine, histogram
	}

	fast := EMASeries(prices, fastPeriod)
	slow := EMASeries(prices, slowPeriod)
	for i := 0; i < n; i++ {
		if fast[i] != nil && slow[i] != nil {
			macdLine[i] = Float(*fast[i] - *slow[i])
		}
	}

	signalLine = emaOfNullable(macdLine, signalPeriod)
	for i := 0; i < n; i++ {
		if macdLine[i] != nil && signalLine[i] != nil {
			histogram[i] = Float(*macdLine[i] - *signalLine[i])
		}
	}
	return macdLine, signalLine, histogram
}
