package indicator

// SMA returns the simple moving average of the last period prices,
// or nil when fewer than period prices exist.
func SMA(prices []float64, period int) *float64 {
	mustPositive("SMA", period)
	if len(prices) < period {
		return nil
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return Float(sum / float64(period))
}

// SMASeries returns the rolling simple moving average. Entries before the
// window is full are nil.
func SMASeries(prices []float64, period int) []*float64 {
	mustPositive("SMA", period)
	out := make([]*float64, len(prices))
	if len(prices) < period {
		return out
	}

	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = Float(sum / float64(period))
		}
	}
	return out
}

// EMA returns the exponential moving average of prices, or nil when fewer
// than period prices exist. The EMA seeds from the simple average of the
// first period values, then applies multiplier 2/(period+1).
func EMA(prices []float64, period int) *float64 {
	return last(EMASeries(prices, period))
}

// EMASeries returns the rolling exponential moving average with nil padding
// for the first period-1 entries. The entry at index period-1 is the SMA
// seed.
func EMASeries(prices []float64, period int) []*float64 {
	mustPositive("EMA", period)
	out := make([]*float64, len(prices))
	if len(prices) < period {
		return out
	}

	seed := 0.0
	for _, p := range prices[:period] {
		seed += p
	}
	seed /= float64(period)
	out[period-1] = Float(seed)

	k := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(prices); i++ {
		v := prices[i]*k + prev*(1-k)
		out[i] = Float(v)
		prev = v
	}
	return out
}

// emaOfNullable computes an EMA over a nullable series, treating the leading
// nil run as absent history. Used for the MACD signal line.
func emaOfNullable(series []*float64, period int) []*float64 {
	out := make([]*float64, len(series))

	// Find the first defined value.
	start := -1
	for i, v := range series {
		if v != nil {
			start = i
			break
		}
	}
	if start < 0 || len(series)-start < period {
		return out
	}

	dense := make([]float64, 0, len(series)-start)
	for _, v := range series[start:] {
		dense = append(dense, *v)
	}

	ema := EMASeries(dense, period)
	for i, v := range ema {
		out[start+i] = v
	}
	return out
}
