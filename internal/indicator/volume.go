package indicator

// OBV returns the latest On-Balance Volume. A single bar yields 0; OBV is
// always computable.
func OBV(closes, volumes []float64) float64 {
	series := OBVSeries(closes, volumes)
	if len(series) == 0 {
		return 0
	}
	return *series[len(series)-1]
}

// OBVSeries returns the cumulative On-Balance Volume, starting at 0. Volume
// is added on up-closes and subtracted on down-closes; unchanged closes
// leave OBV flat.
func OBVSeries(closes, volumes []float64) []*float64 {
	mustAligned("OBV", len(closes), len(volumes))

	out := make([]*float64, len(closes))
	if len(closes) == 0 {
		return out
	}

	obv := 0.0
	out[0] = Float(0)
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv += volumes[i]
		case closes[i] < closes[i-1]:
			obv -= volumes[i]
		}
		out[i] = Float(obv)
	}
	return out
}
