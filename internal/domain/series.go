package domain

import (
	"errors"
	"math"
)

// ErrSeriesMisaligned indicates provider arrays of unequal length.
// This is a data-integrity fault, not missing history.
var ErrSeriesMisaligned = errors.New("price series arrays are misaligned")

// PriceSeries holds aligned OHLCV arrays in ascending chronological order.
// Indices align 1:1 across all slices. Rows with missing values are dropped
// at construction, never mid-series.
type PriceSeries struct {
	Opens      []float64
	Highs      []float64
	Lows       []float64
	Closes     []float64
	Volumes    []float64
	Timestamps []int64 // Unix timestamp in milliseconds
}

// NewPriceSeries builds a PriceSeries from raw provider arrays, dropping any
// row where a field is nil or NaN. Providers frequently return sparse arrays
// with null padding at the edges; filtering happens here so downstream code
// can assume dense, aligned slices.
// Returns ErrSeriesMisaligned when input lengths differ.
func NewPriceSeries(opens, highs, lows, closes, volumes []*float64, timestamps []int64) (*PriceSeries, error) {
	n := len(timestamps)
	if len(opens) != n || len(highs) != n || len(lows) != n || len(closes) != n || len(volumes) != n {
		return nil, ErrSeriesMisaligned
	}

	s := &PriceSeries{
		Opens:      make([]float64, 0, n),
		Highs:      make([]float64, 0, n),
		Lows:       make([]float64, 0, n),
		Closes:     make([]float64, 0, n),
		Volumes:    make([]float64, 0, n),
		Timestamps: make([]int64, 0, n),
	}

	for i := 0; i < n; i++ {
		if !validValue(opens[i]) || !validValue(highs[i]) || !validValue(lows[i]) ||
			!validValue(closes[i]) || !validValue(volumes[i]) {
			continue
		}
		s.Opens = append(s.Opens, *opens[i])
		s.Highs = append(s.Highs, *highs[i])
		s.Lows = append(s.Lows, *lows[i])
		s.Closes = append(s.Closes, *closes[i])
		s.Volumes = append(s.Volumes, *volumes[i])
		s.Timestamps = append(s.Timestamps, timestamps[i])
	}

	return s, nil
}

// NewDensePriceSeries wraps already-dense arrays without copying.
// Returns ErrSeriesMisaligned when lengths differ.
func NewDensePriceSeries(opens, highs, lows, closes, volumes []float64, timestamps []int64) (*PriceSeries, error) {
	n := len(timestamps)
	if len(opens) != n || len(highs) != n || len(lows) != n || len(closes) != n || len(volumes) != n {
		return nil, ErrSeriesMisaligned
	}
	return &PriceSeries{
		Opens:      opens,
		Highs:      highs,
		Lows:       lows,
		Closes:     closes,
		Volumes:    volumes,
		Timestamps: timestamps,
	}, nil
}

func validValue(v *float64) bool {
	return v != nil && !math.IsNaN(*v)
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Closes)
}

// Slice returns the sub-series covering bars [start, end).
// The returned series shares backing arrays with the receiver; callers must
// treat it as read-only.
func (s *PriceSeries) Slice(start, end int) *PriceSeries {
	if start < 0 {
		start = 0
	}
	if end > s.Len() {
		end = s.Len()
	}
	if start > end {
		start = end
	}
	return &PriceSeries{
		Opens:      s.Opens[start:end],
		Highs:      s.Highs[start:end],
		Lows:       s.Lows[start:end],
		Closes:     s.Closes[start:end],
		Volumes:    s.Volumes[start:end],
		Timestamps: s.Timestamps[start:end],
	}
}

// TrailingWindow returns the window of at most maxBars bars ending at bar i
// (inclusive). This is the bounded recompute window used by the backtest.
func (s *PriceSeries) TrailingWindow(i, maxBars int) *PriceSeries {
	end := i + 1
	start := end - maxBars
	return s.Slice(start, end)
}
