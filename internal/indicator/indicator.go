// Package indicator implements technical-indicator computations over aligned
// OHLCV slices. Every function is pure and side-effect free.
//
// Contract: insufficient history is never an error. Scalar functions return
// nil and series functions return leading nil padding instead. Invalid
// periods and misaligned input arrays are programmer errors and panic.
package indicator

import "fmt"

// Float returns a pointer to v. Convenience for nullable results.
func Float(v float64) *float64 {
	return &v
}

func mustPositive(name string, period int) {
	if period <= 0 {
		panic(fmt.Sprintf("indicator: %s period must be positive, got %d", name, period))
	}
}

func mustAligned(name string, lengths ...int) {
	for i := 1; i < len(lengths); i++ {
		if lengths[i] != lengths[0] {
			panic(fmt.Sprintf("indicator: %s input arrays are misaligned", name))
		}
	}
}

// last returns the trailing non-nil value of a nullable series, or nil.
func last(series []*float64) *float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i] != nil {
			return series[i]
		}
	}
	return nil
}
