// Package verification re-runs backtests with identical inputs and checks
// that stored trades and equity curves match the replayed run. Divergence
// means the simulation is not deterministic or the stored data was altered.
package verification

import (
	"fmt"
	"math"

	"equity-signal-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name, prefixed with the trade or point position
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the outcome of verifying one run.
type VerificationResult struct {
	RunID       string
	Match       bool
	Divergences []FieldDivergence
}

// CompareTrades compares a stored trade list against a replayed one.
func CompareTrades(stored, replayed []*domain.Trade) []FieldDivergence {
	var divergences []FieldDivergence

	if len(stored) != len(replayed) {
		divergences = append(divergences, FieldDivergence{
			Field:    "TradeCount",
			Expected: len(stored),
			Actual:   len(replayed),
		})
		return divergences
	}

	for i := range stored {
		divergences = append(divergences, compareTrade(i, stored[i], replayed[i])...)
	}
	return divergences
}

func compareTrade(i int, stored, replayed *domain.Trade) []FieldDivergence {
	var divergences []FieldDivergence

	field := func(name string) string {
		return fmt.Sprintf("Trades[%d].%s", i, name)
	}

	if stored.TradeID != replayed.TradeID {
		divergences = append(divergences, FieldDivergence{
			Field:    field("TradeID"),
			Expected: stored.TradeID,
			Actual:   replayed.TradeID,
		})
	}

	if stored.TimestampMs != replayed.TimestampMs {
		divergences = append(divergences, FieldDivergence{
			Field:    field("TimestampMs"),
			Expected: stored.TimestampMs,
			Actual:   replayed.TimestampMs,
		})
	}

	if stored.Action != replayed.Action {
		divergences = append(divergences, FieldDivergence{
			Field:    field("Action"),
			Expected: stored.Action,
			Actual:   replayed.Action,
		})
	}

	if stored.Symbol != replayed.Symbol {
		divergences = append(divergences, FieldDivergence{
			Field:    field("Symbol"),
			Expected: stored.Symbol,
			Actual:   replayed.Symbol,
		})
	}

	if !floatEquals(stored.Price, replayed.Price) {
		divergences = append(divergences, FieldDivergence{
			Field:    field("Price"),
			Expected: stored.Price,
			Actual:   replayed.Price,
		})
	}

	if !floatEquals(stored.Quantity, replayed.Quantity) {
		divergences = append(divergences, FieldDivergence{
			Field:    field("Quantity"),
			Expected: stored.Quantity,
			Actual:   replayed.Quantity,
		})
	}

	if stored.Reason != replayed.Reason {
		divergences = append(divergences, FieldDivergence{
			Field:    field("Reason"),
			Expected: stored.Reason,
			Actual:   replayed.Reason,
		})
	}

	return divergences
}

// CompareEquityCurves compares a stored equity curve against a replayed one.
// The curve label prefixes divergence field names.
func CompareEquityCurves(curve string, stored, replayed []domain.EquityPoint) []FieldDivergence {
	var divergences []FieldDivergence

	if len(stored) != len(replayed) {
		divergences = append(divergences, FieldDivergence{
			Field:    curve + ".PointCount",
			Expected: len(stored),
			Actual:   len(replayed),
		})
		return divergences
	}

	for i := range stored {
		if stored[i].TimestampMs != replayed[i].TimestampMs {
			divergences = append(divergences, FieldDivergence{
				Field:    fmt.Sprintf("%s[%d].TimestampMs", curve, i),
				Expected: stored[i].TimestampMs,
				Actual:   replayed[i].TimestampMs,
			})
		}
		if !floatEquals(stored[i].Equity, replayed[i].Equity) {
			divergences = append(divergences, FieldDivergence{
				Field:    fmt.Sprintf("%s[%d].Equity", curve, i),
				Expected: stored[i].Equity,
				Actual:   replayed[i].Equity,
			})
		}
	}
	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
