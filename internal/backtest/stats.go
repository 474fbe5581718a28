package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"equity-signal-lab/internal/domain"
)

// profitFactorSentinel stands in for an infinite profit factor when a run
// has wins and no losses.
const profitFactorSentinel = 9999

// computeStats derives performance statistics from the trade outcomes and
// the equity curve. A run with no round trips yields zero-valued trade
// stats but still reports equity-curve measures.
func computeStats(initialCapital, finalEquity float64, series *domain.PriceSeries, equity []domain.EquityPoint, trips []roundTrip) domain.PerformanceStats {
	stats := domain.PerformanceStats{
		TotalReturn:        finalEquity - initialCapital,
		IndicatorBreakdown: make(map[string]domain.IndicatorPerformance),
	}
	if initialCapital > 0 {
		stats.TotalReturnPct = stats.TotalReturn / initialCapital * 100
	}
	if n := series.Len(); n > 1 && series.Closes[0] > 0 {
		stats.BuyAndHoldReturnPct = (series.Closes[n-1] - series.Closes[0]) / series.Closes[0] * 100
	}

	applyTripStats(&stats, trips)
	applyEquityStats(&stats, equity)
	return stats
}

func applyTripStats(stats *domain.PerformanceStats, trips []roundTrip) {
	stats.RoundTrips = len(trips)
	if len(trips) == 0 {
		return
	}

	var wins, losses int
	var totalWins, totalLosses float64
	for _, trip := range trips {
		stats.TotalHoldMs += trip.holdMs
		won := trip.pnl > 0
		if won {
			wins++
			totalWins += trip.pnl
			if trip.pnl > stats.LargestWin {
				stats.LargestWin = trip.pnl
			}
		} else {
			losses++
			totalLosses += -trip.pnl
			if trip.pnl < stats.LargestLoss {
				stats.LargestLoss = trip.pnl
			}
		}
		for _, name := range trip.entryIndicators {
			perf := stats.IndicatorBreakdown[name]
			if won {
				perf.Wins++
			} else {
				perf.Losses++
			}
			perf.WinRate = float64(perf.Wins) / float64(perf.Wins+perf.Losses) * 100
			stats.IndicatorBreakdown[name] = perf
		}
	}

	stats.WinRate = float64(wins) / float64(len(trips)) * 100
	stats.AverageHoldMs = stats.TotalHoldMs / int64(len(trips))
	if wins > 0 {
		stats.AverageWin = totalWins / float64(wins)
	}
	if losses > 0 {
		stats.AverageLoss = -totalLosses / float64(losses)
	}
	switch {
	case totalLosses > 0:
		stats.ProfitFactor = totalWins / totalLosses
	case totalWins > 0:
		stats.ProfitFactor = profitFactorSentinel
	}
}

func applyEquityStats(stats *domain.PerformanceStats, equity []domain.EquityPoint) {
	stats.SharpeRatio = sharpeRatio(equity)
	stats.MaxDrawdown, stats.MaxDrawdownPct = maxDrawdown(equity)
}

// sharpeRatio annualizes the per-bar equity returns over a 252-session
// year. Fewer than three points, or a flat curve, reads as zero.
func sharpeRatio(equity []domain.EquityPoint) float64 {
	if len(equity) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1].Equity <= 0 {
			continue
		}
		returns = append(returns, equity[i].Equity/equity[i-1].Equity-1)
	}
	if len(returns) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(252)
}

// maxDrawdown returns the deepest peak-to-trough decline of the curve,
// absolute and as a percentage of the peak.
func maxDrawdown(equity []domain.EquityPoint) (float64, float64) {
	var peak, worst, worstPct float64
	for _, point := range equity {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := peak - point.Equity
		if dd > worst {
			worst = dd
			worstPct = dd / peak * 100
		}
	}
	return worst, worstPct
}
