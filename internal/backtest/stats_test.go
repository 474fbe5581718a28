package backtest

import (
	"math"
	"testing"

	"equity-signal-lab/internal/domain"
)

func TestComputeStats_WinLossBreakdown(t *testing.T) {
	trips := []roundTrip{
		{pnl: 500, holdMs: 60000, entryIndicators: []string{"momentum", "volume"}},
		{pnl: -200, holdMs: 120000, entryIndicators: []string{"momentum"}},
		{pnl: 300, holdMs: 60000, entryIndicators: []string{"volume"}},
	}
	stats := computeStats(100000, 100600, nil, nil, trips)

	if stats.RoundTrips != 3 {
		t.Errorf("expected 3 round trips, got %d", stats.RoundTrips)
	}
	if math.Abs(stats.WinRate-200.0/3) > 1e-9 {
		t.Errorf("expected win rate 66.7, got %v", stats.WinRate)
	}
	if stats.AverageWin != 400 || stats.AverageLoss != -200 {
		t.Errorf("expected avg win 400 / avg loss -200, got %v / %v", stats.AverageWin, stats.AverageLoss)
	}
	if stats.LargestWin != 500 || stats.LargestLoss != -200 {
		t.Errorf("largest win/loss wrong: %v / %v", stats.LargestWin, stats.LargestLoss)
	}
	if math.Abs(stats.ProfitFactor-4) > 1e-9 {
		t.Errorf("expected profit factor 800/200 = 4, got %v", stats.ProfitFactor)
	}
	if stats.AverageHoldMs != 80000 || stats.TotalHoldMs != 240000 {
		t.Errorf("hold times wrong: %d / %d", stats.AverageHoldMs, stats.TotalHoldMs)
	}

	momentum := stats.IndicatorBreakdown["momentum"]
	if momentum.Wins != 1 || momentum.Losses != 1 || momentum.WinRate != 50 {
		t.Errorf("momentum breakdown wrong: %+v", momentum)
	}
	volume := stats.IndicatorBreakdown["volume"]
	if volume.Wins != 2 || volume.Losses != 0 || volume.WinRate != 100 {
		t.Errorf("volume breakdown wrong: %+v", volume)
	}
}

func TestComputeStats_ProfitFactorSentinel(t *testing.T) {
	trips := []roundTrip{{pnl: 100}, {pnl: 50}}
	stats := computeStats(100000, 100150, nil, nil, trips)
	if stats.ProfitFactor != profitFactorSentinel {
		t.Errorf("wins without losses must use the sentinel, got %v", stats.ProfitFactor)
	}

	stats = computeStats(100000, 99900, nil, nil, []roundTrip{{pnl: -100}})
	if stats.ProfitFactor != 0 {
		t.Errorf("losses without wins read zero, got %v", stats.ProfitFactor)
	}
}

func TestComputeStats_NoTrips(t *testing.T) {
	stats := computeStats(100000, 100000, nil, nil, nil)
	if stats.RoundTrips != 0 || stats.WinRate != 0 || stats.ProfitFactor != 0 {
		t.Errorf("empty run must zero trade stats, got %+v", stats)
	}
	if stats.TotalReturn != 0 || stats.TotalReturnPct != 0 {
		t.Errorf("flat equity must zero returns, got %+v", stats)
	}
}

func TestMaxDrawdown(t *testing.T) {
	equity := []domain.EquityPoint{
		{TimestampMs: 0, Equity: 100},
		{TimestampMs: 1, Equity: 120},
		{TimestampMs: 2, Equity: 90},
		{TimestampMs: 3, Equity: 110},
		{TimestampMs: 4, Equity: 105},
	}
	dd, ddPct := maxDrawdown(equity)
	if dd != 30 {
		t.Errorf("expected drawdown 30, got %v", dd)
	}
	if math.Abs(ddPct-25) > 1e-9 {
		t.Errorf("expected 25%%, got %v", ddPct)
	}
}

func TestSharpeRatio_FlatCurveIsZero(t *testing.T) {
	equity := []domain.EquityPoint{{Equity: 100}, {Equity: 100}, {Equity: 100}}
	if got := sharpeRatio(equity); got != 0 {
		t.Errorf("flat curve must read 0, got %v", got)
	}
	if got := sharpeRatio(equity[:2]); got != 0 {
		t.Errorf("short curve must read 0, got %v", got)
	}
}
