package domain

// Exit reason codes, in priority order.
const (
	ExitReasonTakeProfit   = "TAKE_PROFIT"
	ExitReasonStopLoss     = "STOP_LOSS"
	ExitReasonTrailingStop = "TRAILING_STOP"
	ExitReasonTimeLimit    = "TIME_LIMIT"
	ExitReasonMarketClose  = "MARKET_CLOSE"
	ExitReasonPartialExit  = "PARTIAL_EXIT"
	ExitReasonEndOfData    = "END_OF_DATA"
)

// Trade is one executed backtest order.
type Trade struct {
	TradeID     string
	TimestampMs int64
	Action      TradeAction
	Symbol      string
	Price       float64
	Quantity    float64
	Reason      string
	// SignalData carries the entry evaluation snapshot; nil on exits.
	SignalData *MultiIndicatorResult
}

// Position is the open-position state of one simulation run. Owned
// exclusively by that run; never shared across symbols.
type Position struct {
	EntryPrice       float64
	Quantity         float64
	// OriginalQuantity is the quantity at entry; scaled-exit stages are
	// sized against it, not the remaining quantity.
	OriginalQuantity float64
	EntryTimestampMs int64
	EntryBar         int
	// HighestPrice is the running peak while in position, for the
	// trailing stop.
	HighestPrice float64
	// ExecutedExitStages records scaled-exit stage indices that already
	// fired; each stage fires once per position lifetime.
	ExecutedExitStages map[int]bool
	// EntryIndicators are the indicator names that signaled BUY at entry,
	// for the per-indicator win-rate breakdown.
	EntryIndicators []string
}

// Open reports whether any quantity remains.
func (p *Position) Open() bool {
	return p != nil && p.Quantity > 0
}

// EquityPoint is one mark-to-market sample of the equity curve.
type EquityPoint struct {
	TimestampMs int64
	Equity      float64
}

// IndicatorPerformance attributes round-trip outcomes to an indicator that
// signaled BUY at entry.
type IndicatorPerformance struct {
	Wins    int
	Losses  int
	WinRate float64
}

// PerformanceStats summarizes a backtest run.
type PerformanceStats struct {
	TotalTrades int
	RoundTrips  int

	TotalReturn         float64
	TotalReturnPct      float64
	BuyAndHoldReturnPct float64

	WinRate     float64
	AverageWin  float64
	AverageLoss float64
	LargestWin  float64
	LargestLoss float64
	// ProfitFactor is totalWins/totalLosses; a large sentinel when there
	// are wins and no losses.
	ProfitFactor float64

	SharpeRatio    float64
	MaxDrawdown    float64
	MaxDrawdownPct float64

	AverageHoldMs int64
	TotalHoldMs   int64

	IndicatorBreakdown map[string]IndicatorPerformance
}

// BacktestResult is the full outcome of one symbol's simulation.
type BacktestResult struct {
	// RunID is the deterministic hash of the run parameters; empty for
	// an empty series.
	RunID                 string
	Symbol                string
	InitialCapital        float64
	FinalEquity           float64
	Trades                []Trade
	EquityCurve           []EquityPoint
	BuyAndHoldEquityCurve []EquityPoint
	Stats                 PerformanceStats
}

// PortfolioBacktestResult aggregates independent per-symbol runs.
type PortfolioBacktestResult struct {
	Results        map[string]*BacktestResult
	CombinedEquity []EquityPoint
	InitialCapital float64
	FinalEquity    float64
	TotalReturnPct float64
	SharpeRatio    float64
	MaxDrawdown    float64
	MaxDrawdownPct float64
}

// BacktestSummary is the persisted header row for a completed run.
type BacktestSummary struct {
	RunID          string
	Symbol         string
	StartMs        int64
	EndMs          int64
	InitialCapital float64
	FinalEquity    float64
	TotalReturnPct float64
	SharpeRatio    float64
	MaxDrawdownPct float64
	TradeCount     int
}
