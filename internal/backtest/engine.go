// Package backtest replays an evaluator-driven strategy bar by bar over
// historical OHLCV data. Each symbol runs as an isolated state machine
// (flat or in-position) with its own cash, trade list and equity curve;
// nothing is shared across symbols.
package backtest

import (
	"context"
	"time"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/evaluator"
	"equity-signal-lab/internal/idhash"
	"equity-signal-lab/internal/indicator"
	"equity-signal-lab/internal/risk"
)

const quantityEpsilon = 1e-9

// Engine simulates one symbol at a time with a fixed configuration.
type Engine struct {
	cfg  Config
	eval *evaluator.Evaluator
	risk *risk.Engine
}

// NewEngine creates a backtest engine, filling config defaults.
func NewEngine(cfg Config) *Engine {
	cfg.ApplyDefaults()
	return &Engine{
		cfg:  cfg,
		eval: evaluator.New(cfg.Evaluator),
		risk: risk.NewEngine(cfg.Risk),
	}
}

// roundTrip is one completed position lifetime, entry to flat.
type roundTrip struct {
	pnl             float64
	holdMs          int64
	entryIndicators []string
}

// run holds the mutable state of one simulation.
type run struct {
	symbol     string
	runID      string
	cash       float64
	position   *domain.Position
	realizedPL float64 // realized P&L of the open position so far
	trades     []domain.Trade
	roundTrips []roundTrip
	equity     []domain.EquityPoint
	buyAndHold []domain.EquityPoint
}

// Run simulates the series bar by bar and returns the full result. A nil
// or empty series completes with zero-trade statistics rather than
// failing; the only error source is context cancellation.
func (e *Engine) Run(ctx context.Context, symbol string, series, index *domain.PriceSeries) (*domain.BacktestResult, error) {
	result := &domain.BacktestResult{
		Symbol:         symbol,
		InitialCapital: e.cfg.InitialCapital,
		FinalEquity:    e.cfg.InitialCapital,
	}
	n := series.Len()
	if n == 0 {
		result.Stats = computeStats(e.cfg.InitialCapital, e.cfg.InitialCapital, nil, nil, nil)
		return result, nil
	}

	st := &run{
		symbol: symbol,
		runID:  idhash.ComputeRunID(symbol, series.Timestamps[0], series.Timestamps[n-1], e.cfg.InitialCapital),
		cash:   e.cfg.InitialCapital,
	}

	// Buy-and-hold benchmark: all capital into the first close.
	benchmarkQty := e.cfg.InitialCapital / series.Closes[0]

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		price := series.Closes[i]
		ts := series.Timestamps[i]

		st.buyAndHold = append(st.buyAndHold, domain.EquityPoint{TimestampMs: ts, Equity: benchmarkQty * price})

		window := series.TrailingWindow(i, MaxLookbackBars)
		evaluation := e.eval.Evaluate(window, indexWindow(index, i))

		if st.position.Open() {
			e.stepInPosition(st, series, i)
		} else {
			e.stepFlat(st, evaluation, window, series, i)
		}

		equity := st.cash
		if st.position.Open() {
			equity += st.position.Quantity * price
		}
		st.equity = append(st.equity, domain.EquityPoint{TimestampMs: ts, Equity: equity})
	}

	// Any position still open closes at the last available price.
	if st.position.Open() {
		e.closePosition(st, series.Closes[n-1], series.Timestamps[n-1], domain.ExitReasonEndOfData)
	}

	result.RunID = st.runID
	result.Trades = st.trades
	result.EquityCurve = st.equity
	result.BuyAndHoldEquityCurve = st.buyAndHold
	result.FinalEquity = st.cash
	result.Stats = computeStats(e.cfg.InitialCapital, st.cash, series, st.equity, st.roundTrips)
	result.Stats.TotalTrades = len(st.trades)
	return result, nil
}

// stepInPosition updates the trailing peak, fires any newly crossed
// scaled-exit stages, then applies the first full-exit rule that matches.
func (e *Engine) stepInPosition(st *run, series *domain.PriceSeries, i int) {
	price := series.Closes[i]
	ts := series.Timestamps[i]
	pos := st.position

	if price > pos.HighestPrice {
		pos.HighestPrice = price
	}

	if e.cfg.EnablePartialExits && len(e.cfg.ExitStages) > 0 {
		profitPct := (price - pos.EntryPrice) / pos.EntryPrice * 100
		for stageIdx, stage := range e.cfg.ExitStages {
			if pos.ExecutedExitStages[stageIdx] || profitPct < stage.ProfitPct {
				continue
			}
			pos.ExecutedExitStages[stageIdx] = true
			qty := pos.OriginalQuantity * stage.ExitPct / 100
			if qty > pos.Quantity {
				qty = pos.Quantity
			}
			if qty <= 0 {
				continue
			}
			e.executeSell(st, qty, price, ts, domain.ExitReasonPartialExit)
			if !st.position.Open() {
				return
			}
		}
	}

	if reason := e.fullExitReason(pos, series, i); reason != "" {
		e.closePosition(st, price, ts, reason)
	}
}

// fullExitReason checks the exit rules in strict priority order and
// returns the first that matches, or empty when the position stays open.
func (e *Engine) fullExitReason(pos *domain.Position, series *domain.PriceSeries, i int) string {
	price := series.Closes[i]
	switch {
	case e.cfg.TakeProfitPct > 0 && price >= pos.EntryPrice*(1+e.cfg.TakeProfitPct/100):
		return domain.ExitReasonTakeProfit
	case e.cfg.StopLossPct > 0 && price <= pos.EntryPrice*(1-e.cfg.StopLossPct/100):
		return domain.ExitReasonStopLoss
	case e.cfg.TrailingStopPct > 0 && price <= pos.HighestPrice*(1-e.cfg.TrailingStopPct/100):
		return domain.ExitReasonTrailingStop
	case e.cfg.MaxHoldBars > 0 && i-pos.EntryBar >= e.cfg.MaxHoldBars:
		return domain.ExitReasonTimeLimit
	case e.cfg.CloseAtSessionEnd && lastBarOfSession(series, i):
		return domain.ExitReasonMarketClose
	default:
		return ""
	}
}

// stepFlat decides whether to enter. Entry needs at least one prior bar;
// the signal strength is the buy fraction over all active indicators.
func (e *Engine) stepFlat(st *run, evaluation *domain.MultiIndicatorResult, window, series *domain.PriceSeries, i int) {
	if i < 1 {
		return
	}
	buys, _, total := evaluation.CountSignals()
	var strength float64
	if total > 0 {
		strength = float64(buys) / float64(total) * 100
	}

	if e.cfg.RequireAllIndicatorsGreen {
		if total == 0 || buys != total {
			return
		}
	} else if strength < e.cfg.MinSignalStrength {
		return
	}

	price := series.Closes[i]
	qty := e.entryQuantity(st, window, price)
	if qty <= 0 || qty*price > st.cash {
		return
	}

	st.cash -= qty * price
	st.realizedPL = 0
	st.position = &domain.Position{
		EntryPrice:         price,
		Quantity:           qty,
		OriginalQuantity:   qty,
		EntryTimestampMs:   series.Timestamps[i],
		EntryBar:           i,
		HighestPrice:       price,
		ExecutedExitStages: make(map[int]bool),
		EntryIndicators:    evaluation.BuyIndicatorNames(),
	}
	st.trades = append(st.trades, domain.Trade{
		TradeID:     idhash.ComputeTradeID(st.runID, st.symbol, string(domain.ActionBuy), series.Timestamps[i], len(st.trades)),
		TimestampMs: series.Timestamps[i],
		Action:      domain.ActionBuy,
		Symbol:      st.symbol,
		Price:       price,
		Quantity:    qty,
		Reason:      evaluation.Reason,
		SignalData:  evaluation,
	})
}

// entryQuantity sizes the entry: ATR-scaled when dynamic sizing is on and
// an ATR is computable, otherwise the fixed configured quantity.
func (e *Engine) entryQuantity(st *run, window *domain.PriceSeries, price float64) float64 {
	if !e.cfg.UseDynamicSizing {
		return e.cfg.FixedQuantity
	}
	atr := indicator.ATR(window.Highs, window.Lows, window.Closes, e.cfg.ATRPeriod)
	sized := e.risk.CalculateDynamicPositionSize(st.cash, price, 0, atr)
	if sized.BindingCap == risk.CapUnavailable {
		return e.cfg.FixedQuantity
	}
	return sized.Quantity
}

// executeSell reduces the position and records the trade. Reaching zero
// quantity closes the position and books the round trip.
func (e *Engine) executeSell(st *run, qty, price float64, ts int64, reason string) {
	pos := st.position
	st.cash += qty * price
	st.realizedPL += qty * (price - pos.EntryPrice)
	pos.Quantity -= qty

	st.trades = append(st.trades, domain.Trade{
		TradeID:     idhash.ComputeTradeID(st.runID, st.symbol, string(domain.ActionSell), ts, len(st.trades)),
		TimestampMs: ts,
		Action:      domain.ActionSell,
		Symbol:      st.symbol,
		Price:       price,
		Quantity:    qty,
		Reason:      reason,
	})

	if pos.Quantity <= quantityEpsilon {
		pos.Quantity = 0
		st.roundTrips = append(st.roundTrips, roundTrip{
			pnl:             st.realizedPL,
			holdMs:          ts - pos.EntryTimestampMs,
			entryIndicators: pos.EntryIndicators,
		})
		st.position = nil
	}
}

func (e *Engine) closePosition(st *run, price float64, ts int64, reason string) {
	e.executeSell(st, st.position.Quantity, price, ts, reason)
}

// indexWindow bounds the market index series to the bars available at
// symbol bar i, so the evaluation never peeks ahead of the replay clock.
func indexWindow(index *domain.PriceSeries, i int) *domain.PriceSeries {
	if index == nil || index.Len() == 0 {
		return nil
	}
	end := i
	if end > index.Len()-1 {
		end = index.Len() - 1
	}
	return index.TrailingWindow(end, MaxLookbackBars)
}

// lastBarOfSession reports whether the next bar falls on a different UTC
// day; the final bar of the series is the forced close's job, not a
// session boundary.
func lastBarOfSession(series *domain.PriceSeries, i int) bool {
	if i+1 >= series.Len() {
		return false
	}
	cur := time.UnixMilli(series.Timestamps[i]).UTC()
	next := time.UnixMilli(series.Timestamps[i+1]).UTC()
	return cur.YearDay() != next.YearDay() || cur.Year() != next.Year()
}
