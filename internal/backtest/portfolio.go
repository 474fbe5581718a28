package backtest

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"equity-signal-lab/internal/domain"
)

// RunPortfolio simulates every symbol independently and in parallel, each
// with an even share of the total capital, then aggregates the per-symbol
// equity curves into one portfolio curve. Aggregation waits for every
// simulation to finish.
func (e *Engine) RunPortfolio(ctx context.Context, series map[string]*domain.PriceSeries, index *domain.PriceSeries, totalCapital float64) (*domain.PortfolioBacktestResult, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("portfolio backtest: no symbols")
	}
	if totalCapital <= 0 {
		totalCapital = e.cfg.InitialCapital
	}

	symbols := make([]string, 0, len(series))
	for symbol := range series {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	allocation := totalCapital / float64(len(symbols))
	perSymbolCfg := e.cfg
	perSymbolCfg.InitialCapital = allocation

	results := make([]*domain.BacktestResult, len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		engine := NewEngine(perSymbolCfg)
		g.Go(func() error {
			result, err := engine.Run(ctx, symbol, series[symbol], index)
			if err != nil {
				return fmt.Errorf("backtest %s: %w", symbol, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	portfolio := &domain.PortfolioBacktestResult{
		Results:        make(map[string]*domain.BacktestResult, len(symbols)),
		InitialCapital: totalCapital,
	}
	for i, symbol := range symbols {
		portfolio.Results[symbol] = results[i]
		portfolio.FinalEquity += results[i].FinalEquity
	}
	portfolio.TotalReturnPct = (portfolio.FinalEquity - totalCapital) / totalCapital * 100

	portfolio.CombinedEquity = combineEquityCurves(results, allocation)
	portfolio.SharpeRatio = sharpeRatio(portfolio.CombinedEquity)
	portfolio.MaxDrawdown, portfolio.MaxDrawdownPct = maxDrawdown(portfolio.CombinedEquity)
	return portfolio, nil
}

// combineEquityCurves unions all timestamps across symbols and, at each,
// sums every symbol's latest known equity at or before that timestamp.
// Before a symbol's first sample its allocation counts as all cash.
func combineEquityCurves(results []*domain.BacktestResult, allocation float64) []domain.EquityPoint {
	seen := make(map[int64]struct{})
	var timestamps []int64
	for _, result := range results {
		for _, point := range result.EquityCurve {
			if _, ok := seen[point.TimestampMs]; !ok {
				seen[point.TimestampMs] = struct{}{}
				timestamps = append(timestamps, point.TimestampMs)
			}
		}
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	cursors := make([]int, len(results))
	combined := make([]domain.EquityPoint, 0, len(timestamps))
	for _, ts := range timestamps {
		var sum float64
		for i, result := range results {
			curve := result.EquityCurve
			for cursors[i] < len(curve) && curve[cursors[i]].TimestampMs <= ts {
				cursors[i]++
			}
			if cursors[i] == 0 {
				sum += allocation
			} else {
				sum += curve[cursors[i]-1].Equity
			}
		}
		combined = append(combined, domain.EquityPoint{TimestampMs: ts, Equity: sum})
	}
	return combined
}
