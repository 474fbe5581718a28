package verification

import (
	"context"
	"errors"
	"fmt"

	"equity-signal-lab/internal/backtest"
	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/marketdata"
	"equity-signal-lab/internal/storage"
)

// ErrRunNotFound is returned when the run ID doesn't exist.
var ErrRunNotFound = errors.New("backtest run not found")

// ReplayVerifier re-executes stored backtest runs and compares outputs.
type ReplayVerifier struct {
	runStore   storage.BacktestRunStore
	tradeStore storage.TradeStore
	curveStore storage.EquityCurveStore
	provider   marketdata.Provider

	// config must match the configuration of the stored runs; the run
	// header does not carry it.
	config backtest.Config

	// indexSymbol is the benchmark series fed to the evaluator's market
	// direction indicator. Empty disables it, as in the original run.
	indexSymbol string
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	RunStore    storage.BacktestRunStore
	TradeStore  storage.TradeStore
	CurveStore  storage.EquityCurveStore
	Provider    marketdata.Provider
	Config      backtest.Config
	IndexSymbol string
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		runStore:    opts.RunStore,
		tradeStore:  opts.TradeStore,
		curveStore:  opts.CurveStore,
		provider:    opts.Provider,
		config:      opts.Config,
		indexSymbol: opts.IndexSymbol,
	}
}

// VerifyRun replays one stored run and compares trades and equity curves.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	summary, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	replayed, err := v.replayRun(ctx, summary)
	if err != nil {
		return nil, err
	}

	var divergences []FieldDivergence

	storedTrades, err := v.tradeStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load stored trades: %w", err)
	}
	replayedTrades := make([]*domain.Trade, len(replayed.Trades))
	for i := range replayed.Trades {
		replayedTrades[i] = &replayed.Trades[i]
	}
	divergences = append(divergences, CompareTrades(storedTrades, replayedTrades)...)

	storedStrategy, err := v.curveStore.GetByRunID(ctx, runID, storage.CurveStrategy)
	if err != nil {
		return nil, fmt.Errorf("load stored strategy curve: %w", err)
	}
	divergences = append(divergences, CompareEquityCurves(storage.CurveStrategy, storedStrategy, replayed.EquityCurve)...)

	storedBenchmark, err := v.curveStore.GetByRunID(ctx, runID, storage.CurveBuyAndHold)
	if err != nil {
		return nil, fmt.Errorf("load stored buy-and-hold curve: %w", err)
	}
	divergences = append(divergences, CompareEquityCurves(storage.CurveBuyAndHold, storedBenchmark, replayed.BuyAndHoldEquityCurve)...)

	if !floatEquals(summary.FinalEquity, replayed.FinalEquity) {
		divergences = append(divergences, FieldDivergence{
			Field:    "FinalEquity",
			Expected: summary.FinalEquity,
			Actual:   replayed.FinalEquity,
		})
	}

	return &VerificationResult{
		RunID:       runID,
		Match:       len(divergences) == 0,
		Divergences: divergences,
	}, nil
}

// replayRun re-executes the simulation with the stored run's inputs.
func (v *ReplayVerifier) replayRun(ctx context.Context, summary *domain.BacktestSummary) (*domain.BacktestResult, error) {
	series, err := v.provider.GetDailySeries(ctx, summary.Symbol)
	if err != nil {
		return nil, fmt.Errorf("load series for %s: %w", summary.Symbol, err)
	}

	var index *domain.PriceSeries
	if v.indexSymbol != "" {
		index, err = v.provider.GetDailySeries(ctx, v.indexSymbol)
		if err != nil {
			return nil, fmt.Errorf("load index series %s: %w", v.indexSymbol, err)
		}
	}

	cfg := v.config
	cfg.InitialCapital = summary.InitialCapital

	engine := backtest.NewEngine(cfg)
	return engine.Run(ctx, summary.Symbol, series, index)
}
