package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"equity-signal-lab/internal/backtest"
	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/marketdata"
	"equity-signal-lab/internal/observability"
	"equity-signal-lab/internal/storage"
	chstore "equity-signal-lab/internal/storage/clickhouse"
	"equity-signal-lab/internal/storage/memory"
	"equity-signal-lab/internal/storage/migrations"
	pgstore "equity-signal-lab/internal/storage/postgres"
	"equity-signal-lab/internal/verification"
)

func main() {
	// Input
	seriesFlags := flag.String("series", "", "Symbol series as SYMBOL=path.csv, comma-separated for a portfolio run (required)")
	indexPath := flag.String("index-series", "", "Optional market index CSV for the market-direction indicator")

	// Strategy
	capital := flag.Float64("capital", 100000, "Initial capital")
	minStrength := flag.Float64("min-strength", 50, "Minimum signal strength to enter (0-100)")
	requireAllGreen := flag.Bool("require-all-green", false, "Enter only when every indicator signals BUY")
	extraIndicators := flag.String("extra-indicators", "", "Comma-separated optional indicators (bollinger, stochastic, adx, mfi, cci, williams_r, keltner, roc)")

	// Sizing
	dynamicSizing := flag.Bool("dynamic-sizing", false, "Scale entries by ATR-based risk sizing")
	fixedQty := flag.Float64("fixed-qty", 100, "Fixed entry quantity when dynamic sizing is off or unavailable")

	// Exits
	takeProfit := flag.Float64("take-profit-pct", 0, "Take-profit threshold in percent (0 disables)")
	stopLoss := flag.Float64("stop-loss-pct", 0, "Stop-loss threshold in percent (0 disables)")
	trailingStop := flag.Float64("trailing-stop-pct", 0, "Trailing-stop threshold in percent (0 disables)")
	maxHoldBars := flag.Int("max-hold-bars", 0, "Maximum bars to hold a position (0 disables)")
	closeSessionEnd := flag.Bool("close-session-end", false, "Close positions on the last bar of each session")
	exitStages := flag.String("exit-stages", "", "Scaled exit stages as profitPct:exitPct, comma-separated (e.g. 5:50,10:50)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (runs, trades)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (equity curves)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	persistResult := flag.Bool("persist", false, "Persist run, trades and equity curves to storage")
	verifyRun := flag.Bool("verify", false, "Replay the run after persisting and verify stored outputs match")

	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *seriesFlags == "" {
		logger.Fatal().Msg("--series is required")
	}
	if *verifyRun && !*persistResult {
		logger.Fatal().Msg("--verify requires --persist")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	// Load series
	provider := marketdata.NewStaticProvider()
	series := make(map[string]*domain.PriceSeries)
	for _, entry := range strings.Split(*seriesFlags, ",") {
		symbol, path, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok || symbol == "" || path == "" {
			logger.Fatal().Str("entry", entry).Msg("series entries must be SYMBOL=path.csv")
		}
		s, err := marketdata.LoadCSVFile(path)
		if err != nil {
			logger.Fatal().Err(err).Str("symbol", symbol).Msg("load series")
		}
		series[symbol] = s
		provider.SetSeries(symbol, s)
		logger.Info().Str("symbol", symbol).Int("bars", s.Len()).Msg("loaded series")
	}

	var index *domain.PriceSeries
	var indexSymbol string
	if *indexPath != "" {
		s, err := marketdata.LoadCSVFile(*indexPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("load index series")
		}
		index = s
		// Reserved symbol so replay verification can reload the index
		// through the same provider.
		indexSymbol = "_INDEX"
		provider.SetSeries(indexSymbol, s)
	}

	// Build config
	cfg := backtest.Config{
		InitialCapital:            *capital,
		RequireAllIndicatorsGreen: *requireAllGreen,
		MinSignalStrength:         *minStrength,
		UseDynamicSizing:          *dynamicSizing,
		FixedQuantity:             *fixedQty,
		TakeProfitPct:             *takeProfit,
		StopLossPct:               *stopLoss,
		TrailingStopPct:           *trailingStop,
		MaxHoldBars:               *maxHoldBars,
		CloseAtSessionEnd:         *closeSessionEnd,
	}
	if *extraIndicators != "" {
		for _, name := range strings.Split(*extraIndicators, ",") {
			cfg.Evaluator.ExtraIndicators = append(cfg.Evaluator.ExtraIndicators, strings.TrimSpace(name))
		}
	}
	if *exitStages != "" {
		stages, err := parseExitStages(*exitStages)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse exit stages")
		}
		cfg.EnablePartialExits = true
		cfg.ExitStages = stages
	}
	cfg.ApplyDefaults()

	// Stores
	var (
		runStore   storage.BacktestRunStore = memory.NewBacktestRunStore()
		tradeStore storage.TradeStore       = memory.NewTradeStore()
		curveStore storage.EquityCurveStore = memory.NewEquityCurveStore()
	)
	if *persistResult && !*useMemory {
		if *postgresDSN == "" {
			logger.Fatal().Msg("--postgres-dsn is required for --persist without --use-memory")
		}
		if *clickhouseDSN == "" {
			logger.Fatal().Msg("--clickhouse-dsn is required for --persist without --use-memory")
		}

		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("run postgres migrations")
		}
		runStore = pgstore.NewBacktestRunStore(pool)
		tradeStore = pgstore.NewTradeStore(pool)

		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()
		curveStore = chstore.NewEquityCurveStore(conn)
	}

	// Run
	started := time.Now()
	engine := backtest.NewEngine(cfg)

	var results map[string]*domain.BacktestResult
	var portfolio *domain.PortfolioBacktestResult

	if len(series) == 1 {
		var symbol string
		for s := range series {
			symbol = s
		}
		result, err := engine.Run(ctx, symbol, series[symbol], index)
		if err != nil {
			observability.RecordBacktestRun("error", time.Since(started).Seconds(), 0)
			logger.Fatal().Err(err).Msg("backtest failed")
		}
		results = map[string]*domain.BacktestResult{symbol: result}
	} else {
		var err error
		portfolio, err = engine.RunPortfolio(ctx, series, index, *capital)
		if err != nil {
			observability.RecordBacktestRun("error", time.Since(started).Seconds(), 0)
			logger.Fatal().Err(err).Msg("portfolio backtest failed")
		}
		results = portfolio.Results
	}

	totalTrades := 0
	for _, r := range results {
		totalTrades += len(r.Trades)
	}
	observability.RecordBacktestRun("ok", time.Since(started).Seconds(), totalTrades)

	// Persist
	if *persistResult {
		for symbol, result := range results {
			if err := persist(ctx, runStore, tradeStore, curveStore, result); err != nil {
				logger.Fatal().Err(err).Str("symbol", symbol).Msg("persist run")
			}
			logger.Info().Str("symbol", symbol).Str("run_id", result.RunID).Msg("persisted run")
		}
	}

	// Verify
	if *verifyRun {
		verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
			RunStore:    runStore,
			TradeStore:  tradeStore,
			CurveStore:  curveStore,
			Provider:    provider,
			Config:      cfg,
			IndexSymbol: indexSymbol,
		})
		for symbol, result := range results {
			outcome, err := verifier.VerifyRun(ctx, result.RunID)
			if err != nil {
				logger.Fatal().Err(err).Str("symbol", symbol).Msg("verify run")
			}
			if !outcome.Match {
				logger.Fatal().Str("symbol", symbol).Int("divergences", len(outcome.Divergences)).Msg("replay diverged from stored run")
			}
			logger.Info().Str("symbol", symbol).Msg("replay verified")
		}
	}

	// Output
	if *outputJSON {
		var payload interface{} = results
		if portfolio != nil {
			payload = portfolio
		}
		output, _ := json.MarshalIndent(payload, "", "  ")
		fmt.Println(string(output))
		return
	}

	symbols := make([]string, 0, len(results))
	for s := range results {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		printResult(results[symbol])
	}
	if portfolio != nil {
		printPortfolio(portfolio)
	}
}

// parseExitStages parses "5:50,10:50" into exit stages.
func parseExitStages(input string) ([]backtest.ExitStage, error) {
	var stages []backtest.ExitStage
	for _, part := range strings.Split(input, ",") {
		profitStr, exitStr, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("stage %q must be profitPct:exitPct", part)
		}
		profit, err := strconv.ParseFloat(profitStr, 64)
		if err != nil {
			return nil, fmt.Errorf("stage %q: parse profit: %w", part, err)
		}
		exit, err := strconv.ParseFloat(exitStr, 64)
		if err != nil {
			return nil, fmt.Errorf("stage %q: parse exit: %w", part, err)
		}
		stages = append(stages, backtest.ExitStage{ProfitPct: profit, ExitPct: exit})
	}
	return stages, nil
}

// persist writes one run's header, trades and equity curves.
func persist(ctx context.Context, runStore storage.BacktestRunStore, tradeStore storage.TradeStore,
	curveStore storage.EquityCurveStore, result *domain.BacktestResult,
) error {
	if len(result.EquityCurve) == 0 {
		return nil
	}

	summary := &domain.BacktestSummary{
		RunID:          result.RunID,
		Symbol:         result.Symbol,
		StartMs:        result.EquityCurve[0].TimestampMs,
		EndMs:          result.EquityCurve[len(result.EquityCurve)-1].TimestampMs,
		InitialCapital: result.InitialCapital,
		FinalEquity:    result.FinalEquity,
		TotalReturnPct: result.Stats.TotalReturnPct,
		SharpeRatio:    result.Stats.SharpeRatio,
		MaxDrawdownPct: result.Stats.MaxDrawdownPct,
		TradeCount:     len(result.Trades),
	}
	if err := runStore.Insert(ctx, summary); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	trades := make([]*domain.Trade, len(result.Trades))
	for i := range result.Trades {
		trades[i] = &result.Trades[i]
	}
	if err := tradeStore.InsertBulk(ctx, result.RunID, trades); err != nil {
		return fmt.Errorf("insert trades: %w", err)
	}

	if err := curveStore.InsertBulk(ctx, result.RunID, storage.CurveStrategy, result.EquityCurve); err != nil {
		return fmt.Errorf("insert strategy curve: %w", err)
	}
	if err := curveStore.InsertBulk(ctx, result.RunID, storage.CurveBuyAndHold, result.BuyAndHoldEquityCurve); err != nil {
		return fmt.Errorf("insert buy-and-hold curve: %w", err)
	}
	return nil
}

// printResult outputs a human-readable per-symbol summary.
func printResult(r *domain.BacktestResult) {
	fmt.Println()
	fmt.Printf("=== Backtest Result: %s ===\n", r.Symbol)
	fmt.Printf("Run ID:             %s\n", r.RunID)
	fmt.Printf("Initial Capital:    %.2f\n", r.InitialCapital)
	fmt.Printf("Final Equity:       %.2f\n", r.FinalEquity)
	fmt.Printf("Total Return:       %.2f%%\n", r.Stats.TotalReturnPct)
	fmt.Printf("Buy & Hold Return:  %.2f%%\n", r.Stats.BuyAndHoldReturnPct)
	fmt.Println()

	fmt.Println("Trades:")
	fmt.Printf("  Total:            %d\n", r.Stats.TotalTrades)
	fmt.Printf("  Round Trips:      %d\n", r.Stats.RoundTrips)
	fmt.Printf("  Win Rate:         %.1f%%\n", r.Stats.WinRate)
	fmt.Printf("  Average Win:      %.2f\n", r.Stats.AverageWin)
	fmt.Printf("  Average Loss:     %.2f\n", r.Stats.AverageLoss)
	fmt.Printf("  Profit Factor:    %.2f\n", r.Stats.ProfitFactor)
	fmt.Println()

	fmt.Println("Risk:")
	fmt.Printf("  Sharpe Ratio:     %.2f\n", r.Stats.SharpeRatio)
	fmt.Printf("  Max Drawdown:     %.2f (%.2f%%)\n", r.Stats.MaxDrawdown, r.Stats.MaxDrawdownPct)
	fmt.Printf("  Avg Hold:         %v\n", time.Duration(r.Stats.AverageHoldMs)*time.Millisecond)

	if len(r.Stats.IndicatorBreakdown) > 0 {
		fmt.Println()
		fmt.Println("Indicator Breakdown:")
		names := make([]string, 0, len(r.Stats.IndicatorBreakdown))
		for name := range r.Stats.IndicatorBreakdown {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			perf := r.Stats.IndicatorBreakdown[name]
			fmt.Printf("  %-18s %d wins / %d losses (%.1f%%)\n", name, perf.Wins, perf.Losses, perf.WinRate)
		}
	}
}

// printPortfolio outputs the combined portfolio summary.
func printPortfolio(p *domain.PortfolioBacktestResult) {
	fmt.Println()
	fmt.Println("=== Portfolio ===")
	fmt.Printf("Initial Capital:    %.2f\n", p.InitialCapital)
	fmt.Printf("Final Equity:       %.2f\n", p.FinalEquity)
	fmt.Printf("Total Return:       %.2f%%\n", p.TotalReturnPct)
	fmt.Printf("Sharpe Ratio:       %.2f\n", p.SharpeRatio)
	fmt.Printf("Max Drawdown:       %.2f (%.2f%%)\n", p.MaxDrawdown, p.MaxDrawdownPct)
}
