package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/evaluator"
	"equity-signal-lab/internal/marketdata"
	"equity-signal-lab/internal/observability"
	"equity-signal-lab/internal/risk"
	"equity-signal-lab/internal/storage"
	"equity-signal-lab/internal/storage/memory"
	"equity-signal-lab/internal/storage/migrations"
	pgstore "equity-signal-lab/internal/storage/postgres"
)

// output is the combined result of one evaluation run.
type output struct {
	Symbol     string                       `json:"symbol"`
	Evaluation *domain.MultiIndicatorResult `json:"evaluation"`
	Risk       *domain.RiskAssessment       `json:"risk,omitempty"`
}

func main() {
	// Input
	symbol := flag.String("symbol", "", "Symbol being evaluated (required)")
	seriesPath := flag.String("series", "", "OHLCV CSV file for the symbol (required)")
	indexPath := flag.String("index-series", "", "Optional market index CSV for the market-direction indicator")

	// Indicators
	extraIndicators := flag.String("extra-indicators", "", "Comma-separated optional indicators (bollinger, stochastic, adx, mfi, cci, williams_r, keltner, roc)")
	customPath := flag.String("custom-indicators", "", "JSON file with custom indicator definitions")

	// Macro overlay
	macroStatus := flag.String("macro-status", "", "Macro regime overlay: RISK_ON, RISK_OFF or NEUTRAL")
	macroScore := flag.Float64("macro-score", 0, "Macro score (0-100)")

	// Risk assessment
	assessRisk := flag.Bool("assess-risk", false, "Assess a trade proposal derived from the evaluation")
	quantity := flag.Float64("quantity", 100, "Proposed quantity for the risk assessment")
	price := flag.Float64("price", 0, "Proposed price; defaults to the last close")
	portfolioPath := flag.String("portfolio", "", "JSON file with the portfolio snapshot; defaults to cash-only")
	cash := flag.Float64("cash", 100000, "Portfolio cash when no snapshot file is given")
	maxPosition := flag.Float64("max-position", 0, "Maximum absolute position size (0 = default)")
	maxConcentration := flag.Float64("max-concentration-pct", 0, "Maximum position concentration in percent (0 = default)")
	maxCorrelation := flag.Float64("max-correlation", 0, "Maximum |correlation| with the index (0 disables)")
	minVolatility := flag.Float64("min-volatility-pct", 0, "Minimum annualized volatility in percent (0 disables)")
	maxVolatility := flag.Float64("max-volatility-pct", 0, "Maximum annualized volatility in percent (0 disables)")
	maxDrawdown := flag.Float64("max-drawdown-pct", 0, "Maximum portfolio drawdown before buys are blocked (0 disables)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for signal persistence")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	persistSignal := flag.Bool("persist", false, "Persist the evaluation as a signal record")

	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *symbol == "" {
		logger.Fatal().Msg("--symbol is required")
	}
	if *seriesPath == "" {
		logger.Fatal().Msg("--series is required")
	}

	ctx := context.Background()

	series, err := marketdata.LoadCSVFile(*seriesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load series")
	}
	if series.Len() == 0 {
		logger.Fatal().Msg("series contains no usable bars")
	}

	var index *domain.PriceSeries
	if *indexPath != "" {
		index, err = marketdata.LoadCSVFile(*indexPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("load index series")
		}
	}

	evalCfg := evaluator.Config{}
	if *extraIndicators != "" {
		for _, name := range strings.Split(*extraIndicators, ",") {
			evalCfg.ExtraIndicators = append(evalCfg.ExtraIndicators, strings.TrimSpace(name))
		}
	}
	if *customPath != "" {
		customs, err := loadCustomIndicators(*customPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("load custom indicators")
		}
		evalCfg.CustomIndicators = customs
	}

	eval := evaluator.New(evalCfg)
	result := eval.Evaluate(series, index)

	if *macroStatus != "" {
		macro, err := parseMacro(*macroStatus, *macroScore)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse macro overlay")
		}
		evaluator.ApplyMacro(result, macro)
	}

	observability.RecordEvaluation(string(result.OverallSignal), result.SignalStrength)

	out := &output{Symbol: *symbol, Evaluation: result}

	if *assessRisk {
		proposalPrice := *price
		if proposalPrice == 0 {
			proposalPrice = series.Closes[series.Len()-1]
		}
		action := domain.ActionBuy
		if result.OverallSignal == domain.SignalSell {
			action = domain.ActionSell
		}
		proposal := domain.TradeProposal{
			Symbol:   *symbol,
			Action:   action,
			Quantity: *quantity,
			Price:    proposalPrice,
			Reason:   result.Reason,
		}

		portfolio := domain.PortfolioState{Cash: *cash}
		if *portfolioPath != "" {
			if err := loadPortfolio(*portfolioPath, &portfolio); err != nil {
				logger.Fatal().Err(err).Msg("load portfolio snapshot")
			}
		}

		engine := risk.NewEngine(risk.Config{
			MaxPositionSize:     *maxPosition,
			MaxConcentrationPct: *maxConcentration,
			MaxCorrelation:      *maxCorrelation,
			MinVolatilityPct:    *minVolatility,
			MaxVolatilityPct:    *maxVolatility,
			MaxDrawdownPct:      *maxDrawdown,
		})

		mkt := risk.MarketContext{SymbolCloses: series.Closes}
		if index != nil && index.Len() == series.Len() {
			mkt.IndexCloses = index.Closes
		}

		assessment := engine.Assess(proposal, portfolio, mkt)
		observability.RecordRiskAssessment(assessment.Approved, failedCheck(assessment))
		out.Risk = &assessment
	}

	if *persistSignal {
		var store storage.SignalStore = memory.NewSignalStore()
		if !*useMemory {
			if *postgresDSN == "" {
				logger.Fatal().Msg("--postgres-dsn is required for --persist without --use-memory")
			}
			pool, err := pgstore.NewPool(ctx, *postgresDSN)
			if err != nil {
				logger.Fatal().Err(err).Msg("connect to postgres")
			}
			defer pool.Close()
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Fatal().Err(err).Msg("run postgres migrations")
			}
			store = pgstore.NewSignalStore(pool)
		}
		if err := store.Insert(ctx, signalRecord(*symbol, series, result)); err != nil {
			logger.Fatal().Err(err).Msg("persist signal")
		}
		logger.Info().Str("symbol", *symbol).Msg("persisted signal")
	}

	if *outputJSON {
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}
	printOutput(out)
}

// loadCustomIndicators reads a JSON array of custom indicator definitions.
func loadCustomIndicators(path string) ([]domain.CustomIndicatorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var customs []domain.CustomIndicatorConfig
	if err := json.Unmarshal(data, &customs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return customs, nil
}

func loadPortfolio(path string, portfolio *domain.PortfolioState) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, portfolio); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func parseMacro(status string, score float64) (*domain.MacroAssessment, error) {
	s := domain.MacroStatus(strings.ToUpper(status))
	switch s {
	case domain.MacroRiskOn, domain.MacroRiskOff, domain.MacroNeutral:
	default:
		return nil, fmt.Errorf("unknown macro status %q", status)
	}
	return &domain.MacroAssessment{Status: s, Score: score, Reason: "cli overlay"}, nil
}

// failedCheck extracts the short check name from a rejection reason.
func failedCheck(a domain.RiskAssessment) string {
	if a.Approved {
		return ""
	}
	check, _, ok := strings.Cut(a.Reason, ":")
	if !ok {
		return a.Reason
	}
	return check
}

// signalRecord flattens an evaluation into its persisted form, stamped with
// the last bar's timestamp.
func signalRecord(symbol string, series *domain.PriceSeries, r *domain.MultiIndicatorResult) *domain.SignalRecord {
	indicators := make(map[string]domain.Signal, r.ActiveCount())
	for name, ir := range r.Indicators {
		indicators[name] = ir.Signal
	}
	for name, ir := range r.CustomIndicators {
		indicators[name] = ir.Signal
	}
	return &domain.SignalRecord{
		Symbol:      symbol,
		TimestampMs: series.Timestamps[series.Len()-1],
		Signal:      r.OverallSignal,
		Strength:    r.SignalStrength,
		Reason:      r.Reason,
		Indicators:  indicators,
	}
}

func printOutput(out *output) {
	r := out.Evaluation
	fmt.Printf("=== Evaluation: %s ===\n", out.Symbol)
	fmt.Printf("Signal:    %s\n", r.OverallSignal)
	fmt.Printf("Strength:  %.1f\n", r.SignalStrength)
	fmt.Printf("Reason:    %s\n", r.Reason)
	if r.Macro != nil {
		fmt.Printf("Macro:     %s (score %.1f)\n", r.Macro.Status, r.Macro.Score)
	}

	fmt.Println()
	fmt.Println("Indicators:")
	printIndicators(r.Indicators)
	if len(r.CustomIndicators) > 0 {
		fmt.Println("Custom Indicators:")
		printIndicators(r.CustomIndicators)
	}

	if out.Risk != nil {
		fmt.Println()
		fmt.Println("=== Risk Assessment ===")
		if out.Risk.Approved {
			fmt.Println("Approved:  yes")
		} else {
			fmt.Println("Approved:  no")
		}
		fmt.Printf("Reason:    %s\n", out.Risk.Reason)
		if len(out.Risk.Metrics) > 0 {
			fmt.Println("Metrics:")
			names := make([]string, 0, len(out.Risk.Metrics))
			for name := range out.Risk.Metrics {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-22s %.4f\n", name, out.Risk.Metrics[name])
			}
		}
	}
}

func printIndicators(m map[string]domain.IndicatorResult) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ir := m[name]
		value := "n/a"
		if ir.Value != nil {
			value = fmt.Sprintf("%.4f", *ir.Value)
		}
		fmt.Printf("  %-18s %-5s %-10s %s\n", name, ir.Signal, value, ir.Reason)
	}
}
