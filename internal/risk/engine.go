// Package risk gates trade proposals against portfolio limits. Checks run
// in a fixed order and short-circuit on the first violation; every metric
// computed up to that point is reported in the assessment for audit.
package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"equity-signal-lab/internal/domain"
)

// MarketContext carries the optional data the conditional checks need.
// Missing data skips the corresponding check rather than rejecting;
// lookups are injected, never fetched here.
type MarketContext struct {
	// Sector is the proposal symbol's sector, when a lookup succeeded.
	Sector string

	// SymbolCloses and IndexCloses feed the correlation check. Both must
	// be present and equally long for the check to run.
	SymbolCloses []float64
	IndexCloses  []float64
}

// Engine evaluates trade proposals against configured limits.
type Engine struct {
	cfg Config
}

// NewEngine creates a risk engine, filling config defaults.
func NewEngine(cfg Config) *Engine {
	cfg.ApplyDefaults()
	return &Engine{cfg: cfg}
}

// Config returns the effective configuration after defaulting.
func (e *Engine) Config() Config {
	return e.cfg
}

// Assess runs the ordered checks: funds, position cap, concentration,
// then the optional sector, correlation, volatility and drawdown checks.
// The first violation rejects the proposal with its reason; metrics from
// all checks that ran are always attached.
func (e *Engine) Assess(proposal domain.TradeProposal, portfolio domain.PortfolioState, mkt MarketContext) domain.RiskAssessment {
	metrics := make(map[string]float64)
	assessment := domain.RiskAssessment{Metrics: metrics}

	if proposal.Quantity <= 0 {
		assessment.Reason = fmt.Sprintf("invalid quantity %.4f", proposal.Quantity)
		return assessment
	}
	if proposal.Price <= 0 {
		assessment.Reason = fmt.Sprintf("invalid price %.4f", proposal.Price)
		return assessment
	}

	// 1. Sufficient funds, buys only.
	if proposal.Action == domain.ActionBuy {
		cost := proposal.Price * proposal.Quantity
		metrics["cost"] = cost
		metrics["cash"] = portfolio.Cash
		if cost > portfolio.Cash {
			assessment.Reason = fmt.Sprintf("insufficient funds: cost %.2f exceeds cash %.2f", cost, portfolio.Cash)
			return assessment
		}
	}

	// 2. Position cap on the resulting quantity.
	held := portfolio.Position(proposal.Symbol)
	newQty := held.Quantity + proposal.SignedQuantity()
	metrics["held_quantity"] = held.Quantity
	metrics["resulting_quantity"] = newQty
	if newQty < 0 {
		assessment.Reason = fmt.Sprintf("oversell: %.2f exceeds held %.2f", proposal.Quantity, held.Quantity)
		return assessment
	}
	if math.Abs(newQty) > e.cfg.MaxPositionSize {
		assessment.Reason = fmt.Sprintf("position cap: resulting quantity %.2f exceeds limit %.2f",
			math.Abs(newQty), e.cfg.MaxPositionSize)
		return assessment
	}

	// 3. Concentration of the resulting position.
	total := portfolio.TotalValue()
	metrics["portfolio_value"] = total
	var concentration float64
	if total > 0 {
		concentration = math.Abs(newQty) * proposal.Price / total * 100
		metrics["concentration_pct"] = concentration
		if concentration > e.cfg.MaxConcentrationPct {
			assessment.Reason = fmt.Sprintf("concentration: %.1f%% exceeds limit %.1f%%",
				concentration, e.cfg.MaxConcentrationPct)
			return assessment
		}
	}

	// 4. Sector exposure, a concentration proxy, when a sector is known.
	if e.cfg.MaxSectorExposurePct > 0 && mkt.Sector != "" && total > 0 {
		metrics["sector_exposure_pct"] = concentration
		if concentration > e.cfg.MaxSectorExposurePct {
			assessment.Reason = fmt.Sprintf("sector exposure: %s at %.1f%% exceeds limit %.1f%%",
				mkt.Sector, concentration, e.cfg.MaxSectorExposurePct)
			return assessment
		}
	}

	// 5. Correlation against the market index.
	if e.cfg.MaxCorrelation > 0 && len(mkt.SymbolCloses) > 1 && len(mkt.SymbolCloses) == len(mkt.IndexCloses) {
		corr := stat.Correlation(mkt.SymbolCloses, mkt.IndexCloses, nil)
		metrics["index_correlation"] = corr
		if math.Abs(corr) > e.cfg.MaxCorrelation {
			assessment.Reason = fmt.Sprintf("correlation: |%.2f| with index exceeds limit %.2f",
				corr, e.cfg.MaxCorrelation)
			return assessment
		}
	}

	// 6. Annualized volatility band.
	if (e.cfg.MinVolatilityPct > 0 || e.cfg.MaxVolatilityPct > 0) && len(mkt.SymbolCloses) > 2 {
		vol := annualizedVolatilityPct(mkt.SymbolCloses)
		metrics["volatility_pct"] = vol
		if vol < e.cfg.MinVolatilityPct {
			assessment.Reason = fmt.Sprintf("volatility: %.1f%% below minimum %.1f%%", vol, e.cfg.MinVolatilityPct)
			return assessment
		}
		if e.cfg.MaxVolatilityPct > 0 && vol > e.cfg.MaxVolatilityPct {
			assessment.Reason = fmt.Sprintf("volatility: %.1f%% exceeds limit %.1f%%", vol, e.cfg.MaxVolatilityPct)
			return assessment
		}
	}

	// 7. Portfolio drawdown blocks new buys.
	if e.cfg.MaxDrawdownPct > 0 && proposal.Action == domain.ActionBuy &&
		portfolio.HighWaterMark != nil && *portfolio.HighWaterMark > 0 {
		drawdown := (*portfolio.HighWaterMark - total) / *portfolio.HighWaterMark * 100
		metrics["drawdown_pct"] = drawdown
		if drawdown > e.cfg.MaxDrawdownPct {
			assessment.Reason = fmt.Sprintf("drawdown: %.1f%% exceeds limit %.1f%%, new buys blocked",
				drawdown, e.cfg.MaxDrawdownPct)
			return assessment
		}
	}

	assessment.Approved = true
	assessment.Reason = "all risk checks passed"
	return assessment
}

// annualizedVolatilityPct is the standard deviation of log returns scaled
// to a 252-session year, in percent.
func annualizedVolatilityPct(closes []float64) float64 {
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(252) * 100
}
