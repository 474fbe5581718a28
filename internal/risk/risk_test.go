package risk

import (
	"math"
	"strings"
	"testing"

	"equity-signal-lab/internal/domain"
)

func buy(symbol string, qty, price float64) domain.TradeProposal {
	return domain.TradeProposal{Symbol: symbol, Action: domain.ActionBuy, Quantity: qty, Price: price}
}

func TestAssess_InsufficientFunds(t *testing.T) {
	e := NewEngine(Config{})
	portfolio := domain.PortfolioState{Cash: 10000}

	a := e.Assess(buy("ACME", 300, 50), portfolio, MarketContext{})
	if a.Approved {
		t.Fatal("15000 cost against 10000 cash must be rejected")
	}
	if !strings.Contains(a.Reason, "insufficient funds") {
		t.Errorf("unexpected reason: %s", a.Reason)
	}
	if a.Metrics["cost"] != 15000 {
		t.Errorf("metrics must carry the computed cost, got %v", a.Metrics["cost"])
	}
}

func TestAssess_PositionCap(t *testing.T) {
	e := NewEngine(Config{MaxPositionSize: 100, MaxConcentrationPct: 100})
	portfolio := domain.PortfolioState{
		Cash:      100000,
		Positions: map[string]domain.PositionEntry{"ACME": {Quantity: 80, Price: 10}},
	}

	a := e.Assess(buy("ACME", 30, 10), portfolio, MarketContext{})
	if a.Approved {
		t.Fatal("80 held + 30 proposed must exceed cap 100")
	}
	if !strings.Contains(a.Reason, "position cap") {
		t.Errorf("unexpected reason: %s", a.Reason)
	}

	a = e.Assess(buy("ACME", 20, 10), portfolio, MarketContext{})
	if !a.Approved {
		t.Errorf("80 + 20 at the cap must pass, got: %s", a.Reason)
	}
}

func TestAssess_Concentration(t *testing.T) {
	e := NewEngine(Config{MaxPositionSize: 10000, MaxConcentrationPct: 25})
	portfolio := domain.PortfolioState{Cash: 100000}

	// 30k of a 100k portfolio is 30%.
	a := e.Assess(buy("ACME", 300, 100), portfolio, MarketContext{})
	if a.Approved {
		t.Fatal("30% concentration must exceed the 25% limit")
	}
	if !strings.Contains(a.Reason, "concentration") {
		t.Errorf("unexpected reason: %s", a.Reason)
	}

	a = e.Assess(buy("ACME", 200, 100), portfolio, MarketContext{})
	if !a.Approved {
		t.Errorf("20%% concentration must pass, got: %s", a.Reason)
	}
}

func TestAssess_CheckOrderShortCircuits(t *testing.T) {
	// A proposal violating both funds and position cap must report funds:
	// the first check in the order wins.
	e := NewEngine(Config{MaxPositionSize: 10})
	portfolio := domain.PortfolioState{Cash: 100}

	a := e.Assess(buy("ACME", 50, 100), portfolio, MarketContext{})
	if !strings.Contains(a.Reason, "insufficient funds") {
		t.Errorf("funds check must run first, got: %s", a.Reason)
	}
	if _, ok := a.Metrics["held_quantity"]; ok {
		t.Error("short-circuit must not run later checks")
	}
}

func TestAssess_SectorExposure(t *testing.T) {
	e := NewEngine(Config{MaxPositionSize: 10000, MaxConcentrationPct: 50, MaxSectorExposurePct: 15})
	portfolio := domain.PortfolioState{Cash: 100000}

	// 20% passes concentration at 50 but fails the tighter sector limit.
	a := e.Assess(buy("ACME", 200, 100), portfolio, MarketContext{Sector: "tech"})
	if a.Approved {
		t.Fatal("20% sector exposure must exceed the 15% limit")
	}
	if !strings.Contains(a.Reason, "sector exposure") {
		t.Errorf("unexpected reason: %s", a.Reason)
	}

	// Without a resolved sector the check is skipped.
	a = e.Assess(buy("ACME", 200, 100), portfolio, MarketContext{})
	if !a.Approved {
		t.Errorf("missing sector must skip the check, got: %s", a.Reason)
	}
}

func TestAssess_IndexCorrelation(t *testing.T) {
	e := NewEngine(Config{MaxPositionSize: 10000, MaxConcentrationPct: 100, MaxCorrelation: 0.8})
	portfolio := domain.PortfolioState{Cash: 100000}

	symbol := []float64{100, 102, 101, 104, 103, 106, 105, 108}
	index := make([]float64, len(symbol))
	for i, c := range symbol {
		index[i] = c * 10
	}
	mkt := MarketContext{SymbolCloses: symbol, IndexCloses: index}

	a := e.Assess(buy("ACME", 10, 100), portfolio, mkt)
	if a.Approved {
		t.Fatal("perfectly index-correlated symbol must be rejected")
	}
	if !strings.Contains(a.Reason, "correlation") {
		t.Errorf("unexpected reason: %s", a.Reason)
	}
	if math.Abs(a.Metrics["index_correlation"]-1) > 1e-9 {
		t.Errorf("expected correlation 1, got %v", a.Metrics["index_correlation"])
	}

	// Inverse correlation is just as concentrated a bet.
	for i := range index {
		index[i] = 10000 - symbol[i]*10
	}
	a = e.Assess(buy("ACME", 10, 100), portfolio, mkt)
	if a.Approved {
		t.Error("anti-correlated symbol must be rejected on absolute value")
	}
}

func TestAssess_VolatilityBand(t *testing.T) {
	e := NewEngine(Config{MaxPositionSize: 10000, MaxConcentrationPct: 100, MinVolatilityPct: 5, MaxVolatilityPct: 60})
	portfolio := domain.PortfolioState{Cash: 100000}

	wild := []float64{100, 112, 95, 118, 90, 125, 88}
	a := e.Assess(buy("ACME", 10, 100), portfolio, MarketContext{SymbolCloses: wild})
	if a.Approved {
		t.Fatal("double-digit swings must exceed a 60% annualized limit")
	}
	if !strings.Contains(a.Reason, "volatility") {
		t.Errorf("unexpected reason: %s", a.Reason)
	}

	flat := []float64{100, 100.01, 100.02, 100.01, 100.02, 100.03}
	a = e.Assess(buy("ACME", 10, 100), portfolio, MarketContext{SymbolCloses: flat})
	if a.Approved {
		t.Error("near-flat series must fall below the 5% minimum")
	}

	moderate := []float64{100, 101, 100.5, 101.5, 101, 102, 101.5}
	a = e.Assess(buy("ACME", 10, 100), portfolio, MarketContext{SymbolCloses: moderate})
	if !a.Approved {
		t.Errorf("moderate volatility must pass, got: %s (%.1f%%)", a.Reason, a.Metrics["volatility_pct"])
	}
}

func TestAssess_Drawdown(t *testing.T) {
	hwm := 100000.0
	e := NewEngine(Config{MaxPositionSize: 10000, MaxConcentrationPct: 100, MaxDrawdownPct: 10})
	portfolio := domain.PortfolioState{Cash: 85000, HighWaterMark: &hwm}

	a := e.Assess(buy("ACME", 10, 100), portfolio, MarketContext{})
	if a.Approved {
		t.Fatal("15% drawdown must block new buys at a 10% limit")
	}
	if !strings.Contains(a.Reason, "drawdown") {
		t.Errorf("unexpected reason: %s", a.Reason)
	}

	portfolio.Cash = 95000
	a = e.Assess(buy("ACME", 10, 100), portfolio, MarketContext{})
	if !a.Approved {
		t.Errorf("5%% drawdown must pass, got: %s", a.Reason)
	}
}

func TestAssess_OptionalChecksSkippedWithoutData(t *testing.T) {
	e := NewEngine(Config{
		MaxPositionSize: 10000, MaxConcentrationPct: 100,
		MaxSectorExposurePct: 10, MaxCorrelation: 0.1,
		MinVolatilityPct: 5, MaxVolatilityPct: 10, MaxDrawdownPct: 1,
	})
	portfolio := domain.PortfolioState{Cash: 100000}

	a := e.Assess(buy("ACME", 10, 100), portfolio, MarketContext{})
	if !a.Approved {
		t.Errorf("missing optional data must skip checks, got: %s", a.Reason)
	}
}

func TestAssess_Sell(t *testing.T) {
	e := NewEngine(Config{})
	portfolio := domain.PortfolioState{
		Cash:      1000,
		Positions: map[string]domain.PositionEntry{"ACME": {Quantity: 50, Price: 10}},
	}

	sell := domain.TradeProposal{Symbol: "ACME", Action: domain.ActionSell, Quantity: 60, Price: 10}
	if a := e.Assess(sell, portfolio, MarketContext{}); a.Approved {
		t.Error("selling more than held must be rejected")
	}

	sell.Quantity = 50
	if a := e.Assess(sell, portfolio, MarketContext{}); !a.Approved {
		t.Errorf("selling the full position must pass, got: %s", a.Reason)
	}
}

func TestAssess_InvalidProposal(t *testing.T) {
	e := NewEngine(Config{})
	portfolio := domain.PortfolioState{Cash: 10000}

	if a := e.Assess(buy("ACME", 0, 50), portfolio, MarketContext{}); a.Approved {
		t.Error("zero quantity must be rejected")
	}
	if a := e.Assess(buy("ACME", 10, -5), portfolio, MarketContext{}); a.Approved {
		t.Error("negative price must be rejected")
	}
}

func TestCalculateDynamicPositionSize(t *testing.T) {
	e := NewEngine(Config{MaxPositionSize: 1000, MaxConcentrationPct: 25, RiskPerTradePct: 2, ATRMultiplier: 2})
	atr := 1.0

	// risk = 100000 * 2% = 2000; per-share risk = 1 * 2 = 2; raw qty 1000.
	// Concentration room: 25% of 100k at 50/share = 500 shares, which binds.
	r := e.CalculateDynamicPositionSize(100000, 50, 0, &atr)
	if r.Quantity != 500 || r.BindingCap != CapConcentration {
		t.Errorf("expected 500 bound by concentration, got %v (%s)", r.Quantity, r.BindingCap)
	}

	// A wider stop shrinks the raw size until risk itself binds.
	atr = 10
	r = e.CalculateDynamicPositionSize(100000, 50, 0, &atr)
	if r.Quantity != 100 || r.BindingCap != CapRisk {
		t.Errorf("expected 100 bound by risk, got %v (%s)", r.Quantity, r.BindingCap)
	}
}

func TestCalculateDynamicPositionSize_PositionRoom(t *testing.T) {
	e := NewEngine(Config{MaxPositionSize: 100, MaxConcentrationPct: 100, RiskPerTradePct: 10, ATRMultiplier: 1})
	atr := 1.0

	// Raw qty 10000/1 far exceeds everything; 80 already held leaves room
	// for 20 under the cap.
	r := e.CalculateDynamicPositionSize(100000, 10, 80, &atr)
	if r.Quantity != 20 || r.BindingCap != CapPositionSize {
		t.Errorf("expected 20 bound by position size, got %v (%s)", r.Quantity, r.BindingCap)
	}
}

func TestCalculateDynamicPositionSize_UnavailableWithoutATR(t *testing.T) {
	e := NewEngine(Config{})
	if r := e.CalculateDynamicPositionSize(100000, 50, 0, nil); r.Quantity != 0 || r.BindingCap != CapUnavailable {
		t.Errorf("nil ATR must make sizing unavailable, got %+v", r)
	}
	zero := 0.0
	if r := e.CalculateDynamicPositionSize(100000, 50, 0, &zero); r.BindingCap != CapUnavailable {
		t.Errorf("zero ATR must make sizing unavailable, got %+v", r)
	}
}

func TestCalculateDynamicPositionSize_DegenerateInputs(t *testing.T) {
	e := NewEngine(Config{})
	atr := 1.0
	if r := e.CalculateDynamicPositionSize(0, 50, 0, &atr); r.Quantity != 0 {
		t.Errorf("zero account value must size zero, got %v", r.Quantity)
	}
	if r := e.CalculateDynamicPositionSize(1000, 0, 0, &atr); r.Quantity != 0 {
		t.Errorf("zero price must size zero, got %v", r.Quantity)
	}
}
