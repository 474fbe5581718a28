package evaluator

import (
	"context"
	"errors"
	"testing"

	"equity-signal-lab/internal/domain"
)

func series(t *testing.T, closes []float64, volumes []float64) *domain.PriceSeries {
	t.Helper()
	n := len(closes)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	timestamps := make([]int64, n)
	if volumes == nil {
		volumes = make([]float64, n)
		for i := range volumes {
			volumes[i] = 1000
		}
	}
	for i, c := range closes {
		opens[i] = c
		highs[i] = c + 1
		lows[i] = c - 1
		timestamps[i] = int64(i) * 60000
	}
	s, err := domain.NewDensePriceSeries(opens, highs, lows, closes, volumes, timestamps)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

func risingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func TestEvaluate_EmptySeriesHolds(t *testing.T) {
	e := New(Config{})
	r := e.Evaluate(nil, nil)
	if r.OverallSignal != domain.SignalHold {
		t.Errorf("expected HOLD on empty input, got %s", r.OverallSignal)
	}
}

func TestEvaluate_InsufficientHistoryHolds(t *testing.T) {
	e := New(Config{})
	s := series(t, []float64{100, 101, 102}, nil)

	r := e.Evaluate(s, s)
	if r.OverallSignal != domain.SignalHold {
		t.Fatalf("expected HOLD, got %s", r.OverallSignal)
	}
	if len(r.Indicators) != 4 {
		t.Fatalf("core panel must always report 4 indicators, got %d", len(r.Indicators))
	}
	for name, ir := range r.Indicators {
		if ir.Signal != domain.SignalHold {
			t.Errorf("%s: expected HOLD on short history, got %s", name, ir.Signal)
		}
		if ir.Reason == "" {
			t.Errorf("%s: hold must carry a reason", name)
		}
	}
}

func TestEvaluate_MarketDirectionFollowsIndex(t *testing.T) {
	e := New(Config{})
	symbol := series(t, risingCloses(40), nil)
	index := series(t, risingCloses(40), nil)

	r := e.Evaluate(symbol, index)
	if got := r.Indicators[IndicatorMarketDirection].Signal; got != domain.SignalBuy {
		t.Errorf("rising index should read bullish, got %s", got)
	}

	falling := make([]float64, 40)
	for i := range falling {
		falling[i] = 200 - float64(i)
	}
	r = e.Evaluate(symbol, series(t, falling, nil))
	if got := r.Indicators[IndicatorMarketDirection].Signal; got != domain.SignalSell {
		t.Errorf("falling index should read bearish, got %s", got)
	}
}

func TestEvaluate_CustomIndicatorInclusion(t *testing.T) {
	cfg := Config{
		CustomIndicators: []domain.CustomIndicatorConfig{
			{Name: "enabled-rule", Type: domain.CustomTypeSMA, Period: 5,
				Condition: domain.ConditionGreaterThan, Threshold: 0, Enabled: true},
			{Name: "disabled-rule", Type: domain.CustomTypeSMA, Period: 5,
				Condition: domain.ConditionGreaterThan, Threshold: 0},
		},
	}
	e := New(cfg)
	r := e.Evaluate(series(t, risingCloses(40), nil), nil)

	if _, ok := r.CustomIndicators["enabled-rule"]; !ok {
		t.Error("enabled custom indicator missing from result")
	}
	if _, ok := r.CustomIndicators["disabled-rule"]; ok {
		t.Error("disabled custom indicator must not run")
	}
}

func TestConsensus(t *testing.T) {
	mk := func(signals ...domain.Signal) *domain.MultiIndicatorResult {
		r := &domain.MultiIndicatorResult{
			Indicators:       make(map[string]domain.IndicatorResult),
			CustomIndicators: make(map[string]domain.IndicatorResult),
		}
		for i, sig := range signals {
			r.Indicators[string(rune('a'+i))] = domain.IndicatorResult{Signal: sig}
		}
		return r
	}
	e := New(Config{})

	cases := []struct {
		name         string
		result       *domain.MultiIndicatorResult
		wantSignal   domain.Signal
		wantStrength float64
	}{
		{"all green", mk(domain.SignalBuy, domain.SignalBuy, domain.SignalBuy), domain.SignalBuy, 100},
		{"all red", mk(domain.SignalSell, domain.SignalSell), domain.SignalSell, 100},
		{"one dissenter", mk(domain.SignalBuy, domain.SignalBuy, domain.SignalBuy, domain.SignalHold), domain.SignalHold, 75},
		{"split", mk(domain.SignalBuy, domain.SignalSell), domain.SignalHold, 50},
		{"empty", mk(), domain.SignalHold, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e.applyConsensus(tc.result)
			if tc.result.OverallSignal != tc.wantSignal {
				t.Errorf("signal: expected %s, got %s", tc.wantSignal, tc.result.OverallSignal)
			}
			if tc.result.SignalStrength != tc.wantStrength {
				t.Errorf("strength: expected %v, got %v", tc.wantStrength, tc.result.SignalStrength)
			}
		})
	}
}

func TestApplyMacro(t *testing.T) {
	cases := []struct {
		name         string
		signal       domain.Signal
		strength     float64
		status       domain.MacroStatus
		wantStrength float64
	}{
		{"risk-on boosts buy", domain.SignalBuy, 80, domain.MacroRiskOn, 95},
		{"risk-on boost clamps at 100", domain.SignalBuy, 95, domain.MacroRiskOn, 100},
		{"risk-off dampens buy", domain.SignalBuy, 80, domain.MacroRiskOff, 70},
		{"risk-off boosts sell", domain.SignalSell, 60, domain.MacroRiskOff, 75},
		{"risk-on dampens sell", domain.SignalSell, 5, domain.MacroRiskOn, 0},
		{"neutral leaves strength", domain.SignalBuy, 80, domain.MacroNeutral, 80},
		{"hold unaffected", domain.SignalHold, 50, domain.MacroRiskOn, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &domain.MultiIndicatorResult{OverallSignal: tc.signal, SignalStrength: tc.strength}
			ApplyMacro(r, &domain.MacroAssessment{Status: tc.status, Score: 50})
			if r.SignalStrength != tc.wantStrength {
				t.Errorf("expected strength %v, got %v", tc.wantStrength, r.SignalStrength)
			}
			if r.OverallSignal != tc.signal {
				t.Errorf("macro overlay must never change direction: %s -> %s", tc.signal, r.OverallSignal)
			}
		})
	}
}

func TestApplyMacro_NilIsNoop(t *testing.T) {
	r := &domain.MultiIndicatorResult{OverallSignal: domain.SignalBuy, SignalStrength: 42}
	ApplyMacro(r, nil)
	if r.SignalStrength != 42 || r.Macro != nil {
		t.Error("nil assessment must leave the result untouched")
	}
}

type stubRefiner struct {
	refinement *domain.Refinement
	err        error
}

func (s *stubRefiner) RefineSignal(context.Context, string, *domain.MultiIndicatorResult, *domain.PriceSeries) (*domain.Refinement, error) {
	return s.refinement, s.err
}

func TestEvaluateRefined_FallbackOnError(t *testing.T) {
	e := New(Config{})
	s := series(t, risingCloses(40), nil)
	base := e.Evaluate(s, nil)

	refined := e.EvaluateRefined(context.Background(), &stubRefiner{err: errors.New("upstream down")}, "ACME", s, nil)
	if refined.OverallSignal != base.OverallSignal || refined.SignalStrength != base.SignalStrength {
		t.Error("refiner failure must fall back to the rule-based result")
	}
}

func TestEvaluateRefined_AppliesRefinement(t *testing.T) {
	e := New(Config{})
	s := series(t, risingCloses(40), nil)

	refiner := &stubRefiner{refinement: &domain.Refinement{
		RefinedSignal:   domain.SignalBuy,
		ConfidenceScore: 87,
		Reasoning:       "favorable setup",
	}}
	r := e.EvaluateRefined(context.Background(), refiner, "ACME", s, nil)
	if r.OverallSignal != domain.SignalBuy || r.SignalStrength != 87 {
		t.Errorf("expected refined BUY@87, got %s@%v", r.OverallSignal, r.SignalStrength)
	}
}

func TestEvaluateRefined_RejectsInvalidSignal(t *testing.T) {
	e := New(Config{})
	s := series(t, risingCloses(40), nil)
	base := e.Evaluate(s, nil)

	refiner := &stubRefiner{refinement: &domain.Refinement{RefinedSignal: "SHORT", ConfidenceScore: 90}}
	r := e.EvaluateRefined(context.Background(), refiner, "ACME", s, nil)
	if r.OverallSignal != base.OverallSignal {
		t.Error("unknown refined signal must be discarded")
	}
}

func TestSignalSetsEqual(t *testing.T) {
	mk := func(overall domain.Signal, sigs map[string]domain.Signal) *domain.MultiIndicatorResult {
		r := &domain.MultiIndicatorResult{
			OverallSignal:    overall,
			Indicators:       make(map[string]domain.IndicatorResult),
			CustomIndicators: make(map[string]domain.IndicatorResult),
		}
		for name, sig := range sigs {
			r.Indicators[name] = domain.IndicatorResult{Signal: sig}
		}
		return r
	}

	a := mk(domain.SignalBuy, map[string]domain.Signal{"x": domain.SignalBuy, "y": domain.SignalBuy})
	b := mk(domain.SignalBuy, map[string]domain.Signal{"x": domain.SignalBuy, "y": domain.SignalBuy})
	if !SignalSetsEqual(a, b) {
		t.Error("identical directions must compare equal")
	}

	// Numeric drift must not register as a change.
	v1, v2 := 10.0, 10.0000001
	a.Indicators["x"] = domain.IndicatorResult{Signal: domain.SignalBuy, Value: &v1}
	b.Indicators["x"] = domain.IndicatorResult{Signal: domain.SignalBuy, Value: &v2}
	if !SignalSetsEqual(a, b) {
		t.Error("value drift with same direction must compare equal")
	}

	b.Indicators["y"] = domain.IndicatorResult{Signal: domain.SignalHold}
	if SignalSetsEqual(a, b) {
		t.Error("changed indicator direction must compare unequal")
	}

	c := mk(domain.SignalBuy, map[string]domain.Signal{"x": domain.SignalBuy})
	if SignalSetsEqual(a, c) {
		t.Error("different indicator sets must compare unequal")
	}
	if !SignalSetsEqual(nil, nil) || SignalSetsEqual(a, nil) {
		t.Error("nil handling")
	}
}
