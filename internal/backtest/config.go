package backtest

import (
	"sort"

	"equity-signal-lab/internal/evaluator"
	"equity-signal-lab/internal/risk"
)

// MaxLookbackBars bounds the trailing window the evaluator recomputes
// over each bar. Indicators needing deeper history than this are out of
// scope; bounding keeps the per-bar recompute cost flat.
const MaxLookbackBars = 500

// ExitStage is one rung of a scaled exit: when unrealized profit crosses
// ProfitPct, ExitPct percent of the original quantity is sold. Each stage
// fires at most once per position lifetime.
type ExitStage struct {
	ProfitPct float64
	ExitPct   float64
}

// Config holds all backtest tunables. Every field has a default; a
// zero-valued exit rule disables that rule.
type Config struct {
	InitialCapital float64

	// Entry rules.
	RequireAllIndicatorsGreen bool
	MinSignalStrength         float64

	// Sizing: dynamic ATR-based when enabled, else FixedQuantity shares.
	UseDynamicSizing bool
	ATRPeriod        int
	FixedQuantity    float64

	// Exit rules, in priority order.
	TakeProfitPct     float64
	StopLossPct       float64
	TrailingStopPct   float64
	MaxHoldBars       int
	CloseAtSessionEnd bool

	// Scaled exits.
	EnablePartialExits bool
	ExitStages         []ExitStage

	Evaluator evaluator.Config
	Risk      risk.Config
}

// ApplyDefaults fills zero-valued fields and sorts exit stages ascending
// by profit threshold.
func (c *Config) ApplyDefaults() {
	if c.InitialCapital == 0 {
		c.InitialCapital = 100000
	}
	if c.ATRPeriod == 0 {
		c.ATRPeriod = 14
	}
	if c.FixedQuantity == 0 {
		c.FixedQuantity = 100
	}
	sort.SliceStable(c.ExitStages, func(i, j int) bool {
		return c.ExitStages[i].ProfitPct < c.ExitStages[j].ProfitPct
	})
	c.Evaluator.ApplyDefaults()
	c.Risk.ApplyDefaults()
}
