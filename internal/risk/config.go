package risk

// Config holds risk limits. Zero-valued optional limits disable their
// checks; the mandatory limits get conservative defaults.
type Config struct {
	// MaxPositionSize caps the absolute quantity held in any one symbol.
	MaxPositionSize float64

	// MaxConcentrationPct caps a single position's share of total
	// portfolio value, in percent.
	MaxConcentrationPct float64

	// MaxSectorExposurePct caps exposure attributed to one sector, in
	// percent of portfolio value. Zero disables the check.
	MaxSectorExposurePct float64

	// MaxCorrelation rejects buys whose close series correlates with the
	// market index above this threshold in absolute value. Zero disables
	// the check.
	MaxCorrelation float64

	// MinVolatilityPct and MaxVolatilityPct bound the symbol's
	// annualized log-return volatility, in percent. Both zero disables
	// the check.
	MinVolatilityPct float64
	MaxVolatilityPct float64

	// MaxDrawdownPct blocks new buys while the portfolio is drawn down
	// beyond this percentage from its high-water mark. Zero disables
	// the check.
	MaxDrawdownPct float64

	// RiskPerTradePct is the fraction of account value risked per trade
	// when sizing dynamically, in percent.
	RiskPerTradePct float64

	// ATRMultiplier scales ATR into a per-share risk estimate for
	// dynamic sizing.
	ATRMultiplier float64
}

// ApplyDefaults fills zero-valued mandatory fields.
func (c *Config) ApplyDefaults() {
	if c.MaxPositionSize == 0 {
		c.MaxPositionSize = 1000
	}
	if c.MaxConcentrationPct == 0 {
		c.MaxConcentrationPct = 25
	}
	if c.RiskPerTradePct == 0 {
		c.RiskPerTradePct = 2
	}
	if c.ATRMultiplier == 0 {
		c.ATRMultiplier = 2
	}
}
