package evaluator

import "equity-signal-lab/internal/domain"

// Built-in indicator names. These are the keys of MultiIndicatorResult.Indicators.
const (
	IndicatorPattern         = "price_pattern"
	IndicatorMomentum        = "momentum"
	IndicatorMarketDirection = "market_direction"
	IndicatorVolume          = "volume"
	IndicatorBollinger       = "bollinger"
	IndicatorStochastic      = "stochastic"
	IndicatorADX             = "adx"
	IndicatorMFI             = "mfi"
	IndicatorCCI             = "cci"
	IndicatorWilliamsR       = "williams_r"
	IndicatorKeltner         = "keltner"
	IndicatorROC             = "roc"
)

// Config controls which indicators run and with which parameters.
// The four core indicators always run; extras are opt-in by name.
type Config struct {
	// Price pattern: close vs fast and slow moving averages.
	PatternFastPeriod int
	PatternSlowPeriod int

	// Momentum: RSI with oversold/overbought bands.
	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64

	// Market direction: fast vs slow SMA on the market index series.
	MarketFastPeriod int
	MarketSlowPeriod int

	// Volume: current volume vs its moving average.
	VolumePeriod     int
	VolumeSurgeRatio float64

	// ExtraIndicators enables optional built-ins by name
	// (bollinger, stochastic, adx, mfi, cci, williams_r, keltner, roc).
	ExtraIndicators []string

	BollingerPeriod   int
	BollingerStdDev   float64
	StochasticKPeriod int
	StochasticDPeriod int
	ADXPeriod         int
	ADXTrendThreshold float64
	MFIPeriod         int
	CCIPeriod         int
	WilliamsRPeriod   int
	ROCPeriod         int
	KeltnerEMAPeriod  int
	KeltnerATRPeriod  int
	KeltnerMultiplier float64

	// CustomIndicators are user-defined threshold/crossover rules.
	CustomIndicators []domain.CustomIndicatorConfig
}

// ApplyDefaults fills zero-valued fields with standard parameters.
func (c *Config) ApplyDefaults() {
	if c.PatternFastPeriod == 0 {
		c.PatternFastPeriod = 10
	}
	if c.PatternSlowPeriod == 0 {
		c.PatternSlowPeriod = 20
	}
	if c.RSIPeriod == 0 {
		c.RSIPeriod = 14
	}
	if c.RSIOversold == 0 {
		c.RSIOversold = 30
	}
	if c.RSIOverbought == 0 {
		c.RSIOverbought = 70
	}
	if c.MarketFastPeriod == 0 {
		c.MarketFastPeriod = 10
	}
	if c.MarketSlowPeriod == 0 {
		c.MarketSlowPeriod = 30
	}
	if c.VolumePeriod == 0 {
		c.VolumePeriod = 20
	}
	if c.VolumeSurgeRatio == 0 {
		c.VolumeSurgeRatio = 1.5
	}
	if c.BollingerPeriod == 0 {
		c.BollingerPeriod = 20
	}
	if c.BollingerStdDev == 0 {
		c.BollingerStdDev = 2
	}
	if c.StochasticKPeriod == 0 {
		c.StochasticKPeriod = 14
	}
	if c.StochasticDPeriod == 0 {
		c.StochasticDPeriod = 3
	}
	if c.ADXPeriod == 0 {
		c.ADXPeriod = 14
	}
	if c.ADXTrendThreshold == 0 {
		c.ADXTrendThreshold = 25
	}
	if c.MFIPeriod == 0 {
		c.MFIPeriod = 14
	}
	if c.CCIPeriod == 0 {
		c.CCIPeriod = 20
	}
	if c.WilliamsRPeriod == 0 {
		c.WilliamsRPeriod = 14
	}
	if c.ROCPeriod == 0 {
		c.ROCPeriod = 12
	}
	if c.KeltnerEMAPeriod == 0 {
		c.KeltnerEMAPeriod = 20
	}
	if c.KeltnerATRPeriod == 0 {
		c.KeltnerATRPeriod = 10
	}
	if c.KeltnerMultiplier == 0 {
		c.KeltnerMultiplier = 2
	}
	for i := range c.CustomIndicators {
		c.CustomIndicators[i].ApplyDefaults()
	}
}
