package domain

// Condition is the comparison applied by a custom indicator.
type Condition string

// Condition constants. Crossover conditions compare the previous computed
// value against the threshold as well as the current one.
const (
	ConditionGreaterThan    Condition = "GreaterThan"
	ConditionLessThan       Condition = "LessThan"
	ConditionCrossOverAbove Condition = "CrossOverAbove"
	ConditionCrossOverBelow Condition = "CrossOverBelow"
)

// Custom indicator type constants. MACD components select which line of the
// MACD computation feeds the comparison.
const (
	CustomTypeSMA           = "SMA"
	CustomTypeEMA           = "EMA"
	CustomTypeRSI           = "RSI"
	CustomTypeMACD          = "MACD"
	CustomTypeMACDSignal    = "MACD_SIGNAL"
	CustomTypeMACDHistogram = "MACD_HISTOGRAM"
	CustomTypeATR           = "ATR"
	CustomTypeROC           = "ROC"
	CustomTypeCCI           = "CCI"
	CustomTypeMFI           = "MFI"
	CustomTypeWilliamsR     = "WILLIAMS_R"
	CustomTypeOBV           = "OBV"
	CustomTypeADX           = "ADX"
)

// CustomIndicatorConfig declares one configurable indicator: which
// computation to run, its parameters, and the condition that turns the
// computed value into a signal.
type CustomIndicatorConfig struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Period    int       `json:"period,omitempty"`
	Condition Condition `json:"condition"`
	Threshold float64   `json:"threshold"`
	// Signal emitted when the condition fires; the opposite side reports
	// HOLD rather than inverting.
	SignalOnMatch Signal `json:"signalOnMatch,omitempty"`

	// MACD parameters, ignored for other types.
	FastPeriod   int `json:"fastPeriod,omitempty"`
	SlowPeriod   int `json:"slowPeriod,omitempty"`
	SignalPeriod int `json:"signalPeriod,omitempty"`

	Enabled bool `json:"enabled"`
}

// ApplyDefaults fills zero-valued tunables with documented defaults.
func (c *CustomIndicatorConfig) ApplyDefaults() {
	if c.Period <= 0 {
		c.Period = 14
	}
	if c.FastPeriod <= 0 {
		c.FastPeriod = 12
	}
	if c.SlowPeriod <= 0 {
		c.SlowPeriod = 26
	}
	if c.SignalPeriod <= 0 {
		c.SignalPeriod = 9
	}
	if c.SignalOnMatch == "" {
		c.SignalOnMatch = SignalBuy
	}
}
