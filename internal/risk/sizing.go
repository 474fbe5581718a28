package risk

import "math"

// SizingResult explains a dynamic position-size decision: the final whole
// share quantity plus which cap ended up binding.
type SizingResult struct {
	Quantity   float64
	RiskAmount float64 // account value at risk for this trade
	BindingCap string
}

// Sizing cap names.
const (
	CapRisk          = "risk"
	CapPositionSize  = "position_size"
	CapConcentration = "concentration"
	CapUnavailable   = "unavailable"
)

// CalculateDynamicPositionSize sizes a buy from volatility: the quantity
// that puts RiskPerTradePct of account value at risk over an ATR-scaled
// stop distance, then capped by remaining room under the position-size
// limit and remaining room under the concentration limit at the current
// price. The cap that actually binds is reported for diagnostics.
// A nil or non-positive ATR makes sizing unavailable and returns zero;
// the caller falls back to its fixed quantity. Quantities are whole
// shares, rounded down.
func (e *Engine) CalculateDynamicPositionSize(accountValue, price, currentQuantity float64, atr *float64) SizingResult {
	if atr == nil || *atr <= 0 {
		return SizingResult{BindingCap: CapUnavailable}
	}
	if accountValue <= 0 || price <= 0 {
		return SizingResult{BindingCap: CapUnavailable}
	}

	riskAmount := accountValue * e.cfg.RiskPerTradePct / 100
	qty := math.Floor(riskAmount / (*atr * e.cfg.ATRMultiplier))
	result := SizingResult{Quantity: qty, RiskAmount: riskAmount, BindingCap: CapRisk}

	positionRoom := math.Floor(e.cfg.MaxPositionSize - currentQuantity)
	if positionRoom < 0 {
		positionRoom = 0
	}
	if result.Quantity > positionRoom {
		result.Quantity = positionRoom
		result.BindingCap = CapPositionSize
	}

	concentrationRoom := math.Floor(e.cfg.MaxConcentrationPct/100*accountValue/price - currentQuantity)
	if concentrationRoom < 0 {
		concentrationRoom = 0
	}
	if result.Quantity > concentrationRoom {
		result.Quantity = concentrationRoom
		result.BindingCap = CapConcentration
	}

	return result
}
