package evaluator

import (
	"fmt"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/indicator"
)

// evaluatePattern reads trend structure from the close against fast and
// slow moving averages: close above both with fast above slow is bullish,
// the mirror image bearish, anything else HOLD.
func (e *Evaluator) evaluatePattern(s *domain.PriceSeries) domain.IndicatorResult {
	fast := indicator.SMA(s.Closes, e.cfg.PatternFastPeriod)
	slow := indicator.SMA(s.Closes, e.cfg.PatternSlowPeriod)
	if fast == nil || slow == nil {
		return domain.HoldResult(fmt.Sprintf("pattern: need %d bars", e.cfg.PatternSlowPeriod))
	}
	close_ := s.Closes[s.Len()-1]

	meta := map[string]float64{"close": close_, "fast_sma": *fast, "slow_sma": *slow}
	switch {
	case close_ > *fast && *fast > *slow:
		return domain.IndicatorResult{
			Value:    indicator.Float(close_),
			Signal:   domain.SignalBuy,
			Reason:   fmt.Sprintf("pattern: close %.2f above fast %.2f above slow %.2f", close_, *fast, *slow),
			Metadata: meta,
		}
	case close_ < *fast && *fast < *slow:
		return domain.IndicatorResult{
			Value:    indicator.Float(close_),
			Signal:   domain.SignalSell,
			Reason:   fmt.Sprintf("pattern: close %.2f below fast %.2f below slow %.2f", close_, *fast, *slow),
			Metadata: meta,
		}
	default:
		return domain.IndicatorResult{
			Value:    indicator.Float(close_),
			Signal:   domain.SignalHold,
			Reason:   "pattern: averages not aligned",
			Metadata: meta,
		}
	}
}

// evaluateMomentum maps RSI to a contrarian signal: oversold is a buying
// opportunity, overbought a selling one.
func (e *Evaluator) evaluateMomentum(s *domain.PriceSeries) domain.IndicatorResult {
	rsi := indicator.RSI(s.Closes, e.cfg.RSIPeriod)
	if rsi == nil {
		return domain.HoldResult(fmt.Sprintf("momentum: need %d bars", e.cfg.RSIPeriod+1))
	}

	meta := map[string]float64{"rsi": *rsi, "oversold": e.cfg.RSIOversold, "overbought": e.cfg.RSIOverbought}
	switch {
	case *rsi < e.cfg.RSIOversold:
		return domain.IndicatorResult{
			Value:    rsi,
			Signal:   domain.SignalBuy,
			Reason:   fmt.Sprintf("momentum: RSI %.1f below %.0f", *rsi, e.cfg.RSIOversold),
			Metadata: meta,
		}
	case *rsi > e.cfg.RSIOverbought:
		return domain.IndicatorResult{
			Value:    rsi,
			Signal:   domain.SignalSell,
			Reason:   fmt.Sprintf("momentum: RSI %.1f above %.0f", *rsi, e.cfg.RSIOverbought),
			Metadata: meta,
		}
	default:
		return domain.IndicatorResult{
			Value:    rsi,
			Signal:   domain.SignalHold,
			Reason:   fmt.Sprintf("momentum: RSI %.1f in neutral band", *rsi),
			Metadata: meta,
		}
	}
}

// evaluateMarketDirection reads the broad market from the index series.
// A nil index series degrades to HOLD rather than erroring.
func (e *Evaluator) evaluateMarketDirection(index *domain.PriceSeries) domain.IndicatorResult {
	if index == nil || index.Len() == 0 {
		return domain.HoldResult("market: no index data")
	}
	fast := indicator.SMA(index.Closes, e.cfg.MarketFastPeriod)
	slow := indicator.SMA(index.Closes, e.cfg.MarketSlowPeriod)
	if fast == nil || slow == nil {
		return domain.HoldResult(fmt.Sprintf("market: need %d index bars", e.cfg.MarketSlowPeriod))
	}

	meta := map[string]float64{"index_fast": *fast, "index_slow": *slow}
	switch {
	case *fast > *slow:
		return domain.IndicatorResult{
			Value:    fast,
			Signal:   domain.SignalBuy,
			Reason:   fmt.Sprintf("market: index fast %.2f above slow %.2f", *fast, *slow),
			Metadata: meta,
		}
	case *fast < *slow:
		return domain.IndicatorResult{
			Value:    fast,
			Signal:   domain.SignalSell,
			Reason:   fmt.Sprintf("market: index fast %.2f below slow %.2f", *fast, *slow),
			Metadata: meta,
		}
	default:
		return domain.IndicatorResult{
			Value:    fast,
			Signal:   domain.SignalHold,
			Reason:   "market: index averages equal",
			Metadata: meta,
		}
	}
}

// evaluateVolume looks for volume surges confirming the bar's direction.
// A surge on an up bar is bullish, on a down bar bearish.
func (e *Evaluator) evaluateVolume(s *domain.PriceSeries) domain.IndicatorResult {
	n := s.Len()
	if n < 2 {
		return domain.HoldResult("volume: need at least 2 bars")
	}
	avg := indicator.SMA(s.Volumes, e.cfg.VolumePeriod)
	if avg == nil {
		return domain.HoldResult(fmt.Sprintf("volume: need %d bars", e.cfg.VolumePeriod))
	}
	vol := s.Volumes[n-1]
	meta := map[string]float64{"volume": vol, "average": *avg, "ratio": 0}
	if *avg > 0 {
		meta["ratio"] = vol / *avg
	}

	surge := *avg > 0 && vol > e.cfg.VolumeSurgeRatio**avg
	priceUp := s.Closes[n-1] > s.Closes[n-2]
	priceDown := s.Closes[n-1] < s.Closes[n-2]
	switch {
	case surge && priceUp:
		return domain.IndicatorResult{
			Value:    indicator.Float(vol),
			Signal:   domain.SignalBuy,
			Reason:   fmt.Sprintf("volume: surge %.1fx average on up bar", meta["ratio"]),
			Metadata: meta,
		}
	case surge && priceDown:
		return domain.IndicatorResult{
			Value:    indicator.Float(vol),
			Signal:   domain.SignalSell,
			Reason:   fmt.Sprintf("volume: surge %.1fx average on down bar", meta["ratio"]),
			Metadata: meta,
		}
	default:
		return domain.IndicatorResult{
			Value:    indicator.Float(vol),
			Signal:   domain.SignalHold,
			Reason:   "volume: no confirming surge",
			Metadata: meta,
		}
	}
}

// evaluateExtra dispatches one opt-in indicator by name. Unknown names
// degrade to HOLD so a config typo cannot poison the consensus.
func (e *Evaluator) evaluateExtra(name string, s *domain.PriceSeries) domain.IndicatorResult {
	switch name {
	case IndicatorBollinger:
		return e.evaluateBollinger(s)
	case IndicatorStochastic:
		return e.evaluateStochastic(s)
	case IndicatorADX:
		return e.evaluateADX(s)
	case IndicatorMFI:
		return e.evaluateMFI(s)
	case IndicatorCCI:
		return e.evaluateCCI(s)
	case IndicatorWilliamsR:
		return e.evaluateWilliamsR(s)
	case IndicatorKeltner:
		return e.evaluateKeltner(s)
	case IndicatorROC:
		return e.evaluateROC(s)
	default:
		return domain.HoldResult(fmt.Sprintf("unknown indicator %q", name))
	}
}

func (e *Evaluator) evaluateBollinger(s *domain.PriceSeries) domain.IndicatorResult {
	b := indicator.BollingerBands(s.Closes, e.cfg.BollingerPeriod, e.cfg.BollingerStdDev)
	if b == nil {
		return domain.HoldResult(fmt.Sprintf("bollinger: need %d bars", e.cfg.BollingerPeriod))
	}
	close_ := s.Closes[s.Len()-1]
	meta := map[string]float64{"close": close_, "upper": b.Upper, "middle": b.Middle, "lower": b.Lower}
	switch {
	case close_ < b.Lower:
		return domain.IndicatorResult{Value: indicator.Float(close_), Signal: domain.SignalBuy,
			Reason: fmt.Sprintf("bollinger: close %.2f below lower band %.2f", close_, b.Lower), Metadata: meta}
	case close_ > b.Upper:
		return domain.IndicatorResult{Value: indicator.Float(close_), Signal: domain.SignalSell,
			Reason: fmt.Sprintf("bollinger: close %.2f above upper band %.2f", close_, b.Upper), Metadata: meta}
	default:
		return domain.IndicatorResult{Value: indicator.Float(close_), Signal: domain.SignalHold,
			Reason: "bollinger: close inside bands", Metadata: meta}
	}
}

func (e *Evaluator) evaluateStochastic(s *domain.PriceSeries) domain.IndicatorResult {
	v := indicator.Stochastic(s.Highs, s.Lows, s.Closes, e.cfg.StochasticKPeriod, e.cfg.StochasticDPeriod)
	if v == nil {
		return domain.HoldResult(fmt.Sprintf("stochastic: need %d bars", e.cfg.StochasticKPeriod+e.cfg.StochasticDPeriod-1))
	}
	meta := map[string]float64{"k": v.K, "d": v.D}
	switch {
	case v.K < 20:
		return domain.IndicatorResult{Value: indicator.Float(v.K), Signal: domain.SignalBuy,
			Reason: fmt.Sprintf("stochastic: %%K %.1f oversold", v.K), Metadata: meta}
	case v.K > 80:
		return domain.IndicatorResult{Value: indicator.Float(v.K), Signal: domain.SignalSell,
			Reason: fmt.Sprintf("stochastic: %%K %.1f overbought", v.K), Metadata: meta}
	default:
		return domain.IndicatorResult{Value: indicator.Float(v.K), Signal: domain.SignalHold,
			Reason: fmt.Sprintf("stochastic: %%K %.1f neutral", v.K), Metadata: meta}
	}
}

// evaluateADX signals only when trend strength clears the threshold;
// direction comes from the close versus a period ago.
func (e *Evaluator) evaluateADX(s *domain.PriceSeries) domain.IndicatorResult {
	adx := indicator.ADX(s.Highs, s.Lows, s.Closes, e.cfg.ADXPeriod)
	if adx == nil {
		return domain.HoldResult(fmt.Sprintf("adx: need %d bars", 2*e.cfg.ADXPeriod))
	}
	n := s.Len()
	meta := map[string]float64{"adx": *adx, "threshold": e.cfg.ADXTrendThreshold}
	if *adx < e.cfg.ADXTrendThreshold || n <= e.cfg.ADXPeriod {
		return domain.IndicatorResult{Value: adx, Signal: domain.SignalHold,
			Reason: fmt.Sprintf("adx: %.1f below trend threshold %.0f", *adx, e.cfg.ADXTrendThreshold), Metadata: meta}
	}
	ref := s.Closes[n-1-e.cfg.ADXPeriod]
	switch {
	case s.Closes[n-1] > ref:
		return domain.IndicatorResult{Value: adx, Signal: domain.SignalBuy,
			Reason: fmt.Sprintf("adx: %.1f trending up", *adx), Metadata: meta}
	case s.Closes[n-1] < ref:
		return domain.IndicatorResult{Value: adx, Signal: domain.SignalSell,
			Reason: fmt.Sprintf("adx: %.1f trending down", *adx), Metadata: meta}
	default:
		return domain.IndicatorResult{Value: adx, Signal: domain.SignalHold,
			Reason: "adx: strong but directionless", Metadata: meta}
	}
}

func (e *Evaluator) evaluateMFI(s *domain.PriceSeries) domain.IndicatorResult {
	mfi := indicator.MFI(s.Highs, s.Lows, s.Closes, s.Volumes, e.cfg.MFIPeriod)
	if mfi == nil {
		return domain.HoldResult(fmt.Sprintf("mfi: need %d bars", e.cfg.MFIPeriod+1))
	}
	meta := map[string]float64{"mfi": *mfi}
	switch {
	case *mfi < 20:
		return domain.IndicatorResult{Value: mfi, Signal: domain.SignalBuy,
			Reason: fmt.Sprintf("mfi: %.1f oversold", *mfi), Metadata: meta}
	case *mfi > 80:
		return domain.IndicatorResult{Value: mfi, Signal: domain.SignalSell,
			Reason: fmt.Sprintf("mfi: %.1f overbought", *mfi), Metadata: meta}
	default:
		return domain.IndicatorResult{Value: mfi, Signal: domain.SignalHold,
			Reason: fmt.Sprintf("mfi: %.1f neutral", *mfi), Metadata: meta}
	}
}

func (e *Evaluator) evaluateCCI(s *domain.PriceSeries) domain.IndicatorResult {
	cci := indicator.CCI(s.Highs, s.Lows, s.Closes, e.cfg.CCIPeriod)
	if cci == nil {
		return domain.HoldResult(fmt.Sprintf("cci: need %d bars", e.cfg.CCIPeriod))
	}
	meta := map[string]float64{"cci": *cci}
	switch {
	case *cci < -100:
		return domain.IndicatorResult{Value: cci, Signal: domain.SignalBuy,
			Reason: fmt.Sprintf("cci: %.1f below -100", *cci), Metadata: meta}
	case *cci > 100:
		return domain.IndicatorResult{Value: cci, Signal: domain.SignalSell,
			Reason: fmt.Sprintf("cci: %.1f above 100", *cci), Metadata: meta}
	default:
		return domain.IndicatorResult{Value: cci, Signal: domain.SignalHold,
			Reason: fmt.Sprintf("cci: %.1f neutral", *cci), Metadata: meta}
	}
}

func (e *Evaluator) evaluateWilliamsR(s *domain.PriceSeries) domain.IndicatorResult {
	wr := indicator.WilliamsR(s.Highs, s.Lows, s.Closes, e.cfg.WilliamsRPeriod)
	if wr == nil {
		return domain.HoldResult(fmt.Sprintf("williams_r: need %d bars", e.cfg.WilliamsRPeriod))
	}
	meta := map[string]float64{"williams_r": *wr}
	switch {
	case *wr < -80:
		return domain.IndicatorResult{Value: wr, Signal: domain.SignalBuy,
			Reason: fmt.Sprintf("williams_r: %.1f oversold", *wr), Metadata: meta}
	case *wr > -20:
		return domain.IndicatorResult{Value: wr, Signal: domain.SignalSell,
			Reason: fmt.Sprintf("williams_r: %.1f overbought", *wr), Metadata: meta}
	default:
		return domain.IndicatorResult{Value: wr, Signal: domain.SignalHold,
			Reason: fmt.Sprintf("williams_r: %.1f neutral", *wr), Metadata: meta}
	}
}

func (e *Evaluator) evaluateKeltner(s *domain.PriceSeries) domain.IndicatorResult {
	b := indicator.KeltnerChannels(s.Highs, s.Lows, s.Closes,
		e.cfg.KeltnerEMAPeriod, e.cfg.KeltnerATRPeriod, e.cfg.KeltnerMultiplier)
	if b == nil {
		return domain.HoldResult(fmt.Sprintf("keltner: need %d bars", e.cfg.KeltnerEMAPeriod))
	}
	close_ := s.Closes[s.Len()-1]
	meta := map[string]float64{"close": close_, "upper": b.Upper, "middle": b.Middle, "lower": b.Lower}
	switch {
	case close_ < b.Lower:
		return domain.IndicatorResult{Value: indicator.Float(close_), Signal: domain.SignalBuy,
			Reason: fmt.Sprintf("keltner: close %.2f below lower channel %.2f", close_, b.Lower), Metadata: meta}
	case close_ > b.Upper:
		return domain.IndicatorResult{Value: indicator.Float(close_), Signal: domain.SignalSell,
			Reason: fmt.Sprintf("keltner: close %.2f above upper channel %.2f", close_, b.Upper), Metadata: meta}
	default:
		return domain.IndicatorResult{Value: indicator.Float(close_), Signal: domain.SignalHold,
			Reason: "keltner: close inside channel", Metadata: meta}
	}
}

func (e *Evaluator) evaluateROC(s *domain.PriceSeries) domain.IndicatorResult {
	roc := indicator.ROC(s.Closes, e.cfg.ROCPeriod)
	if roc == nil {
		return domain.HoldResult(fmt.Sprintf("roc: need %d bars", e.cfg.ROCPeriod+1))
	}
	meta := map[string]float64{"roc": *roc}
	switch {
	case *roc > 0:
		return domain.IndicatorResult{Value: roc, Signal: domain.SignalBuy,
			Reason: fmt.Sprintf("roc: %.2f%% positive", *roc), Metadata: meta}
	case *roc < 0:
		return domain.IndicatorResult{Value: roc, Signal: domain.SignalSell,
			Reason: fmt.Sprintf("roc: %.2f%% negative", *roc), Metadata: meta}
	default:
		return domain.IndicatorResult{Value: roc, Signal: domain.SignalHold,
			Reason: "roc: flat", Metadata: meta}
	}
}
