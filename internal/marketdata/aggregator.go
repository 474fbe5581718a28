package marketdata

import "equity-signal-lab/internal/domain"

// Quote is one tick from the streaming feed.
type Quote struct {
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	Size        float64 `json:"size"`
	TimestampMs int64   `json:"timestamp_ms"`
}

// Bar is one completed OHLCV bar folded from quotes.
type Bar struct {
	Symbol      string
	TimestampMs int64 // bar open time, aligned to the interval
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
}

// BarAggregator folds quotes into fixed-interval bars. A bar is emitted
// when the first quote of the next interval arrives; quotes older than
// the current bar are dropped. Not safe for concurrent use.
type BarAggregator struct {
	intervalMs int64
	current    map[string]*Bar
}

// NewBarAggregator creates an aggregator with the given bar interval.
func NewBarAggregator(intervalMs int64) *BarAggregator {
	return &BarAggregator{
		intervalMs: intervalMs,
		current:    make(map[string]*Bar),
	}
}

// Add folds one quote. Returns the completed previous bar when the quote
// opens a new interval, nil otherwise.
func (a *BarAggregator) Add(q Quote) *Bar {
	bucket := q.TimestampMs - q.TimestampMs%a.intervalMs

	bar, ok := a.current[q.Symbol]
	if !ok {
		a.current[q.Symbol] = newBar(q, bucket)
		return nil
	}

	if bucket < bar.TimestampMs {
		// Late quote from a closed interval.
		return nil
	}

	if bucket == bar.TimestampMs {
		if q.Price > bar.High {
			bar.High = q.Price
		}
		if q.Price < bar.Low {
			bar.Low = q.Price
		}
		bar.Close = q.Price
		bar.Volume += q.Size
		return nil
	}

	completed := *bar
	a.current[q.Symbol] = newBar(q, bucket)
	return &completed
}

// Flush emits the in-progress bar for a symbol, if any.
func (a *BarAggregator) Flush(symbol string) *Bar {
	bar, ok := a.current[symbol]
	if !ok {
		return nil
	}
	delete(a.current, symbol)
	completed := *bar
	return &completed
}

func newBar(q Quote, bucket int64) *Bar {
	return &Bar{
		Symbol:      q.Symbol,
		TimestampMs: bucket,
		Open:        q.Price,
		High:        q.Price,
		Low:         q.Price,
		Close:       q.Price,
		Volume:      q.Size,
	}
}

// AppendTo appends the bar to a price series in place.
func (b *Bar) AppendTo(s *domain.PriceSeries) {
	s.Opens = append(s.Opens, b.Open)
	s.Highs = append(s.Highs, b.High)
	s.Lows = append(s.Lows, b.Low)
	s.Closes = append(s.Closes, b.Close)
	s.Volumes = append(s.Volumes, b.Volume)
	s.Timestamps = append(s.Timestamps, b.TimestampMs)
}
