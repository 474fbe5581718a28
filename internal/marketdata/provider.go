// Package marketdata supplies OHLCV history and live quotes to the
// evaluation and backtest engines. Providers return nil-padded arrays as
// received; densification happens in domain.NewPriceSeries.
package marketdata

import (
	"context"
	"errors"
	"sync"

	"equity-signal-lab/internal/domain"
)

// ErrSymbolNotFound indicates the provider has no data for a symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// Provider supplies price history and current quotes.
type Provider interface {
	// GetDailySeries returns the full daily OHLCV history for a symbol.
	GetDailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error)

	// GetQuote returns the latest traded price for a symbol.
	GetQuote(ctx context.Context, symbol string) (float64, error)
}

// StaticProvider serves preloaded series. Used by tests and by the CLI
// when reading from files instead of a live feed.
type StaticProvider struct {
	mu     sync.RWMutex
	series map[string]*domain.PriceSeries
}

// NewStaticProvider creates an empty StaticProvider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{series: make(map[string]*domain.PriceSeries)}
}

// SetSeries registers or replaces the series for a symbol.
func (p *StaticProvider) SetSeries(symbol string, s *domain.PriceSeries) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.series[symbol] = s
}

// GetDailySeries returns the registered series for a symbol.
func (p *StaticProvider) GetDailySeries(_ context.Context, symbol string) (*domain.PriceSeries, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.series[symbol]
	if !ok {
		return nil, ErrSymbolNotFound
	}
	return s, nil
}

// GetQuote returns the last close of the registered series.
func (p *StaticProvider) GetQuote(_ context.Context, symbol string) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.series[symbol]
	if !ok || s.Len() == 0 {
		return 0, ErrSymbolNotFound
	}
	return s.Closes[s.Len()-1], nil
}

var _ Provider = (*StaticProvider)(nil)
