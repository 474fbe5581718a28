package domain

import (
	"encoding/json"
	"fmt"
)

// TradeAction represents trade direction. Quantity is always non-negative;
// the action encodes direction.
type TradeAction string

// Trade action constants.
const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// TradeProposal is a trade submitted for risk assessment.
type TradeProposal struct {
	Symbol   string      `json:"symbol"`
	Action   TradeAction `json:"action"`
	Quantity float64     `json:"quantity"`
	Price    float64     `json:"price"`
	Reason   string      `json:"reason"`
}

// SignedQuantity returns quantity with direction applied.
func (p *TradeProposal) SignedQuantity() float64 {
	if p.Action == ActionSell {
		return -p.Quantity
	}
	return p.Quantity
}

// PositionEntry is one holding in a portfolio. Legacy snapshots encode a
// position as a bare number (quantity only, no price); both forms decode.
type PositionEntry struct {
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// UnmarshalJSON accepts either {"quantity":..,"price":..} or a bare number.
func (e *PositionEntry) UnmarshalJSON(data []byte) error {
	var qty float64
	if err := json.Unmarshal(data, &qty); err == nil {
		e.Quantity = qty
		e.Price = 0
		return nil
	}

	type alias PositionEntry
	var full alias
	if err := json.Unmarshal(data, &full); err != nil {
		return fmt.Errorf("decode position entry: %w", err)
	}
	*e = PositionEntry(full)
	return nil
}

// Value returns the position's market value. Unpriced legacy entries
// contribute zero.
func (e PositionEntry) Value() float64 {
	return e.Quantity * e.Price
}

// PortfolioState is a snapshot of cash and holdings used for risk checks.
type PortfolioState struct {
	Cash          float64                  `json:"cash"`
	Positions     map[string]PositionEntry `json:"positions"`
	HighWaterMark *float64                 `json:"highWaterMark,omitempty"`
}

// Position returns the entry for symbol, zero-valued when absent.
func (s *PortfolioState) Position(symbol string) PositionEntry {
	if s == nil || s.Positions == nil {
		return PositionEntry{}
	}
	return s.Positions[symbol]
}

// TotalValue returns cash plus the market value of all priced positions.
func (s *PortfolioState) TotalValue() float64 {
	if s == nil {
		return 0
	}
	total := s.Cash
	for _, p := range s.Positions {
		total += p.Value()
	}
	return total
}

// RiskAssessment is the structured outcome of a risk evaluation. A rejection
// is an expected business outcome, not a fault: Metrics holds everything
// computed up to the point of rejection.
type RiskAssessment struct {
	Approved bool               `json:"approved"`
	Reason   string             `json:"reason,omitempty"`
	Metrics  map[string]float64 `json:"metrics"`
}
