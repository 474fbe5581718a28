package storage

import (
	"context"

	"equity-signal-lab/internal/domain"
)

// SignalStore provides access to evaluation signal storage.
type SignalStore interface {
	// Insert adds a new signal. Returns ErrDuplicateKey if (symbol, timestamp_ms) exists.
	Insert(ctx context.Context, r *domain.SignalRecord) error

	// GetBySymbol retrieves all signals for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.SignalRecord, error)

	// GetByTimeRange retrieves signals for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.SignalRecord, error)

	// Latest retrieves the most recent signal for a symbol. Returns ErrNotFound if none.
	Latest(ctx context.Context, symbol string) (*domain.SignalRecord, error)
}

// BacktestRunStore provides access to backtest run headers.
type BacktestRunStore interface {
	// Insert adds a new run summary. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, s *domain.BacktestSummary) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.BacktestSummary, error)

	// GetBySymbol retrieves all runs for a symbol, ordered by start time ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.BacktestSummary, error)

	// GetAll retrieves all runs, ordered by start time ASC.
	GetAll(ctx context.Context) ([]*domain.BacktestSummary, error)
}

// TradeStore provides access to executed backtest trades.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if (run_id, trade_id) exists.
	Insert(ctx context.Context, runID string, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, runID string, trades []*domain.Trade) error

	// GetByRunID retrieves all trades of a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.Trade, error)
}

// Equity curve labels.
const (
	CurveStrategy   = "strategy"
	CurveBuyAndHold = "buy_and_hold"
)

// EquityCurveStore provides access to equity curve samples.
type EquityCurveStore interface {
	// InsertBulk adds all points of one labeled curve. Fails entire batch
	// on duplicate (run_id, curve, timestamp_ms).
	InsertBulk(ctx context.Context, runID, curve string, points []domain.EquityPoint) error

	// GetByRunID retrieves one labeled curve of a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID, curve string) ([]domain.EquityPoint, error)
}
