package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/storage"
)

// BacktestRunStore implements storage.BacktestRunStore using PostgreSQL.
type BacktestRunStore struct {
	pool *Pool
}

// NewBacktestRunStore creates a new BacktestRunStore.
func NewBacktestRunStore(pool *Pool) *BacktestRunStore {
	return &BacktestRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestRunStore = (*BacktestRunStore)(nil)

// Insert adds a new run summary. Returns ErrDuplicateKey if run_id exists.
func (s *BacktestRunStore) Insert(ctx context.Context, summary *domain.BacktestSummary) error {
	if summary == nil || summary.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO backtest_runs (
			run_id, symbol, start_ms, end_ms,
			initial_capital, final_equity, total_return_pct,
			sharpe_ratio, max_drawdown_pct, trade_count
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10
		)
	`

	_, err := s.pool.Exec(ctx, query,
		summary.RunID, summary.Symbol, summary.StartMs, summary.EndMs,
		summary.InitialCapital, summary.FinalEquity, summary.TotalReturnPct,
		summary.SharpeRatio, summary.MaxDrawdownPct, summary.TradeCount,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *BacktestRunStore) GetByID(ctx context.Context, runID string) (*domain.BacktestSummary, error) {
	query := `
		SELECT
			run_id, symbol, start_ms, end_ms,
			initial_capital, final_equity, total_return_pct,
			sharpe_ratio, max_drawdown_pct, trade_count
		FROM backtest_runs
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	summary, err := scanBacktestRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest run by id: %w", err)
	}
	return summary, nil
}

// GetBySymbol retrieves all runs for a symbol, ordered by start time ASC.
func (s *BacktestRunStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.BacktestSummary, error) {
	query := `
		SELECT
			run_id, symbol, start_ms, end_ms,
			initial_capital, final_equity, total_return_pct,
			sharpe_ratio, max_drawdown_pct, trade_count
		FROM backtest_runs
		WHERE symbol = $1
		ORDER BY start_ms ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get backtest runs by symbol: %w", err)
	}
	defer rows.Close()

	return scanBacktestRuns(rows)
}

// GetAll retrieves all runs, ordered by start time ASC.
func (s *BacktestRunStore) GetAll(ctx context.Context) ([]*domain.BacktestSummary, error) {
	query := `
		SELECT
			run_id, symbol, start_ms, end_ms,
			initial_capital, final_equity, total_return_pct,
			sharpe_ratio, max_drawdown_pct, trade_count
		FROM backtest_runs
		ORDER BY start_ms ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all backtest runs: %w", err)
	}
	defer rows.Close()

	return scanBacktestRuns(rows)
}

// scanBacktestRun scans a single row into a BacktestSummary.
func scanBacktestRun(row pgx.Row) (*domain.BacktestSummary, error) {
	var s domain.BacktestSummary

	err := row.Scan(
		&s.RunID, &s.Symbol, &s.StartMs, &s.EndMs,
		&s.InitialCapital, &s.FinalEquity, &s.TotalReturnPct,
		&s.SharpeRatio, &s.MaxDrawdownPct, &s.TradeCount,
	)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// scanBacktestRuns scans multiple rows into a slice of BacktestSummary.
func scanBacktestRuns(rows pgx.Rows) ([]*domain.BacktestSummary, error) {
	var runs []*domain.BacktestSummary

	for rows.Next() {
		s, err := scanBacktestRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backtest run row: %w", err)
		}
		runs = append(runs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest run rows: %w", err)
	}

	return runs, nil
}
