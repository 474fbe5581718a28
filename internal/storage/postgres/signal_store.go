package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Insert adds a new signal. Returns ErrDuplicateKey if (symbol, timestamp_ms) exists.
func (s *SignalStore) Insert(ctx context.Context, r *domain.SignalRecord) error {
	if r == nil || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	indicators, err := json.Marshal(r.Indicators)
	if err != nil {
		return fmt.Errorf("marshal signal indicators: %w", err)
	}

	query := `
		INSERT INTO signals (
			symbol, timestamp_ms, signal, strength, reason, indicators
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.Symbol, r.TimestampMs, string(r.Signal), r.Strength, r.Reason, indicators,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// GetBySymbol retrieves all signals for a symbol, ordered by timestamp ASC.
func (s *SignalStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.SignalRecord, error) {
	query := `
		SELECT symbol, timestamp_ms, signal, strength, reason, indicators
		FROM signals
		WHERE symbol = $1
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get signals by symbol: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetByTimeRange retrieves signals for a symbol within [start, end] (inclusive).
func (s *SignalStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.SignalRecord, error) {
	query := `
		SELECT symbol, timestamp_ms, signal, strength, reason, indicators
		FROM signals
		WHERE symbol = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("get signals by time range: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// Latest retrieves the most recent signal for a symbol.
func (s *SignalStore) Latest(ctx context.Context, symbol string) (*domain.SignalRecord, error) {
	query := `
		SELECT symbol, timestamp_ms, signal, strength, reason, indicators
		FROM signals
		WHERE symbol = $1
		ORDER BY timestamp_ms DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, symbol)
	r, err := scanSignal(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest signal: %w", err)
	}
	return r, nil
}

// scanSignal scans a single row into a SignalRecord.
func scanSignal(row pgx.Row) (*domain.SignalRecord, error) {
	var (
		r          domain.SignalRecord
		signal     string
		indicators []byte
	)

	err := row.Scan(&r.Symbol, &r.TimestampMs, &signal, &r.Strength, &r.Reason, &indicators)
	if err != nil {
		return nil, err
	}

	r.Signal = domain.Signal(signal)
	if len(indicators) > 0 {
		if err := json.Unmarshal(indicators, &r.Indicators); err != nil {
			return nil, fmt.Errorf("unmarshal signal indicators: %w", err)
		}
	}

	return &r, nil
}

// scanSignals scans multiple rows into a slice of SignalRecord.
func scanSignals(rows pgx.Rows) ([]*domain.SignalRecord, error) {
	var records []*domain.SignalRecord

	for rows.Next() {
		r, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal rows: %w", err)
	}

	return records, nil
}
