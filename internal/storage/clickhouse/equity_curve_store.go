package clickhouse

import (
	"context"
	"fmt"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/storage"
)

// EquityCurveStore implements storage.EquityCurveStore using ClickHouse.
type EquityCurveStore struct {
	conn *Conn
}

// NewEquityCurveStore creates a new EquityCurveStore.
func NewEquityCurveStore(conn *Conn) *EquityCurveStore {
	return &EquityCurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk adds all points of one labeled curve. Fails entire batch on
// duplicate (run_id, curve, timestamp_ms).
func (s *EquityCurveStore) InsertBulk(ctx context.Context, runID, curve string, points []domain.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}
	if runID == "" || curve == "" {
		return storage.ErrInvalidInput
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(points))
	for _, p := range points {
		if _, exists := seen[p.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.TimestampMs] = struct{}{}
	}

	// MergeTree does not enforce uniqueness, so check against existing rows
	exists, err := s.exists(ctx, runID, curve)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_curve (run_id, curve, timestamp_ms, equity)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(runID, curve, p.TimestampMs, p.Equity); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves one labeled curve of a run, ordered by timestamp ASC.
func (s *EquityCurveStore) GetByRunID(ctx context.Context, runID, curve string) ([]domain.EquityPoint, error) {
	query := `
		SELECT timestamp_ms, equity
		FROM equity_curve
		WHERE run_id = ? AND curve = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, curve)
	if err != nil {
		return nil, fmt.Errorf("query equity curve: %w", err)
	}
	defer rows.Close()

	var points []domain.EquityPoint
	for rows.Next() {
		var p domain.EquityPoint
		if err := rows.Scan(&p.TimestampMs, &p.Equity); err != nil {
			return nil, fmt.Errorf("scan equity curve row: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equity curve rows: %w", err)
	}

	return points, nil
}

// exists checks whether any point of the given curve is already stored.
// Curves are written whole per run, so a single count suffices.
func (s *EquityCurveStore) exists(ctx context.Context, runID, curve string) (bool, error) {
	query := `
		SELECT count(*) FROM equity_curve
		WHERE run_id = ? AND curve = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID, curve).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
