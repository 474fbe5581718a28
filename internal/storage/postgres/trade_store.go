package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO trades (
		run_id, trade_id, timestamp_ms, action, symbol,
		price, quantity, reason, signal_data
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9
	)
`

// Insert adds a new trade. Returns ErrDuplicateKey if (run_id, trade_id) exists.
func (s *TradeStore) Insert(ctx context.Context, runID string, t *domain.Trade) error {
	if t == nil || runID == "" || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	signalData, err := marshalSignalData(t.SignalData)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, insertTradeQuery,
		runID, t.TradeID, t.TimestampMs, string(t.Action), t.Symbol,
		t.Price, t.Quantity, t.Reason, signalData,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, runID string, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	if runID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}

		signalData, err := marshalSignalData(t.SignalData)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, insertTradeQuery,
			runID, t.TradeID, t.TimestampMs, string(t.Action), t.Symbol,
			t.Price, t.Quantity, t.Reason, signalData,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all trades of a run, ordered by timestamp ASC.
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) ([]*domain.Trade, error) {
	query := `
		SELECT trade_id, timestamp_ms, action, symbol, price, quantity, reason, signal_data
		FROM trades
		WHERE run_id = $1
		ORDER BY timestamp_ms ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trades by run id: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		var (
			t          domain.Trade
			action     string
			signalData []byte
		)

		err := rows.Scan(&t.TradeID, &t.TimestampMs, &action, &t.Symbol, &t.Price, &t.Quantity, &t.Reason, &signalData)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.Action = domain.TradeAction(action)
		if len(signalData) > 0 {
			var snapshot domain.MultiIndicatorResult
			if err := json.Unmarshal(signalData, &snapshot); err != nil {
				return nil, fmt.Errorf("unmarshal trade signal data: %w", err)
			}
			t.SignalData = &snapshot
		}

		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}

// marshalSignalData serializes the entry evaluation snapshot as JSONB.
// Exit trades carry no snapshot and store NULL.
func marshalSignalData(r *domain.MultiIndicatorResult) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal trade signal data: %w", err)
	}
	return data, nil
}
