package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*storedTrade // keyed by run_id|trade_id
}

type storedTrade struct {
	runID string
	trade domain.Trade
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*storedTrade),
	}
}

func tradeKey(runID, tradeID string) string {
	return fmt.Sprintf("%s|%s", runID, tradeID)
}

// Insert adds a new trade. Returns ErrDuplicateKey if exists.
func (s *TradeStore) Insert(_ context.Context, runID string, t *domain.Trade) error {
	if t == nil || runID == "" || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	key := tradeKey(runID, t.TradeID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = &storedTrade{runID: runID, trade: *t}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, runID string, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		key := tradeKey(runID, t.TradeID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, t := range trades {
		s.data[tradeKey(runID, t.TradeID)] = &storedTrade{runID: runID, trade: *t}
	}
	return nil
}

// GetByRunID retrieves all trades of a run, ordered by timestamp ASC.
func (s *TradeStore) GetByRunID(_ context.Context, runID string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, st := range s.data {
		if st.runID == runID {
			c := st.trade
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs != result[j].TimestampMs {
			return result[i].TimestampMs < result[j].TimestampMs
		}
		return result[i].TradeID < result[j].TradeID
	})

	return result, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
