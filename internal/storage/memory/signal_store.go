package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SignalRecord // keyed by symbol|timestamp
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{
		data: make(map[string]*domain.SignalRecord),
	}
}

func signalKey(symbol string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", symbol, timestampMs)
}

// Insert adds a new signal. Returns ErrDuplicateKey if exists.
func (s *SignalStore) Insert(_ context.Context, r *domain.SignalRecord) error {
	if r == nil || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	key := signalKey(r.Symbol, r.TimestampMs)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = copySignal(r)
	return nil
}

// GetBySymbol retrieves all signals for a symbol, ordered by timestamp ASC.
func (s *SignalStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.SignalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SignalRecord
	for _, r := range s.data {
		if r.Symbol == symbol {
			result = append(result, copySignal(r))
		}
	}

	sortSignals(result)
	return result, nil
}

// GetByTimeRange retrieves signals for a symbol within [start, end] (inclusive).
func (s *SignalStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.SignalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SignalRecord
	for _, r := range s.data {
		if r.Symbol == symbol && r.TimestampMs >= start && r.TimestampMs <= end {
			result = append(result, copySignal(r))
		}
	}

	sortSignals(result)
	return result, nil
}

// Latest retrieves the most recent signal for a symbol.
func (s *SignalStore) Latest(_ context.Context, symbol string) (*domain.SignalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.SignalRecord
	for _, r := range s.data {
		if r.Symbol != symbol {
			continue
		}
		if latest == nil || r.TimestampMs > latest.TimestampMs {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copySignal(latest), nil
}

func sortSignals(records []*domain.SignalRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].TimestampMs < records[j].TimestampMs
	})
}

// copySignal deep-copies a record so callers never share map state.
func copySignal(r *domain.SignalRecord) *domain.SignalRecord {
	c := *r
	if r.Indicators != nil {
		c.Indicators = make(map[string]domain.Signal, len(r.Indicators))
		for name, sig := range r.Indicators {
			c.Indicators[name] = sig
		}
	}
	return &c
}

var _ storage.SignalStore = (*SignalStore)(nil)
