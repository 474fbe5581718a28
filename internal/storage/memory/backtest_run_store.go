package memory

import (
	"context"
	"sort"
	"sync"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/storage"
)

// BacktestRunStore is an in-memory implementation of storage.BacktestRunStore.
type BacktestRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BacktestSummary // keyed by run_id
}

// NewBacktestRunStore creates a new in-memory run store.
func NewBacktestRunStore() *BacktestRunStore {
	return &BacktestRunStore{
		data: make(map[string]*domain.BacktestSummary),
	}
}

// Insert adds a new run summary. Returns ErrDuplicateKey if run_id exists.
func (s *BacktestRunStore) Insert(_ context.Context, summary *domain.BacktestSummary) error {
	if summary == nil || summary.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[summary.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	c := *summary
	s.data[summary.RunID] = &c
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *BacktestRunStore) GetByID(_ context.Context, runID string) (*domain.BacktestSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	c := *summary
	return &c, nil
}

// GetBySymbol retrieves all runs for a symbol, ordered by start time ASC.
func (s *BacktestRunStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.BacktestSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BacktestSummary
	for _, summary := range s.data {
		if summary.Symbol == symbol {
			c := *summary
			result = append(result, &c)
		}
	}

	sortRuns(result)
	return result, nil
}

// GetAll retrieves all runs, ordered by start time ASC.
func (s *BacktestRunStore) GetAll(_ context.Context) ([]*domain.BacktestSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.BacktestSummary, 0, len(s.data))
	for _, summary := range s.data {
		c := *summary
		result = append(result, &c)
	}

	sortRuns(result)
	return result, nil
}

func sortRuns(runs []*domain.BacktestSummary) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartMs != runs[j].StartMs {
			return runs[i].StartMs < runs[j].StartMs
		}
		return runs[i].RunID < runs[j].RunID
	})
}

var _ storage.BacktestRunStore = (*BacktestRunStore)(nil)
