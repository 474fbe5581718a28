package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/storage"
)

// EquityCurveStore is an in-memory implementation of storage.EquityCurveStore.
type EquityCurveStore struct {
	mu   sync.RWMutex
	data map[string][]domain.EquityPoint // keyed by run_id|curve
	seen map[string]struct{}             // keyed by run_id|curve|timestamp
}

// NewEquityCurveStore creates a new in-memory equity curve store.
func NewEquityCurveStore() *EquityCurveStore {
	return &EquityCurveStore{
		data: make(map[string][]domain.EquityPoint),
		seen: make(map[string]struct{}),
	}
}

func curveKey(runID, curve string) string {
	return fmt.Sprintf("%s|%s", runID, curve)
}

func pointKey(runID, curve string, timestampMs int64) string {
	return fmt.Sprintf("%s|%s|%d", runID, curve, timestampMs)
}

// InsertBulk adds all points of one labeled curve. Fails entire batch on
// any duplicate timestamp.
func (s *EquityCurveStore) InsertBulk(_ context.Context, runID, curve string, points []domain.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}
	if runID == "" || curve == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))
	for _, p := range points {
		key := pointKey(runID, curve, p.TimestampMs)
		if _, exists := s.seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	ck := curveKey(runID, curve)
	for _, p := range points {
		s.seen[pointKey(runID, curve, p.TimestampMs)] = struct{}{}
		s.data[ck] = append(s.data[ck], p)
	}
	return nil
}

// GetByRunID retrieves one labeled curve of a run, ordered by timestamp ASC.
func (s *EquityCurveStore) GetByRunID(_ context.Context, runID, curve string) ([]domain.EquityPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.data[curveKey(runID, curve)]
	result := make([]domain.EquityPoint, len(points))
	copy(result, points)

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)
