package memory

import (
	"context"
	"errors"
	"testing"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/storage"
)

func TestEquityCurveStore_InsertAndGet(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	points := []domain.EquityPoint{
		{TimestampMs: 2000, Equity: 100500},
		{TimestampMs: 1000, Equity: 100000},
		{TimestampMs: 3000, Equity: 101000},
	}

	if err := store.InsertBulk(ctx, "run1", storage.CurveStrategy, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1", storage.CurveStrategy)
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].TimestampMs > got[i].TimestampMs {
			t.Error("Results not ordered by timestamp")
		}
	}
	if got[0].Equity != 100000 {
		t.Errorf("First point equity mismatch: got %f, want 100000", got[0].Equity)
	}
}

func TestEquityCurveStore_CurvesAreIndependent(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	strategy := []domain.EquityPoint{{TimestampMs: 1000, Equity: 100000}}
	benchmark := []domain.EquityPoint{
		{TimestampMs: 1000, Equity: 100000},
		{TimestampMs: 2000, Equity: 99000},
	}

	if err := store.InsertBulk(ctx, "run1", storage.CurveStrategy, strategy); err != nil {
		t.Fatalf("InsertBulk strategy failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "run1", storage.CurveBuyAndHold, benchmark); err != nil {
		t.Fatalf("InsertBulk buy-and-hold failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1", storage.CurveBuyAndHold)
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 buy-and-hold points, got %d", len(got))
	}
}

func TestEquityCurveStore_DuplicateTimestamp(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	points := []domain.EquityPoint{{TimestampMs: 1000, Equity: 100000}}
	if err := store.InsertBulk(ctx, "run1", storage.CurveStrategy, points); err != nil {
		t.Fatalf("First InsertBulk failed: %v", err)
	}

	err := store.InsertBulk(ctx, "run1", storage.CurveStrategy, points)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Intra-batch duplicate also fails whole batch.
	batch := []domain.EquityPoint{
		{TimestampMs: 2000, Equity: 100100},
		{TimestampMs: 2000, Equity: 100200},
	}
	err = store.InsertBulk(ctx, "run1", storage.CurveStrategy, batch)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch dup, got %v", err)
	}

	all, _ := store.GetByRunID(ctx, "run1", storage.CurveStrategy)
	if len(all) != 1 {
		t.Errorf("Expected 1 point (no partial insert), got %d", len(all))
	}
}

func TestEquityCurveStore_EmptyAndInvalid(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "run1", storage.CurveStrategy, nil); err != nil {
		t.Errorf("Empty batch should be a no-op, got %v", err)
	}

	points := []domain.EquityPoint{{TimestampMs: 1000, Equity: 100000}}
	if err := store.InsertBulk(ctx, "", storage.CurveStrategy, points); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty run ID, got %v", err)
	}
	if err := store.InsertBulk(ctx, "run1", "", points); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty curve, got %v", err)
	}

	got, err := store.GetByRunID(ctx, "missing", storage.CurveStrategy)
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty result for unknown run, got %d points", len(got))
	}
}
