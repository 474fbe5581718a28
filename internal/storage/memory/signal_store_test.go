package memory

import (
	"context"
	"errors"
	"testing"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/storage"
)

func TestSignalStore_InsertAndGet(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	record := &domain.SignalRecord{
		Symbol:      "AAPL",
		TimestampMs: 1000,
		Signal:      domain.SignalBuy,
		Strength:    100,
		Reason:      "all 4 indicators BUY",
		Indicators: map[string]domain.Signal{
			"price_pattern": domain.SignalBuy,
			"momentum":      domain.SignalBuy,
		},
	}

	if err := store.Insert(ctx, record); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 signal, got %d", len(got))
	}
	if got[0].Strength != 100 {
		t.Errorf("Strength mismatch: got %f, want 100", got[0].Strength)
	}
	if got[0].Indicators["momentum"] != domain.SignalBuy {
		t.Errorf("Indicator mismatch: got %s", got[0].Indicators["momentum"])
	}
}

func TestSignalStore_DuplicateKey(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	record := &domain.SignalRecord{Symbol: "AAPL", TimestampMs: 1000, Signal: domain.SignalHold}
	if err := store.Insert(ctx, record); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, record)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestSignalStore_GetByTimeRange(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	for _, ts := range []int64{3000, 1000, 2000, 4000} {
		r := &domain.SignalRecord{Symbol: "AAPL", TimestampMs: ts, Signal: domain.SignalHold}
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByTimeRange(ctx, "AAPL", 1000, 3000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 signals in range, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].TimestampMs > got[i].TimestampMs {
			t.Error("Results not ordered by timestamp")
		}
	}
}

func TestSignalStore_Latest(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	_, err := store.Latest(ctx, "AAPL")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	for _, ts := range []int64{1000, 3000, 2000} {
		r := &domain.SignalRecord{Symbol: "AAPL", TimestampMs: ts, Signal: domain.SignalHold}
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	latest, err := store.Latest(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.TimestampMs != 3000 {
		t.Errorf("Expected latest at 3000, got %d", latest.TimestampMs)
	}
}

func TestSignalStore_CopyIsolation(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	record := &domain.SignalRecord{
		Symbol:      "AAPL",
		TimestampMs: 1000,
		Signal:      domain.SignalBuy,
		Indicators:  map[string]domain.Signal{"momentum": domain.SignalBuy},
	}
	if err := store.Insert(ctx, record); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Mutating the caller's map must not affect stored state.
	record.Indicators["momentum"] = domain.SignalSell

	got, err := store.Latest(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if got.Indicators["momentum"] != domain.SignalBuy {
		t.Error("Stored record shares map state with caller")
	}
}

func TestSignalStore_InvalidInput(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.SignalRecord{Symbol: ""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty symbol, got %v", err)
	}
}
