package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-signal-lab/internal/domain"
	"equity-signal-lab/internal/storage"
	pgstore "equity-signal-lab/internal/storage/postgres"
)

func TestSignalStore_InsertAndGetBySymbol(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewSignalStore(pool)
	ctx := context.Background()

	record := &domain.SignalRecord{
		Symbol:      "AAPL",
		TimestampMs: 1700000000000,
		Signal:      domain.SignalBuy,
		Strength:    100,
		Reason:      "all 4 indicators BUY",
		Indicators: map[string]domain.Signal{
			"price_pattern":    domain.SignalBuy,
			"momentum":         domain.SignalBuy,
			"market_direction": domain.SignalBuy,
			"volume":           domain.SignalBuy,
		},
	}

	err := store.Insert(ctx, record)
	require.NoError(t, err)

	got, err := store.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, record.Symbol, got[0].Symbol)
	assert.Equal(t, record.TimestampMs, got[0].TimestampMs)
	assert.Equal(t, record.Signal, got[0].Signal)
	assert.Equal(t, record.Strength, got[0].Strength)
	assert.Equal(t, record.Reason, got[0].Reason)
	assert.Equal(t, record.Indicators, got[0].Indicators)
}

func TestSignalStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewSignalStore(pool)
	ctx := context.Background()

	record := &domain.SignalRecord{
		Symbol:      "AAPL",
		TimestampMs: 1700000000000,
		Signal:      domain.SignalHold,
	}

	err := store.Insert(ctx, record)
	require.NoError(t, err)

	err = store.Insert(ctx, record)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSignalStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewSignalStore(pool)
	ctx := context.Background()

	for _, ts := range []int64{1000, 2000, 3000, 4000} {
		err := store.Insert(ctx, &domain.SignalRecord{
			Symbol:      "AAPL",
			TimestampMs: ts,
			Signal:      domain.SignalHold,
		})
		require.NoError(t, err)
	}
	// Different symbol, same range
	err := store.Insert(ctx, &domain.SignalRecord{
		Symbol:      "MSFT",
		TimestampMs: 2000,
		Signal:      domain.SignalHold,
	})
	require.NoError(t, err)

	got, err := store.GetByTimeRange(ctx, "AAPL", 2000, 3000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2000), got[0].TimestampMs)
	assert.Equal(t, int64(3000), got[1].TimestampMs)
}

func TestSignalStore_Latest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewSignalStore(pool)
	ctx := context.Background()

	_, err := store.Latest(ctx, "AAPL")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	for _, ts := range []int64{1000, 3000, 2000} {
		err := store.Insert(ctx, &domain.SignalRecord{
			Symbol:      "AAPL",
			TimestampMs: ts,
			Signal:      domain.SignalSell,
		})
		require.NoError(t, err)
	}

	latest, err := store.Latest(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), latest.TimestampMs)
	assert.Equal(t, domain.SignalSell, latest.Signal)
}
