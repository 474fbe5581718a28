package marketdata

import (
	"context"
	"errors"
	"strings"
	"testing"

	"equity-signal-lab/internal/domain"
)

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider()
	ctx := context.Background()

	_, err := p.GetDailySeries(ctx, "AAPL")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("Expected ErrSymbolNotFound, got %v", err)
	}

	s, err := domain.NewDensePriceSeries(
		[]float64{100, 101},
		[]float64{102, 103},
		[]float64{99, 100},
		[]float64{101, 102},
		[]float64{1000, 1100},
		[]int64{1000, 2000},
	)
	if err != nil {
		t.Fatalf("NewDensePriceSeries: %v", err)
	}
	p.SetSeries("AAPL", s)

	got, err := p.GetDailySeries(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetDailySeries: %v", err)
	}
	if got.Len() != 2 {
		t.Errorf("Expected 2 bars, got %d", got.Len())
	}

	quote, err := p.GetQuote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if quote != 102 {
		t.Errorf("Expected quote 102 (last close), got %f", quote)
	}
}

func TestReadCSVSeries(t *testing.T) {
	input := `timestamp_ms,open,high,low,close,volume
1000,100,102,99,101,5000
2000,101,103,100,102,6000
3000,,104,101,103,7000
4000,103,105,102,104,8000
`

	s, err := ReadCSVSeries(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSVSeries: %v", err)
	}

	// Row with the empty open is dropped during densification.
	if s.Len() != 3 {
		t.Fatalf("Expected 3 bars, got %d", s.Len())
	}
	if s.Timestamps[2] != 4000 {
		t.Errorf("Expected last timestamp 4000, got %d", s.Timestamps[2])
	}
	if s.Closes[0] != 101 || s.Closes[1] != 102 || s.Closes[2] != 104 {
		t.Errorf("Unexpected closes: %v", s.Closes)
	}
}

func TestReadCSVSeries_MissingColumn(t *testing.T) {
	input := "timestamp_ms,open,high,low,close\n1000,100,102,99,101\n"

	_, err := ReadCSVSeries(strings.NewReader(input))
	if err == nil {
		t.Fatal("Expected error for missing volume column")
	}
}

func TestBarAggregator_FoldsQuotesIntoBars(t *testing.T) {
	agg := NewBarAggregator(60_000)

	quotes := []Quote{
		{Symbol: "AAPL", Price: 100, Size: 10, TimestampMs: 5_000},
		{Symbol: "AAPL", Price: 103, Size: 5, TimestampMs: 20_000},
		{Symbol: "AAPL", Price: 99, Size: 8, TimestampMs: 50_000},
	}
	for _, q := range quotes {
		if bar := agg.Add(q); bar != nil {
			t.Fatalf("No bar should complete within the first interval, got %+v", bar)
		}
	}

	// First quote of the next interval closes the bar.
	bar := agg.Add(Quote{Symbol: "AAPL", Price: 101, Size: 3, TimestampMs: 65_000})
	if bar == nil {
		t.Fatal("Expected completed bar")
	}
	if bar.TimestampMs != 0 {
		t.Errorf("Expected bar open time 0, got %d", bar.TimestampMs)
	}
	if bar.Open != 100 || bar.High != 103 || bar.Low != 99 || bar.Close != 99 {
		t.Errorf("Unexpected OHLC: %+v", bar)
	}
	if bar.Volume != 23 {
		t.Errorf("Expected volume 23, got %f", bar.Volume)
	}
}

func TestBarAggregator_SymbolsAreIndependent(t *testing.T) {
	agg := NewBarAggregator(60_000)

	agg.Add(Quote{Symbol: "AAPL", Price: 100, Size: 1, TimestampMs: 1_000})
	agg.Add(Quote{Symbol: "MSFT", Price: 300, Size: 1, TimestampMs: 2_000})

	bar := agg.Add(Quote{Symbol: "AAPL", Price: 101, Size: 1, TimestampMs: 61_000})
	if bar == nil || bar.Symbol != "AAPL" {
		t.Fatalf("Expected AAPL bar, got %+v", bar)
	}

	// MSFT bar still in progress.
	msft := agg.Flush("MSFT")
	if msft == nil || msft.Close != 300 {
		t.Fatalf("Expected in-progress MSFT bar, got %+v", msft)
	}
}

func TestBarAggregator_DropsLateQuotes(t *testing.T) {
	agg := NewBarAggregator(60_000)

	agg.Add(Quote{Symbol: "AAPL", Price: 100, Size: 1, TimestampMs: 61_000})

	// Quote from a closed interval must not disturb the current bar.
	if bar := agg.Add(Quote{Symbol: "AAPL", Price: 50, Size: 1, TimestampMs: 30_000}); bar != nil {
		t.Fatalf("Late quote must not complete a bar, got %+v", bar)
	}

	current := agg.Flush("AAPL")
	if current == nil || current.Low != 100 {
		t.Fatalf("Late quote leaked into current bar: %+v", current)
	}
}

func TestBar_AppendTo(t *testing.T) {
	s := &domain.PriceSeries{}
	bar := Bar{Symbol: "AAPL", TimestampMs: 60_000, Open: 100, High: 103, Low: 99, Close: 101, Volume: 23}
	bar.AppendTo(s)

	if s.Len() != 1 {
		t.Fatalf("Expected 1 bar, got %d", s.Len())
	}
	if s.Closes[0] != 101 || s.Timestamps[0] != 60_000 {
		t.Errorf("Unexpected appended bar: closes=%v timestamps=%v", s.Closes, s.Timestamps)
	}
}
