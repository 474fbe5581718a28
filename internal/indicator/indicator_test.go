package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{100, 102, 104, 106, 108}, 5)
	if got == nil {
		t.Fatal("expected value, got nil")
	}
	if !almostEqual(*got, 104) {
		t.Errorf("expected 104, got %v", *got)
	}
}

func TestSMA_InsufficientHistory(t *testing.T) {
	if got := SMA([]float64{100, 102}, 5); got != nil {
		t.Errorf("expected nil for short input, got %v", *got)
	}
}

func TestSMA_UsesTrailingWindow(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 10, 20, 30}, 3)
	if got == nil || !almostEqual(*got, 20) {
		t.Errorf("expected 20, got %v", got)
	}
}

func TestSMASeries_Padding(t *testing.T) {
	series := SMASeries([]float64{1, 2, 3, 4}, 3)
	if series[0] != nil || series[1] != nil {
		t.Error("expected nil padding before window fills")
	}
	if series[2] == nil || !almostEqual(*series[2], 2) {
		t.Errorf("expected 2 at index 2, got %v", series[2])
	}
	if series[3] == nil || !almostEqual(*series[3], 3) {
		t.Errorf("expected 3 at index 3, got %v", series[3])
	}
}

func TestEMA_SeedsFromSimpleAverage(t *testing.T) {
	prices := []float64{10, 20, 30}
	series := EMASeries(prices, 3)
	if series[2] == nil || !almostEqual(*series[2], 20) {
		t.Fatalf("seed should be SMA of first period values, got %v", series[2])
	}

	// One more price: k = 2/(3+1) = 0.5, ema = 40*0.5 + 20*0.5 = 30.
	series = EMASeries(append(prices, 40), 3)
	if series[3] == nil || !almostEqual(*series[3], 30) {
		t.Errorf("expected 30, got %v", series[3])
	}
}

func TestEMA_InsufficientHistory(t *testing.T) {
	if got := EMA([]float64{1, 2}, 5); got != nil {
		t.Errorf("expected nil, got %v", *got)
	}
}

func TestRSI_Bounds(t *testing.T) {
	cases := [][]float64{
		{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.0, 45.9, 46.2, 45.6, 46.3, 46.2},
		{10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0.9, 0.8, 0.7, 0.6, 0.5},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	}
	for i, prices := range cases {
		got := RSI(prices, 14)
		if got == nil {
			t.Fatalf("case %d: expected value", i)
		}
		if *got < 0 || *got > 100 {
			t.Errorf("case %d: RSI out of bounds: %v", i, *got)
		}
	}
}

func TestRSI_AllGainsIs100(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	got := RSI(prices, 14)
	if got == nil || !almostEqual(*got, 100) {
		t.Errorf("zero average loss must yield RSI 100, got %v", got)
	}
}

func TestRSI_InsufficientHistory(t *testing.T) {
	if got := RSI([]float64{1, 2, 3}, 14); got != nil {
		t.Errorf("expected nil, got %v", *got)
	}
}

func TestMACD_HistogramInvariant(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + 5*math.Sin(float64(i)/4)
	}

	v := MACD(prices, 12, 26, 9)
	if v == nil {
		t.Fatal("expected value")
	}
	if !almostEqual(v.Histogram, v.MACD-v.Signal) {
		t.Errorf("histogram %v != macd %v - signal %v", v.Histogram, v.MACD, v.Signal)
	}
}

func TestMACD_InsufficientHistory(t *testing.T) {
	prices := make([]float64, 34) // below slow+signal = 35
	for i := range prices {
		prices[i] = float64(i)
	}
	if got := MACD(prices, 12, 26, 9); got != nil {
		t.Errorf("expected nil below slowPeriod+signalPeriod points, got %+v", got)
	}
}

func TestInvalidPeriodPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("negative period must panic")
		}
	}()
	SMA([]float64{1, 2, 3}, -1)
}

func TestMisalignedInputsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("misaligned arrays must panic")
		}
	}()
	ATR([]float64{1, 2, 3}, []float64{1, 2}, []float64{1, 2, 3}, 2)
}
