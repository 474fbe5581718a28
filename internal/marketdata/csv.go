package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"equity-signal-lab/internal/domain"
)

// ReadCSVSeries parses an OHLCV series from CSV with the header
// timestamp_ms,open,high,low,close,volume. Empty cells become missing
// values and the row is dropped during densification.
func ReadCSVSeries(r io.Reader) (*domain.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"timestamp_ms", "open", "high", "low", "close", "volume"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv missing column %q", required)
		}
	}

	var (
		timestamps []int64
		opens      []*float64
		highs      []*float64
		lows       []*float64
		closes     []*float64
		volumes    []*float64
	)

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		ts, err := strconv.ParseInt(row[col["timestamp_ms"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse timestamp_ms: %w", line, err)
		}
		timestamps = append(timestamps, ts)

		opens = append(opens, parseCell(row[col["open"]]))
		highs = append(highs, parseCell(row[col["high"]]))
		lows = append(lows, parseCell(row[col["low"]]))
		closes = append(closes, parseCell(row[col["close"]]))
		volumes = append(volumes, parseCell(row[col["volume"]]))
	}

	return domain.NewPriceSeries(opens, highs, lows, closes, volumes, timestamps)
}

// LoadCSVFile reads an OHLCV series from a CSV file on disk.
func LoadCSVFile(path string) (*domain.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series file: %w", err)
	}
	defer f.Close()

	s, err := ReadCSVSeries(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

func parseCell(cell string) *float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil
	}
	return &v
}
