package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(run_id|symbol|action|timestamp_ms|sequence)
// Returns hex-encoded hash (64 characters). The sequence is the trade's
// ordinal within the run, so two fills on the same bar stay distinct, and
// re-running a backtest reproduces its trade list byte for byte.
func ComputeTradeID(
	runID string,
	symbol string,
	action string,
	timestampMs int64,
	sequence int,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		runID,
		symbol,
		action,
		timestampMs,
		sequence,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeRunID computes a deterministic run identifier.
// Formula: SHA256(symbol|start_ms|end_ms|initial_capital)
func ComputeRunID(symbol string, startMs, endMs int64, initialCapital float64) string {
	data := fmt.Sprintf("%s|%d|%d|%.8f", symbol, startMs, endMs, initialCapital)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
