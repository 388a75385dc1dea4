package writer

import (
	"time"
)

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     1000,
		FlushInterval: 5 * time.Second,
	}
}

// priceRow represents a row for the crypto_prices table.
type priceRow struct {
	Source     string // RTDS topic the price arrived on
	Symbol     string
	ExchangeTs int64  // Microseconds
	ReceivedAt int64  // Microseconds
	Value      string // Decimal text, cast to NUMERIC by Postgres
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
	Skipped   int64 // Messages lost to receiver lag
	Invalid   int64 // Price payloads that failed to decode
}
