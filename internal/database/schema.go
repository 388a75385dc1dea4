package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// cryptoPricesDDL creates the price table. Timestamps are Unix microseconds.
const cryptoPricesDDL = `
CREATE TABLE IF NOT EXISTS crypto_prices (
	source      TEXT           NOT NULL,
	symbol      TEXT           NOT NULL,
	exchange_ts BIGINT         NOT NULL,
	received_at BIGINT         NOT NULL,
	value       NUMERIC(38,18) NOT NULL,
	PRIMARY KEY (source, symbol, exchange_ts)
)`

// hypertableDDL converts crypto_prices to a hypertable when TimescaleDB is
// installed. One chunk per day.
const hypertableDDL = `
DO $$
BEGIN
	IF EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb') THEN
		PERFORM create_hypertable('crypto_prices', 'exchange_ts',
			chunk_time_interval => 86400000000, if_not_exists => TRUE);
	END IF;
END
$$`

// EnsureSchema creates the tables used by the recorder if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, cryptoPricesDDL); err != nil {
		return fmt.Errorf("create crypto_prices: %w", err)
	}
	if _, err := pool.Exec(ctx, hypertableDDL); err != nil {
		return fmt.Errorf("create hypertable: %w", err)
	}
	return nil
}
