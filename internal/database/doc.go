// Package database provides connection pool management for TimescaleDB.
//
// The recorder stores crypto price updates in a single hypertable,
// crypto_prices, keyed by (source, symbol, exchange_ts).
package database
