// Package writer implements batch writers that persist stream data.
//
// PriceWriter consumes crypto price messages from an RTDS receiver and inserts them
// into the crypto_prices table (TimescaleDB). Writes are append-only: duplicates of
// (source, symbol, exchange_ts) are dropped by ON CONFLICT DO NOTHING and counted as
// conflicts. Prices are stored as NUMERIC so the wire decimal is kept exactly.
package writer
