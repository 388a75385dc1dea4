package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/rtds-recorder/internal/config"
)

// Pools holds database connections for a recorder.
type Pools struct {
	// Timescale holds crypto prices (time-series data).
	Timescale *pgxpool.Pool
}

// NewPools creates the connection pools.
func NewPools(ctx context.Context, cfg config.DatabaseConfig) (*Pools, error) {
	ts, err := Connect(ctx, cfg.Timescale)
	if err != nil {
		return nil, fmt.Errorf("connect timescale: %w", err)
	}

	return &Pools{Timescale: ts}, nil
}

// Connect creates a single connection pool.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Close closes the connection pools.
func (p *Pools) Close() {
	if p.Timescale != nil {
		p.Timescale.Close()
	}
}

// Ping verifies the connections are healthy.
func (p *Pools) Ping(ctx context.Context) error {
	if err := p.Timescale.Ping(ctx); err != nil {
		return fmt.Errorf("ping timescale: %w", err)
	}
	return nil
}
