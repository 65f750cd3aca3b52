package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/truffle-roll/truffle/pkg/config"
)

// ErrNotConfigured is returned when DATABASE_URL is empty
var ErrNotConfigured = errors.New("database not configured (set DATABASE_URL)")

const pingTimeout = 5 * time.Second

// DB wraps the pgxpool.Pool used by the quote repository
// ⭐ SSOT: the pool is created in this package only
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a connection pool and pings it
func New(ctx context.Context, cfg *config.Config) (*DB, error) {
	if !cfg.Database.Enabled() {
		return nil, ErrNotConfigured
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the pool, a second call is a no-op
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.Pool = nil
	}
}

// Ping checks if the database is accessible
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// PoolStats represents connection pool statistics
type PoolStats struct {
	AcquireCount    int64         `json:"acquire_count"`
	AcquireDuration time.Duration `json:"acquire_duration"`
	AcquiredConns   int32         `json:"acquired_conns"`
	IdleConns       int32         `json:"idle_conns"`
	MaxConns        int32         `json:"max_conns"`
	TotalConns      int32         `json:"total_conns"`
}

// Stats returns the current pool statistics
func (db *DB) Stats() PoolStats {
	stats := db.Pool.Stat()
	return PoolStats{
		AcquireCount:    stats.AcquireCount(),
		AcquireDuration: stats.AcquireDuration(),
		AcquiredConns:   stats.AcquiredConns(),
		IdleConns:       stats.IdleConns(),
		MaxConns:        stats.MaxConns(),
		TotalConns:      stats.TotalConns(),
	}
}

// Fields flattens the statistics for structured logging
func (s PoolStats) Fields() map[string]interface{} {
	return map[string]interface{}{
		"acquire_count":    s.AcquireCount,
		"acquire_duration": s.AcquireDuration.String(),
		"total_conns":      s.TotalConns,
		"max_conns":        s.MaxConns,
	}
}
