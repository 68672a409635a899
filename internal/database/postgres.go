package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stwalsh4118/rackplan/internal/config"
)

// Database wraps the pgx connection pool backing the lookup cache.
type Database struct {
	Pool *pgxpool.Pool
}

// schema is applied on startup.
const schema = `
CREATE TABLE IF NOT EXISTS site_lookups (
	id         UUID PRIMARY KEY,
	cache_key  TEXT NOT NULL UNIQUE,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS site_lookups_expires_at_idx ON site_lookups (expires_at);
`

// DSN builds a postgres URL with the credentials escaped.
func DSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// NewPostgresPool creates a pgx pool, checks it with a ping and applies the
// lookup schema.
func NewPostgresPool(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MinConns = int32(cfg.PoolMin)
	poolConfig.MaxConns = int32(cfg.PoolMax)
	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Second
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &Database{Pool: pool}
	if err := db.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the lookup table if it does not exist.
func (db *Database) EnsureSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply lookup schema: %w", err)
	}
	return nil
}

// Ping checks if the database connection is alive.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close closes the pool, waiting for acquired connections to be released.
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// PoolStats is a snapshot of the connection pool.
type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

// Stats returns a snapshot of the connection pool. A closed or unset pool
// reports zeros.
func (db *Database) Stats() PoolStats {
	if db.Pool == nil {
		return PoolStats{}
	}
	s := db.Pool.Stat()
	return PoolStats{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
	}
}
