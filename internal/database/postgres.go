// Package database owns the PostgreSQL pool and schema.
package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stwalsh4118/wealthmap/internal/config"
)

// ApplicationName tags server sessions in pg_stat_activity.
const ApplicationName = "wealthmap"

const (
	connectTimeout    = 5 * time.Second
	maxConnIdleTime   = 5 * time.Minute
	healthCheckPeriod = time.Minute
)

// Database wraps the pgx connection pool.
type Database struct {
	Pool *pgxpool.Pool
}

// NewPostgresPool opens a pool for cfg and verifies it with a ping.
func NewPostgresPool(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach %s:%s/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}

	return &Database{Pool: pool}, nil
}

// PoolConfig translates cfg into pgx pool settings without connecting.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MinConns = int32(cfg.PoolMin)
	poolConfig.MaxConns = int32(cfg.PoolMax)
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod

	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	if poolConfig.MaxConnLifetime <= 0 {
		poolConfig.MaxConnLifetime = time.Hour
	}
	// Spread reconnects so the whole pool does not expire at once.
	poolConfig.MaxConnLifetimeJitter = poolConfig.MaxConnLifetime / 10

	return poolConfig, nil
}

// DSN builds the connection URL for cfg. Credentials are escaped and an
// empty SSLMode means disable.
func DSN(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	q := url.Values{}
	q.Set("application_name", ApplicationName)
	q.Set("sslmode", sslMode)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Ping checks that a connection can be acquired.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close waits for acquired connections to be released, then closes the pool.
// Safe to call more than once.
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}
