package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/astro-otter/otter"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ValidatePostgresConfig performs basic sanity checks on Postgres-related settings.
func ValidatePostgresConfig(cfg otter.DatabaseConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("database.port must be a valid TCP port")
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("database.maxConnections must be greater than 0")
	}
	if cfg.TableName == "" {
		return fmt.Errorf("database.tableName is required")
	}
	return nil
}

// PostgresHealthCheck connects with dsn, pings, and when table is non-empty
// checks that the transient table exists. timeout may be 0 to use 5s.
func PostgresHealthCheck(ctx context.Context, dsn, table string, timeout time.Duration) error {
	if dsn == "" {
		return fmt.Errorf("empty dsn")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	if table == "" {
		return nil
	}
	return checkTransientTable(ctx, pool, table)
}

func checkTransientTable(ctx context.Context, pool transientPool, table string) error {
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
		return fmt.Errorf("check table %s: %w", table, err)
	}
	if !exists {
		return fmt.Errorf("table %s does not exist; run otter-tools init-db", table)
	}
	return nil
}
