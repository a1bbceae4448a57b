package factory

import (
	"context"
	"fmt"
	"slices"

	"github.com/astro-otter/otter"
	"github.com/astro-otter/otter/internal"
	"github.com/astro-otter/otter/internal/export"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type queryPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var tableCollector = func(pool queryPool) ([]string, error) {
	return collectTablesFromPool(pool)
}

func collectTablesFromPool(pool queryPool) ([]string, error) {
	rows, err := pool.Query(context.Background(), `SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE';`)
	if err != nil {
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tables, nil
}

// LoadConfig reads configuration from path (optional) and OTTER_* environment
// variables on top of otter.DefaultConfig.
func LoadConfig(path string) (*otter.Config, error) {
	return internal.LoadConfig(path)
}

// NewPool opens a pgx pool for config.Database. With useIAM set the password is
// replaced by a generated auth token.
func NewPool(ctx context.Context, config *otter.Config) (*pgxpool.Pool, error) {
	if err := internal.ValidatePostgresConfig(config.Database); err != nil {
		return nil, err
	}

	password := internal.ResolveDatabasePassword(ctx, config.Database)
	poolConfig, err := pgxpool.ParseConfig(config.Database.DSNWithPassword(password))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(config.Database.MaxConnections)
	if config.Database.Timeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = config.Database.Timeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

// NewRepositoryWithConfig returns a TransientRepository over pool after checking
// that the configured transient table exists.
//
// Usage:
//
//	config, _ := factory.LoadConfig("otter.yaml")
//	pool, _ := factory.NewPool(ctx, config)
//	repo, err := factory.NewRepositoryWithConfig(config, pool)
func NewRepositoryWithConfig(config *otter.Config, pool *pgxpool.Pool) (otter.TransientRepository, error) {
	tables, err := tableCollector(pool)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(tables, config.Database.TableName) {
		return nil, fmt.Errorf("required table %q is missing in the database; run otter-tools init-db", config.Database.TableName)
	}
	return internal.NewPostgresTransientRepository(pool, config.Database.TableName), nil
}

// NewIngesterWithConfig returns an Ingester writing to repo. The embedded
// transient schema is compiled when config.Ingest.ValidateSchema is set.
func NewIngesterWithConfig(config *otter.Config, repo otter.TransientRepository) (otter.Ingester, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}

	var validator *internal.SchemaValidator
	if config.Ingest.ValidateSchema {
		v, err := internal.NewTransientSchemaValidator()
		if err != nil {
			return nil, fmt.Errorf("failed to compile transient schema: %w", err)
		}
		validator = v
	}
	return internal.NewIngester(repo, validator, config.Ingest), nil
}

// NewExporter returns a snapshot exporter for config. Callers must Close it.
func NewExporter(ctx context.Context, config *otter.Config, logger *zap.Logger) (*export.Exporter, error) {
	return export.NewExporter(ctx, config, logger)
}
