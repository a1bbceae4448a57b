package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/astro-otter/otter"
	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"
)

// DuckDBClient wraps a database/sql DB opened with the DuckDB driver.
type DuckDBClient struct {
	DB     *sql.DB
	cfg    otter.ExportConfig
	logger *zap.Logger
}

var duckDBExtensions = []string{"postgres_scanner", "parquet", "json"}

// NewDuckDBClient opens DuckDB, applies resource pragmas and loads the
// extensions the export needs. Pragma and extension failures are logged, not fatal.
func NewDuckDBClient(ctx context.Context, cfg otter.ExportConfig, logger *zap.Logger) (*DuckDBClient, error) {
	if logger == nil {
		logger = zap.L()
	}

	dsn := cfg.DuckDBPath
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	for _, p := range duckDBPragmas(cfg) {
		if _, err := db.ExecContext(ctx2, p); err != nil {
			logger.Sugar().Warnw("duckdb pragma failed", "pragma", p, "err", err)
		}
	}
	for _, e := range duckDBExtensions {
		if _, err := db.ExecContext(ctx2, "INSTALL "+e+";"); err != nil {
			logger.Sugar().Warnw("duckdb install extension failed", "ext", e, "err", err)
			continue
		}
		if _, err := db.ExecContext(ctx2, "LOAD "+e+";"); err != nil {
			logger.Sugar().Warnw("duckdb load extension failed", "ext", e, "err", err)
		}
	}

	return &DuckDBClient{DB: db, cfg: cfg, logger: logger}, nil
}

func duckDBPragmas(cfg otter.ExportConfig) []string {
	var pragmas []string
	if cfg.MemoryLimitMB > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%dMB';", cfg.MemoryLimitMB))
	}
	if cfg.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d;", cfg.Threads))
	}
	return pragmas
}

// Close closes the underlying DuckDB DB.
func (c *DuckDBClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// HealthCheck runs a trivial query against DuckDB.
func (c *DuckDBClient) HealthCheck(ctx context.Context) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("duckdb client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var v int
	if err := c.DB.QueryRowContext(ctx, "SELECT 1;").Scan(&v); err != nil {
		return fmt.Errorf("duckdb health query failed: %w", err)
	}
	if v != 1 {
		return fmt.Errorf("unexpected duckdb health result: %d", v)
	}
	return nil
}

// CopyTransients writes every stored transient to a local Parquet file at dest,
// reading the Postgres table through postgres_scan.
func (c *DuckDBClient) CopyTransients(ctx context.Context, pgConnStr, table, dest string) error {
	query := buildExportSQL(pgConnStr, table, dest)

	c.logger.Sugar().Infow("duckdb export", "table", table, "dest", dest)
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()
	if _, err := c.DB.ExecContext(ctx2, query); err != nil {
		return fmt.Errorf("duckdb copy exec: %w", err)
	}
	return nil
}

// CountParquetRows returns the number of rows in a Parquet file.
func (c *DuckDBClient) CountParquetRows(ctx context.Context, path string) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM read_parquet('%s');", escapeLiteral(path))
	if err := c.DB.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count parquet rows: %w", err)
	}
	return n, nil
}

// buildExportSQL projects the JSONB document alongside the first coordinate and
// redshift entries so snapshots can be filtered without parsing documents.
func buildExportSQL(pgConnStr, table, dest string) string {
	pgEsc := escapeLiteral(pgConnStr)
	tableEsc := escapeLiteral(table)
	destEsc := escapeLiteral(dest)

	return fmt.Sprintf(`COPY (
SELECT
  CAST(t.id AS VARCHAR) AS id,
  t.name AS name,
  json_extract_string(CAST(t.document AS JSON), '$.ra[0].value') AS ra,
  json_extract_string(CAST(t.document AS JSON), '$.dec[0].value') AS dec,
  TRY_CAST(json_extract_string(CAST(t.document AS JSON), '$.z[0].value') AS DOUBLE) AS redshift,
  CAST(t.document AS VARCHAR) AS document,
  t.created_at AS created_at,
  t.updated_at AS updated_at
FROM postgres_scan('%s', 'public', '%s') t
ORDER BY t.name
) TO '%s' (FORMAT PARQUET, COMPRESSION 'ZSTD');
`, pgEsc, tableEsc, destEsc)
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
