package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/astro-otter/otter"
	"github.com/astro-otter/otter/internal"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result describes one snapshot export.
type Result struct {
	Rows      int64         `json:"rows"`
	LocalPath string        `json:"localPath,omitempty"`
	Key       string        `json:"key,omitempty"`
	Location  string        `json:"location,omitempty"`
	Uploaded  bool          `json:"uploaded"`
	Duration  time.Duration `json:"duration"`
}

// snapshotWriter is the part of DuckDBClient the exporter drives.
type snapshotWriter interface {
	CopyTransients(ctx context.Context, pgConnStr, table, dest string) error
	CountParquetRows(ctx context.Context, path string) (int64, error)
	Close() error
}

// Exporter snapshots the transient table to Parquet and uploads it to S3.
type Exporter struct {
	cfg      *otter.Config
	duck     snapshotWriter
	buckets  bucketAPI
	uploader uploaderAPI
	logger   *zap.Logger
	newID    func() (uuid.UUID, error)
	password func(ctx context.Context, db otter.DatabaseConfig) string
}

// NewExporter opens DuckDB and, when a bucket is configured, an S3 client.
func NewExporter(ctx context.Context, cfg *otter.Config, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.L()
	}

	duck, err := NewDuckDBClient(ctx, cfg.Export, logger)
	if err != nil {
		return nil, otter.NewExportError("open duckdb", err)
	}

	e := &Exporter{
		cfg:      cfg,
		duck:     duck,
		logger:   logger,
		newID:    uuid.NewV7,
		password: internal.ResolveDatabasePassword,
	}

	if cfg.Export.S3Bucket != "" {
		if err := ValidateS3Config(cfg.Export); err != nil {
			duck.Close()
			return nil, otter.NewExportError("invalid s3 settings", err)
		}
		client, err := NewS3Client(ctx, cfg.Export)
		if err != nil {
			duck.Close()
			return nil, otter.NewExportError("create s3 client", err)
		}
		e.buckets = client
		e.uploader = manager.NewUploader(client)
	}
	return e, nil
}

// Close releases the DuckDB connection.
func (e *Exporter) Close() error {
	if e.duck == nil {
		return nil
	}
	return e.duck.Close()
}

// Run writes a snapshot to the staging directory and uploads it unless dryRun
// is set or no bucket is configured. The local file is removed after upload.
func (e *Exporter) Run(ctx context.Context, dryRun bool) (*Result, error) {
	start := time.Now()

	id, err := e.newID()
	if err != nil {
		return nil, otter.NewExportError("generate snapshot id", err)
	}

	stagingDir := e.cfg.Export.StagingDir
	if stagingDir == "" {
		stagingDir = os.TempDir()
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, otter.NewExportError("create staging dir", err)
	}

	table := e.cfg.Database.TableName
	localPath := filepath.Join(stagingDir, fmt.Sprintf("%s-%s.parquet", table, id))
	pgConnStr := LibpqConnString(e.cfg.Database, e.password(ctx, e.cfg.Database))

	if err := e.duck.CopyTransients(ctx, pgConnStr, table, localPath); err != nil {
		return nil, otter.NewExportError("copy transients to parquet", err)
	}

	rows, err := e.duck.CountParquetRows(ctx, localPath)
	if err != nil {
		return nil, otter.NewExportError("count exported rows", err)
	}

	result := &Result{Rows: rows, LocalPath: localPath}

	if dryRun || e.uploader == nil {
		e.logger.Sugar().Infow("snapshot written locally; skipping upload", "path", localPath, "rows", rows, "dryRun", dryRun)
		result.Duration = time.Since(start)
		return result, nil
	}

	bucket := e.cfg.Export.S3Bucket
	key := SnapshotKey(e.cfg.Export.S3Prefix, table, id)
	if err := EnsureBucket(ctx, e.buckets, bucket); err != nil {
		return nil, otter.NewExportError("ensure bucket", err)
	}
	location, err := UploadFile(ctx, e.uploader, bucket, key, localPath)
	if err != nil {
		return nil, otter.NewExportError("upload snapshot", err)
	}

	if err := os.Remove(localPath); err != nil {
		e.logger.Sugar().Warnw("failed to remove staged snapshot", "path", localPath, "err", err)
	} else {
		result.LocalPath = ""
	}

	result.Key = key
	result.Location = location
	result.Uploaded = true
	result.Duration = time.Since(start)
	e.logger.Sugar().Infow("snapshot exported", "bucket", bucket, "key", key, "rows", rows, "duration", result.Duration)
	return result, nil
}

// SnapshotKey returns <prefix>/snapshots/<table>/<id>.parquet.
func SnapshotKey(prefix, table string, id uuid.UUID) string {
	key := fmt.Sprintf("snapshots/%s/%s.parquet", table, id)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// LibpqConnString renders db as a libpq key/value string for postgres_scan.
func LibpqConnString(db otter.DatabaseConfig, password string) string {
	parts := []string{
		"host=" + quoteLibpqValue(db.Host),
		fmt.Sprintf("port=%d", db.Port),
		"user=" + quoteLibpqValue(db.Username),
	}
	if password != "" {
		parts = append(parts, "password="+quoteLibpqValue(password))
	}
	parts = append(parts, "dbname="+quoteLibpqValue(db.Database))
	if db.SSLMode != "" {
		parts = append(parts, "sslmode="+quoteLibpqValue(db.SSLMode))
	}
	return strings.Join(parts, " ")
}

func quoteLibpqValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
