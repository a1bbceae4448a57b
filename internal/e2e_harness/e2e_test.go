package e2e_harness

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/astro-otter/otter"
	"github.com/astro-otter/otter/factory"
	"github.com/astro-otter/otter/internal/export"
	"go.uber.org/zap"
)

// skipUnlessE2E requires OTTER_E2E=1 outside -short mode. The tests need Docker.
func skipUnlessE2E(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping E2E harness in -short mode")
	}
	if os.Getenv("OTTER_E2E") != "1" {
		t.Skip("OTTER_E2E=1 not set; skipping E2E harness")
	}
}

func TestE2EIngestAndExport(t *testing.T) {
	skipUnlessE2E(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	h := &TestHarness{}

	if _, err := h.StartPostgres(ctx); err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer h.StopPostgres(context.Background())

	if _, err := h.StartS3(ctx); err != nil {
		t.Fatalf("start rustfs: %v", err)
	}
	defer h.StopS3(context.Background())

	cfg := otter.DefaultConfig()
	cfg.Database = h.DatabaseConfig()
	cfg.Export = h.ExportConfig("otter-e2e", t.TempDir())

	if err := CreateTransientTable(ctx, h.PGDB, cfg.Database.TableName); err != nil {
		t.Fatalf("create table: %v", err)
	}

	pool, err := factory.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	defer pool.Close()

	repo, err := factory.NewRepositoryWithConfig(cfg, pool)
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	ingester, err := factory.NewIngesterWithConfig(cfg, repo)
	if err != nil {
		t.Fatalf("create ingester: %v", err)
	}

	records, err := SeedRecords()
	if err != nil {
		t.Fatalf("seed records: %v", err)
	}
	result, err := ingester.Ingest(ctx, records)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(result.Successful) != 3 || len(result.Partial) != 1 || len(result.Failed) != 0 {
		t.Fatalf("unexpected ingest result: %d ok, %d partial, %d failed %+v",
			len(result.Successful), len(result.Partial), len(result.Failed), result.Failed)
	}

	// re-ingesting replaces documents by name
	if _, err := ingester.Ingest(ctx, records[:1]); err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 stored transients, got %d", n)
	}

	doc, err := repo.Get(ctx, "AT2018hyz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	stored, err := otter.BuildTransient(doc.Body)
	if err != nil {
		t.Fatalf("rebuild stored document: %v", err)
	}
	if got := stored.RA[0].ValueString; got != "10h06m50.87s" {
		t.Fatalf("unexpected stored ra %q", got)
	}

	exporter, err := factory.NewExporter(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("create exporter: %v", err)
	}
	defer exporter.Close()

	res, err := exporter.Run(ctx, false)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !res.Uploaded || res.Rows != 3 {
		t.Fatalf("unexpected export result: %+v", res)
	}

	client, err := export.NewS3Client(ctx, cfg.Export)
	if err != nil {
		t.Fatalf("s3 client: %v", err)
	}
	keys, err := ListObjectKeys(ctx, client, cfg.Export.S3Bucket, "otter/snapshots/")
	if err != nil {
		t.Fatalf("list objects: %v", err)
	}
	if len(keys) != 1 || keys[0] != res.Key || !strings.HasSuffix(keys[0], ".parquet") {
		t.Fatalf("unexpected uploaded keys %v (want %s)", keys, res.Key)
	}
}

func TestE2EDuckDBReadsLocalSnapshot(t *testing.T) {
	skipUnlessE2E(t)
	ctx := context.Background()
	h := &TestHarness{}

	if _, err := h.StartPostgres(ctx); err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer h.StopPostgres(ctx)

	cfg := otter.DefaultConfig()
	cfg.Database = h.DatabaseConfig()
	if err := h.StartDuckDB(ctx, cfg.Export); err != nil {
		t.Fatalf("start duckdb: %v", err)
	}
	defer h.StopDuckDB()

	if err := CreateTransientTable(ctx, h.PGDB, cfg.Database.TableName); err != nil {
		t.Fatalf("create table: %v", err)
	}

	dest := t.TempDir() + "/empty.parquet"
	conn := export.LibpqConnString(cfg.Database, cfg.Database.Password)
	if err := h.Duck.CopyTransients(ctx, conn, cfg.Database.TableName, dest); err != nil {
		t.Fatalf("copy transients: %v", err)
	}
	n, err := h.Duck.CountParquetRows(ctx, dest)
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty snapshot, got %d rows", n)
	}
}
