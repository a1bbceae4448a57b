package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/astro-otter/otter"
	"github.com/astro-otter/otter/factory"
	"github.com/astro-otter/otter/internal"
	"go.uber.org/zap"
)

func main() {
	flagSet := newFlagSet()
	opts, err := parseFlags(flagSet, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := factory.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	opts.apply(cfg)

	logger, err := internal.NewLogger(cfg.Logging, opts.verbose)
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if opts.input == "" {
		sugar.Error("Error: -input flag is required")
		flagSet.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := internal.ReadRecordsFile(opts.input)
	if err != nil {
		sugar.Fatalf("Failed to read %s: %v", opts.input, err)
	}
	sugar.Infof("Loaded %d records from %s", len(records), opts.input)

	var repo otter.TransientRepository
	if cfg.Ingest.DryRun {
		sugar.Infof("Dry run mode: documents are built and validated but not stored")
		repo = discardRepository{}
	} else {
		sugar.Infof("Connecting to database %s:%d/%s...", cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
		pool, err := factory.NewPool(ctx, cfg)
		if err != nil {
			sugar.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			sugar.Fatalf("Failed to ping database: %v", err)
		}
		repo, err = factory.NewRepositoryWithConfig(cfg, pool)
		if err != nil {
			sugar.Fatalf("Failed to create repository: %v", err)
		}
	}

	ingester, err := factory.NewIngesterWithConfig(cfg, repo)
	if err != nil {
		sugar.Fatalf("Failed to create ingester: %v", err)
	}

	result, err := ingester.Ingest(ctx, records)
	if err != nil {
		sugar.Errorf("Ingest interrupted: %v", err)
	}
	if result != nil {
		printResult(result, sugar)
	}

	if err != nil || (result != nil && len(result.Failed) > 0) {
		os.Exit(1)
	}
}

// printResult prints the ingest result summary.
func printResult(result *otter.IngestResult, logger *zap.SugaredLogger) {
	logger.Info(strings.Repeat("=", 52))
	logger.Info("Ingest Summary")
	logger.Info(strings.Repeat("=", 52))
	logger.Infof("  Total records:  %d", result.TotalCount)
	logger.Infof("  Stored:         %d", len(result.Successful))
	logger.Infof("  Partial:        %d", len(result.Partial))
	logger.Infof("  Failed:         %d", len(result.Failed))
	logger.Infof("  Duration:       %v", result.Duration)

	printRecordErrors("partial", result.Partial, logger)
	printRecordErrors("failed", result.Failed, logger)
}

func printRecordErrors(kind string, errs []otter.RecordError, logger *zap.SugaredLogger) {
	if len(errs) == 0 {
		return
	}
	logger.Info("")
	logger.Infof("First %d %s records:", min(10, len(errs)), kind)
	for i, re := range errs {
		if i >= 10 {
			logger.Infof("  ... and %d more", len(errs)-10)
			break
		}
		logger.Infof("  [%d] %s (%s): %s", re.Index, re.Name, re.Code, re.Error)
	}
}

// discardRepository stands in for the database in dry run mode.
type discardRepository struct{}

func (discardRepository) Upsert(_ context.Context, name string, body map[string]any) (*otter.TransientDocument, error) {
	return &otter.TransientDocument{Name: name, Body: body}, nil
}

func (discardRepository) Get(_ context.Context, name string) (*otter.TransientDocument, error) {
	return nil, otter.NewTransientNotFoundError(name)
}

func (discardRepository) List(context.Context, otter.ListRequest) ([]*otter.TransientDocument, error) {
	return nil, nil
}

func (discardRepository) Delete(_ context.Context, name string) error {
	return otter.NewTransientNotFoundError(name)
}

func (discardRepository) Count(context.Context) (int64, error) {
	return 0, nil
}
