package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/astro-otter/otter"
	"github.com/astro-otter/otter/factory"
	"go.uber.org/zap"
)

type exportFlags struct {
	dbFlags
	bucket     string
	prefix     string
	endpoint   string
	stagingDir string
	dryRun     bool
}

func (f *exportFlags) applyExport(cfg *otter.ExportConfig) {
	if f.bucket != "" {
		cfg.S3Bucket = f.bucket
	}
	if f.prefix != "" {
		cfg.S3Prefix = f.prefix
	}
	if f.endpoint != "" {
		cfg.S3Endpoint = f.endpoint
	}
	if f.stagingDir != "" {
		cfg.StagingDir = f.stagingDir
	}
}

func runExport(args []string) error {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: otter-tools export [options]")
		fmt.Println("")
		fmt.Println("Writes every stored transient to a Parquet snapshot and uploads it.")
		fmt.Println("Without a bucket, or with -dry-run, the snapshot is left in the staging directory.")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	opts := exportFlags{}
	opts.register(flags)
	flags.StringVar(&opts.bucket, "bucket", getenvDefault("S3_BUCKET", ""), "S3 bucket for snapshots")
	flags.StringVar(&opts.prefix, "prefix", "", "S3 key prefix")
	flags.StringVar(&opts.endpoint, "s3-endpoint", getenvDefault("S3_ENDPOINT", ""), "custom S3 endpoint, e.g. MinIO")
	flags.StringVar(&opts.stagingDir, "staging-dir", "", "local directory for the Parquet file")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "write the snapshot locally without uploading")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := opts.load()
	if err != nil {
		return err
	}
	opts.applyExport(&cfg.Export)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	exporter, err := factory.NewExporter(ctx, cfg, zap.L())
	if err != nil {
		return err
	}
	defer exporter.Close()

	result, err := exporter.Run(ctx, opts.dryRun)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
