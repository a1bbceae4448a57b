package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/astro-otter/otter"
	"github.com/astro-otter/otter/internal"
	"github.com/astro-otter/otter/internal/export"
	"go.uber.org/zap"
)

type healthCheck struct {
	name string
	run  func(ctx context.Context) error
}

func runHealth(args []string) error {
	flags := flag.NewFlagSet("health", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: otter-tools health [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	opts := dbFlags{}
	opts.register(flags)
	timeout := flags.Duration("timeout", 5*time.Second, "timeout per check")
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
	return runChecks(context.Background(), healthChecks(cfg, *timeout), *timeout)
}

func healthChecks(cfg *otter.Config, timeout time.Duration) []healthCheck {
	checks := []healthCheck{
		{name: "postgres", run: func(ctx context.Context) error {
			return internal.PostgresHealthCheck(ctx, buildConnString(ctx, cfg.Database), cfg.Database.TableName, timeout)
		}},
		{name: "duckdb", run: func(ctx context.Context) error {
			duck, err := export.NewDuckDBClient(ctx, cfg.Export, zap.L())
			if err != nil {
				return err
			}
			defer duck.Close()
			return duck.HealthCheck(ctx)
		}},
	}

	if cfg.Export.S3Bucket != "" {
		checks = append(checks, healthCheck{name: "s3", run: func(ctx context.Context) error {
			if err := export.ValidateS3Config(cfg.Export); err != nil {
				return err
			}
			client, err := export.NewS3Client(ctx, cfg.Export)
			if err != nil {
				return err
			}
			return export.BucketHealthCheck(ctx, client, cfg.Export.S3Bucket)
		}})
	}
	return checks
}

// runChecks runs every check and reports all failures together.
func runChecks(ctx context.Context, checks []healthCheck, timeout time.Duration) error {
	var errs []error
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := c.run(checkCtx)
		cancel()

		if err != nil {
			fmt.Printf("%-10s FAIL  %v\n", c.name, err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		fmt.Printf("%-10s ok\n", c.name)
	}
	return errors.Join(errs...)
}
