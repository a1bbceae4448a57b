package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/astro-otter/otter"
)

type ingestOptions struct {
	input          string
	configPath     string
	dryRun         bool
	rejectPartial  bool
	skipValidation bool
	batchSize      int
	verbose        bool
}

func newFlagSet() *flag.FlagSet {
	flags := flag.NewFlagSet("otter-ingest", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: otter-ingest -input <file> [options]")
		fmt.Println("")
		fmt.Println("Reads transients from a JSON array or JSONL file and stores them.")
		fmt.Println("Settings not given as flags come from -config and OTTER_* environment variables.")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}
	return flags
}

func parseFlags(flags *flag.FlagSet, args []string) (*ingestOptions, error) {
	opts := &ingestOptions{}
	flags.StringVar(&opts.input, "input", "", "Path to a JSON or JSONL file of transients (required)")
	flags.StringVar(&opts.configPath, "config", os.Getenv("OTTER_CONFIG"), "Path to a YAML or JSON config file")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Build and validate documents without writing to the database")
	flags.BoolVar(&opts.rejectPartial, "reject-partial", false, "Fail records with attribute errors instead of storing them")
	flags.BoolVar(&opts.skipValidation, "skip-validation", false, "Skip JSON schema validation of input records")
	flags.IntVar(&opts.batchSize, "batch-size", 0, "Records per logged batch (0 keeps the configured value)")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// apply overrides cfg with flags that were set. Boolean flags only ever turn
// a setting on, except -skip-validation.
func (o *ingestOptions) apply(cfg *otter.Config) {
	if o.dryRun {
		cfg.Ingest.DryRun = true
	}
	if o.rejectPartial {
		cfg.Ingest.RejectPartial = true
	}
	if o.skipValidation {
		cfg.Ingest.ValidateSchema = false
	}
	if o.batchSize > 0 {
		cfg.Ingest.BatchSize = o.batchSize
	}
}
