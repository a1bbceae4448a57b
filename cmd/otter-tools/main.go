package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/astro-otter/otter"
	"github.com/astro-otter/otter/factory"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("failed to set up logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init-db":
		if err := runInitDB(os.Args[2:]); err != nil {
			sugar.Fatalf("init-db: %v", err)
		}
	case "export":
		if err := runExport(os.Args[2:]); err != nil {
			sugar.Fatalf("export: %v", err)
		}
	case "health":
		if err := runHealth(os.Args[2:]); err != nil {
			sugar.Fatalf("health: %v", err)
		}
	default:
		sugar.Errorf("unknown command %q", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	logger := zap.S()
	logger.Info("Usage: otter-tools <command> [options]")
	logger.Info("")
	logger.Info("Commands:")
	logger.Info("  init-db   Create the PostgreSQL transient table and indexes")
	logger.Info("  export    Snapshot stored transients to Parquet and upload to S3")
	logger.Info("  health    Check PostgreSQL, DuckDB and the snapshot bucket")
}

// dbFlags are the database settings every command accepts on top of -config.
// Empty values keep what the config file and environment provide.
type dbFlags struct {
	configPath string
	host       string
	port       int
	database   string
	user       string
	password   string
	sslMode    string
	table      string
}

func (f *dbFlags) register(flags *flag.FlagSet) {
	flags.StringVar(&f.configPath, "config", getenvDefault("OTTER_CONFIG", ""), "Path to a YAML or JSON config file")
	flags.StringVar(&f.host, "db-host", getenvDefault("DB_HOST", ""), "database host")
	flags.IntVar(&f.port, "db-port", getenvDefaultInt("DB_PORT", 0), "database port")
	flags.StringVar(&f.database, "db-name", getenvDefault("DB_NAME", ""), "database name")
	flags.StringVar(&f.user, "db-user", getenvDefault("DB_USER", ""), "database user")
	flags.StringVar(&f.password, "db-password", getenvDefault("DB_PASSWORD", ""), "database password")
	flags.StringVar(&f.sslMode, "db-ssl-mode", getenvDefault("DB_SSL_MODE", ""), "database sslmode")
	flags.StringVar(&f.table, "table", getenvDefault("TRANSIENT_TABLE", ""), "transient table name")
}

func (f *dbFlags) load() (*otter.Config, error) {
	cfg, err := factory.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	f.apply(&cfg.Database)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *dbFlags) apply(db *otter.DatabaseConfig) {
	if f.host != "" {
		db.Host = f.host
	}
	if f.port > 0 {
		db.Port = f.port
	}
	if f.database != "" {
		db.Database = f.database
	}
	if f.user != "" {
		db.Username = f.user
	}
	if f.password != "" {
		db.Password = f.password
	}
	if f.sslMode != "" {
		db.SSLMode = f.sslMode
	}
	if f.table != "" {
		db.TableName = f.table
	}
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getenvDefaultInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
