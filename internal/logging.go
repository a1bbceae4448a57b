package internal

import (
	"fmt"

	"github.com/astro-otter/otter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger from cfg. verbose forces debug level and
// development mode.
func NewLogger(cfg otter.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()

	switch cfg.Format {
	case "", "console":
		zc.Encoding = "console"
	case "json":
		zc.Encoding = "json"
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zc.Development = true
	}
	return zc.Build()
}
