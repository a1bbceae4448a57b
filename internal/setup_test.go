package internal

import (
	"os"
	"testing"

	"github.com/astro-otter/otter"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger, err := NewLogger(otter.LoggingConfig{Level: "debug", Format: "console"}, true)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	exitCode := m.Run()
	os.Exit(exitCode)
}
