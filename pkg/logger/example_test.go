package logger_test

import (
	"os"

	"github.com/truffle-roll/truffle/pkg/config"
	"github.com/truffle-roll/truffle/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "warn",
		LogFormat: "console",
	}

	// Create logger (SSOT), diagnostics go to stderr
	log := logger.New(cfg)

	log.Info("This won't appear (level is warn)")
	log.Warnf("cut contained %s %g but no quotes have been found", "F2020", 1.0)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.NewWithWriter(cfg, os.Stderr)

	log.WithFields(map[string]interface{}{
		"mode":  "sparse",
		"ticks": 250,
	}).Info("roll-over completed")
}
