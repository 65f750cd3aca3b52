package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truffle-roll/truffle/pkg/config"
)

func jsonLogger(buf *bytes.Buffer) *Logger {
	return NewWithWriter(&config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"}, buf)
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestNewWithWriter(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"}, &buf)
			require.NotNil(t, log)
			assert.Equal(t, tt.wantLevel, log.zlog.GetLevel())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	log := jsonLogger(&buf)

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { log.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { log.Info("info message") }, "info message", "info"},
		{"warn", func() { log.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { log.Error("error message") }, "error message", "error"},
		{"debugf", func() { log.Debugf("rows: %d", 3) }, "rows: 3", "debug"},
		{"warnf", func() { log.Warnf("cut contained %s", "F2020") }, "cut contained F2020", "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decode(t, &buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
			assert.Equal(t, "development", entry["env"])
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "warn", LogFormat: "json"}, &buf)

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := jsonLogger(&buf)

	log.WithField("file", "roll.trod").Info("loaded")
	entry := decode(t, &buf)
	assert.Equal(t, "roll.trod", entry["file"])

	buf.Reset()
	log.WithFields(map[string]interface{}{
		"ticks": 12,
		"mode":  "flow",
	}).Info("roll-over completed")
	entry = decode(t, &buf)
	assert.Equal(t, float64(12), entry["ticks"])
	assert.Equal(t, "flow", entry["mode"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := jsonLogger(&buf)

	log.WithError(errors.New("schema unreadable")).Error("load failed")

	entry := decode(t, &buf)
	assert.Equal(t, "schema unreadable", entry["error"])
	assert.Equal(t, "load failed", entry["message"])
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "info", LogFormat: "console"}, &buf)

	log.Warn("unsorted input data will result in poor performance")

	out := buf.String()
	assert.True(t, strings.Contains(out, "unsorted input data"), out)
	assert.Contains(t, out, "WRN")
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error("discarded")
	log.WithField("k", "v").Warnf("discarded %d", 1)
}
