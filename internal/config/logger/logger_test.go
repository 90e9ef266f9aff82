package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devboot/internal/config"
)

func testConfig(level, format string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = level
	cfg.Logging.Format = format

	return cfg
}

func Test_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.Config
		expected zerolog.Level
	}{
		{name: "Default", cfg: config.DefaultConfig(), expected: zerolog.InfoLevel},
		{name: "Debug level", cfg: testConfig(DebugLevel, ConsoleFormat), expected: zerolog.DebugLevel},
		{name: "Warn level and json format", cfg: testConfig(WarnLevel, JSONFormat), expected: zerolog.WarnLevel},
		{name: "Empty level and format (defaults)", cfg: testConfig("", ""), expected: zerolog.InfoLevel},
		{name: "Error level", cfg: testConfig(ErrorLevel, ConsoleFormat), expected: zerolog.ErrorLevel},
		{name: "Trace level", cfg: testConfig(TraceLevel, ConsoleFormat), expected: zerolog.TraceLevel},
		{name: "Unknown format (defaults to console)", cfg: testConfig(InfoLevel, "unknown"), expected: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.cfg)
			assert.NotNil(t, logger)

			appLogger, ok := logger.(*AppLogger)
			assert.True(t, ok)

			assert.Equal(t, tt.expected, appLogger.log.GetLevel())
		})
	}
}

func Test_NewLogger_AppliesDefaults(t *testing.T) {
	cfg := testConfig("", "")
	NewLogger(cfg)

	assert.Equal(t, InfoLevel, cfg.Logging.Level)
	assert.Equal(t, ConsoleFormat, cfg.Logging.Format)
}

func Test_NewLoggerWithOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerWithOutput(testConfig(InfoLevel, JSONFormat), &buf)
	logger.Info().Str("key", "value").Msg("hello")
	logger.Debug().Msg("filtered")

	out := buf.String()
	assert.Contains(t, out, `"message":"hello"`)
	assert.Contains(t, out, `"key":"value"`)
	assert.NotContains(t, out, "filtered")
}

func Test_WithComponent(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerWithOutput(testConfig(InfoLevel, JSONFormat), &buf)
	logger.WithComponent("PORTS").Warn().Msg("port busy")

	assert.Contains(t, buf.String(), `"component":"PORTS"`)
}

func Test_NewRunLogger_WritesSink(t *testing.T) {
	var console, sink bytes.Buffer

	logger := NewRunLogger(testConfig(InfoLevel, JSONFormat), &console, &sink)
	logger.WithComponent("RUNNER").Info().Msg("command finished")

	assert.Contains(t, console.String(), "command finished")
	assert.Contains(t, sink.String(), "command finished")
	assert.Contains(t, sink.String(), "[RUNNER]")
	assert.NotContains(t, sink.String(), "\x1b[", "run log must be uncoloured")
}

func Test_OpenSink(t *testing.T) {
	t.Run("Creates log directory and appends", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Project.Dir = t.TempDir()

		sink, err := OpenSink(cfg)
		require.NoError(t, err)
		require.NotNil(t, sink)

		assert.Equal(t, filepath.Join(cfg.Project.Dir, config.DefaultLogFile), sink.Path())

		_, err = sink.Write([]byte("first line\n"))
		require.NoError(t, err)
		require.NoError(t, sink.Close())
		require.NoError(t, sink.Close())

		_, err = sink.Write([]byte("dropped\n"))
		assert.NoError(t, err)

		data, err := os.ReadFile(sink.Path())
		require.NoError(t, err)
		assert.Equal(t, "first line\n", string(data))
	})

	t.Run("Disabled when no file configured", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Logging.File = ""

		sink, err := OpenSink(cfg)
		assert.NoError(t, err)
		assert.Nil(t, sink)
		assert.NoError(t, sink.Close())
		assert.Empty(t, sink.Path())
	})
}

func Test_getLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{name: "Debug", level: DebugLevel, expected: zerolog.DebugLevel},
		{name: "Info", level: InfoLevel, expected: zerolog.InfoLevel},
		{name: "Warn", level: WarnLevel, expected: zerolog.WarnLevel},
		{name: "Error", level: ErrorLevel, expected: zerolog.ErrorLevel},
		{name: "Fatal", level: FatalLevel, expected: zerolog.FatalLevel},
		{name: "Panic", level: PanicLevel, expected: zerolog.PanicLevel},
		{name: "Trace", level: TraceLevel, expected: zerolog.TraceLevel},
		{name: "Unknown", level: "unknown", expected: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := getLogLevel(tt.level)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func Test_Module(t *testing.T) {
	assert.NotNil(t, Module)
}

func Test_zerologEvent(t *testing.T) {
	logger := NewLoggerWithOutput(testConfig(DebugLevel, JSONFormat), &bytes.Buffer{})

	t.Run("Event chaining", func(t *testing.T) {
		event := logger.Debug()

		assert.NotNil(t, event.Str("key", "value"))
		assert.NotNil(t, event.Int("count", 42))
		assert.NotNil(t, event.Dur("duration", time.Second))
		assert.NotNil(t, event.Err(errors.New("test error")))

		event.Msg("test message")
	})

	t.Run("Nil event is safe", func(t *testing.T) {
		var event *zerolog.Event

		assert.NotPanics(t, func() {
			event.Str("key", "value").Msg("ignored")
		})
	})
}
