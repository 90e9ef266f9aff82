package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxevent"

	"devboot/internal/app/cli"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

const invalidConfig = `
ports:
  required:
    app: 70000
`

func Test_loadConfig(t *testing.T) {
	tests := []struct {
		name        string
		command     cli.CommandType
		content     string
		expectError bool
	}{
		{name: "run without devboot.yaml uses defaults", command: cli.CommandRun},
		{name: "run with invalid devboot.yaml", command: cli.CommandRun, content: invalidConfig, expectError: true},
		{name: "ports with invalid devboot.yaml", command: cli.CommandPorts, content: invalidConfig, expectError: true},
		{name: "init ignores invalid devboot.yaml", command: cli.CommandInit, content: invalidConfig},
		{name: "version ignores invalid devboot.yaml", command: cli.CommandVersion, content: invalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())

			if tt.content != "" {
				require.NoError(t, os.WriteFile(config.FileName, []byte(tt.content), 0o600))
			}

			cfg, err := loadConfig(&cli.Options{Type: tt.command})

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, cfg)
		})
	}
}

func Test_openSink(t *testing.T) {
	tests := []struct {
		name     string
		command  cli.CommandType
		expected bool
	}{
		{name: "run opens the run log", command: cli.CommandRun, expected: true},
		{name: "ports does not", command: cli.CommandPorts},
		{name: "report does not", command: cli.CommandReport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Project.Dir = t.TempDir()

			sink, err := openSink(cfg, &cli.Options{Type: tt.command})
			require.NoError(t, err)
			defer sink.Close()

			if tt.expected {
				require.NotNil(t, sink)
				assert.FileExists(t, sink.Path())
			} else {
				assert.Nil(t, sink)
			}
		})
	}
}

func Test_runApp_ErrorsBeforeStart(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		content  string
		expected int
	}{
		{name: "unknown command", args: []string{"deploy"}, expected: cli.ExitUsage},
		{name: "unknown flag", args: []string{"--bogus"}, expected: cli.ExitUsage},
		{name: "invalid configuration", args: []string{"ports"}, content: invalidConfig, expected: cli.ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())

			if tt.content != "" {
				require.NoError(t, os.WriteFile(config.FileName, []byte(tt.content), 0o600))
			}

			assert.Equal(t, tt.expected, runApp(tt.args))
		})
	}
}

func Test_createApp(t *testing.T) {
	tests := []struct {
		name    string
		command cli.CommandType
		level   string
	}{
		{name: "run with info logging", command: cli.CommandRun, level: logger.InfoLevel},
		{name: "ports with debug logging", command: cli.CommandPorts, level: logger.DebugLevel},
		{name: "report with error logging", command: cli.CommandReport, level: logger.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Project.Dir = t.TempDir()
			cfg.Logging.Level = tt.level

			options := &cli.Options{Type: tt.command}

			sink, err := openSink(cfg, options)
			require.NoError(t, err)
			defer sink.Close()

			app := createApp(cfg, options, sink)

			require.NotNil(t, app)
			assert.NoError(t, app.Err())
		})
	}
}

func Test_createFxLogger(t *testing.T) {
	tests := []struct {
		name           string
		level          string
		expectedType   interface{}
		expectedLogger interface{}
	}{
		{
			name:         "Debug level returns console logger",
			level:        logger.DebugLevel,
			expectedType: &fxevent.ConsoleLogger{},
		},
		{
			name:           "Info level returns nop logger",
			level:          logger.InfoLevel,
			expectedLogger: fxevent.NopLogger,
		},
		{
			name:           "Error level returns nop logger",
			level:          logger.ErrorLevel,
			expectedLogger: fxevent.NopLogger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Logging.Level = tt.level

			loggerFunc := createFxLogger(cfg)
			assert.NotNil(t, loggerFunc)

			result := loggerFunc()
			assert.NotNil(t, result)

			if tt.expectedType != nil {
				assert.IsType(t, tt.expectedType, result)
			}

			if tt.expectedLogger != nil {
				assert.Equal(t, tt.expectedLogger, result)
			}
		})
	}
}
