package logger

//go:generate mockgen -source=logger.go -destination=logger_mock.go -package=logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"devboot/internal/config"
)

// Logger configuration constants
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
	FatalLevel = "fatal"
	PanicLevel = "panic"
	TraceLevel = "trace"

	ConsoleFormat = "console"
	JSONFormat    = "json"

	TimeFormat = "02.01.2006 15:04:05"
)

// Logger interface for application logging
type Logger interface {
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	WithComponent(name string) Logger
}

// AppLogger represents a logger implementation using zerolog
type AppLogger struct {
	log zerolog.Logger
}

// Sink is the run log file receiving every log line of a run as timestamped text
type Sink struct {
	path string
	file *os.File
	mu   sync.Mutex
	once sync.Once
}

// NewLogger creates a new logger instance
func NewLogger(cfg *config.Config) Logger {
	return NewLoggerWithOutput(cfg, nil)
}

// NewLoggerWithOutput creates a new logger instance with a custom output writer
func NewLoggerWithOutput(cfg *config.Config, customOutput io.Writer) Logger {
	return NewRunLogger(cfg, customOutput, nil)
}

// NewRunLogger creates a logger writing to the console (or customOutput) and, when sink is set, to the run log
func NewRunLogger(cfg *config.Config, customOutput io.Writer, sink io.Writer) Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = InfoLevel
	}

	if cfg.Logging.Format == "" {
		cfg.Logging.Format = ConsoleFormat
	}

	level := getLogLevel(cfg.Logging.Level)

	if customOutput != nil {
		output = customOutput
	} else {
		switch cfg.Logging.Format {
		case JSONFormat:
			output = os.Stdout
		default:
			output = newConsoleWriter(os.Stdout, false)
		}
	}

	if sink != nil {
		output = zerolog.MultiLevelWriter(output, newSinkWriter(sink))
	}

	logger := zerolog.
		New(output).
		Level(level).
		With().
		Timestamp().
		Str("version", config.Version).
		Logger()

	return &AppLogger{log: logger}
}

// OpenSink opens (appending) the run log configured in logging.file
func OpenSink(cfg *config.Config) (*Sink, error) {
	if cfg.Logging.File == "" {
		return nil, nil
	}

	path := cfg.Resolve(cfg.Logging.File)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G304 -- path comes from config
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}

	return &Sink{path: path, file: file}, nil
}

// Debug returns a debug level Event for logging debug messages
func (l *AppLogger) Debug() *zerolog.Event {
	return l.log.Debug()
}

// Info returns an info level Event for logging informational messages
func (l *AppLogger) Info() *zerolog.Event {
	return l.log.Info()
}

// Warn returns a warn level Event for logging warning messages
func (l *AppLogger) Warn() *zerolog.Event {
	return l.log.Warn()
}

// Error returns an error level Event for logging error messages
func (l *AppLogger) Error() *zerolog.Event {
	return l.log.Error()
}

// WithComponent creates a new logger with a component name for contextual logging
func (l *AppLogger) WithComponent(name string) Logger {
	return &AppLogger{
		log: l.log.With().Str("component", name).Logger(),
	}
}

// Path returns the run log location
func (s *Sink) Path() string {
	if s == nil {
		return ""
	}

	return s.path
}

// Write appends p to the run log, dropping writes after Close
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return len(p), nil
	}

	return s.file.Write(p)
}

// Close flushes and closes the run log; repeated calls are no-ops
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}

	var err error

	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if syncErr := s.file.Sync(); syncErr != nil {
			err = syncErr
		}

		if closeErr := s.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}

		s.file = nil
	})

	return err
}

// newConsoleWriter creates a console writer with component formatting
func newConsoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: TimeFormat,
		FormatFieldName: func(i interface{}) string {
			if s, ok := i.(string); ok && s == "component" {
				return ""
			}

			return fmt.Sprintf("%s=", i)
		},
		FormatPrepare: func(m map[string]interface{}) error {
			if component, ok := m["component"].(string); ok {
				m["component"] = fmt.Sprintf("[%s]", component)
			}

			return nil
		},
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			"component",
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		},
	}
}

// newSinkWriter formats run log lines as plain text with full timestamps
func newSinkWriter(sink io.Writer) zerolog.ConsoleWriter {
	w := newConsoleWriter(sink, true)
	w.TimeFormat = time.RFC3339

	return w
}

// getLogLevel converts string level to zerolog.Level
func getLogLevel(level string) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case FatalLevel:
		return zerolog.FatalLevel
	case PanicLevel:
		return zerolog.PanicLevel
	case TraceLevel:
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}
