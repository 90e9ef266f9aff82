package recovery

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"devboot/internal/app/fault"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

const notifyFlushTimeout = 2 * time.Second

// Notifier is told about escalated failures
type Notifier interface {
	Notify(ctx context.Context, record fault.Record, hc Context, dump string) error
	Close()
}

// NewNotifier returns a Sentry notifier when a DSN is configured and a no-op otherwise
func NewNotifier(cfg *config.Config, log logger.Logger) Notifier {
	if cfg.Notify.SentryDSN == "" {
		return noopNotifier{}
	}

	n, err := NewSentryNotifier(sentry.ClientOptions{
		Dsn:         cfg.Notify.SentryDSN,
		Release:     config.AppName + "@" + config.Version,
		Environment: "development",
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialise Sentry, escalations will not be reported")
		return noopNotifier{}
	}

	return n
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, fault.Record, Context, string) error { return nil }
func (noopNotifier) Close()                                                     {}

// SentryNotifier reports escalations as Sentry events
type SentryNotifier struct {
	hub *sentry.Hub
}

// NewSentryNotifier creates a notifier with its own Sentry client
func NewSentryNotifier(opts sentry.ClientOptions) (*SentryNotifier, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, err
	}

	return &SentryNotifier{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Notify captures the record with its code, severity and run context as tags
func (n *SentryNotifier) Notify(ctx context.Context, record fault.Record, hc Context, dump string) error {
	n.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(levelFor(record.Severity))
		scope.SetTag("error_code", record.Code.String())
		scope.SetTag("severity", record.Severity.String())
		scope.SetTag("phase", hc.Phase)

		details := sentry.Context{"check": hc.Check, "service": hc.Service, "dump": dump}
		for k, v := range record.Details {
			details[k] = v
		}

		scope.SetContext("run", details)

		n.hub.CaptureMessage(record.Message)
	})

	return nil
}

// Close flushes buffered events
func (n *SentryNotifier) Close() {
	n.hub.Flush(notifyFlushTimeout)
}

func levelFor(s fault.Severity) sentry.Level {
	switch s {
	case fault.Critical:
		return sentry.LevelFatal
	case fault.High:
		return sentry.LevelError
	case fault.Medium:
		return sentry.LevelWarning
	default:
		return sentry.LevelInfo
	}
}
