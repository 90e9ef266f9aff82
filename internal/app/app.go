package app

import (
	"context"
	"os"

	"go.uber.org/fx"

	"devboot/internal/app/cli"
	"devboot/internal/app/recovery"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// App represents the main application container
type App struct {
	cli      cli.CLI
	cfg      *config.Config
	notifier recovery.Notifier
	sink     *logger.Sink
	log      logger.Logger
	done     chan struct{}
	exit     func(code int)
}

// NewApp creates a new application instance with its dependencies
func NewApp(c cli.CLI, cfg *config.Config, notifier recovery.Notifier, sink *logger.Sink, log logger.Logger) *App {
	return &App{
		cli:      c,
		cfg:      cfg,
		notifier: notifier,
		sink:     sink,
		log:      log,
		done:     make(chan struct{}),
		exit:     os.Exit,
	}
}

// Run executes the command, releases the run log and notifier, then exits with the command's code
func (a *App) Run() {
	defer close(a.done)

	exitCode := a.execute()
	a.close()

	a.exit(exitCode)
}

// execute runs the CLI under the process-wide panic guard
func (a *App) execute() int {
	defer recovery.Guard(a.cfg.Resolve(a.cfg.Report.EmergencyDir), a.notifier, a.log)

	exitCode, err := a.cli.Execute()
	if err != nil {
		if exitCode == cli.ExitInterrupted {
			a.log.Warn().Err(err).Msg("Run interrupted")
		} else {
			a.log.Error().Err(err).Msgf("Command failed with exit code %d", exitCode)
		}
	}

	return exitCode
}

func (a *App) close() {
	a.notifier.Close()

	if err := a.sink.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close run log")
	}
}

// Register registers the application's lifecycle hooks with fx
func Register(lifecycle fx.Lifecycle, app *App) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go app.Run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-app.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
