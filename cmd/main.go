package main

import (
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"devboot/internal/app"
	"devboot/internal/app/cli"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// main is the entry point for the application
func main() {
	os.Exit(runApp(os.Args[1:]))
}

// runApp parses args and loads config before handing over to fx; it only returns on errors raised before the app starts
func runApp(args []string) int {
	options, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\nRun '%s --help' for usage\n", config.AppName, err, config.AppName)
		return cli.ExitUsage
	}

	cfg, err := loadConfig(options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		return cli.ExitUsage
	}

	sink, err := openSink(cfg, options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		return cli.ExitFailure
	}

	application := createApp(cfg, options, sink)
	if err := application.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		_ = sink.Close()

		return cli.ExitFailure
	}

	application.Run()

	return cli.ExitOK
}

// loadConfig reads devboot.yaml for commands that act on a project and uses defaults for the rest
func loadConfig(options *cli.Options) (*config.Config, error) {
	switch options.Type {
	case cli.CommandInit, cli.CommandVersion, cli.CommandHelp:
		return config.DefaultConfig(), nil
	default:
		return config.Load()
	}
}

// openSink opens the run log for the run command only
func openSink(cfg *config.Config, options *cli.Options) (*logger.Sink, error) {
	if options.Type != cli.CommandRun {
		return nil, nil
	}

	return logger.OpenSink(cfg)
}

// createApp creates the FX application with the given config
func createApp(cfg *config.Config, options *cli.Options, sink *logger.Sink) *fx.App {
	return fx.New(
		fx.WithLogger(createFxLogger(cfg)),
		fx.Supply(cfg, options),
		fx.Provide(func() *logger.Sink { return sink }),
		app.Module,
	)
}

// createFxLogger returns an FX logger based on the config
func createFxLogger(cfg *config.Config) func() fxevent.Logger {
	return func() fxevent.Logger {
		if cfg.Logging.Level == logger.DebugLevel {
			return &fxevent.ConsoleLogger{W: os.Stdout}
		}

		return fxevent.NopLogger
	}
}
