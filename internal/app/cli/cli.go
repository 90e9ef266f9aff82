package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"devboot/internal/app/errors"
	"devboot/internal/app/generator"
	"devboot/internal/app/monitor"
	"devboot/internal/app/orchestrator"
	"devboot/internal/app/ports"
	"devboot/internal/app/report"
	"devboot/internal/app/runner"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// Process exit codes
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 2
	ExitUsage       = 3
)

// CLI executes the parsed command
//
//go:generate mockgen -source=cli.go -destination=cli_mock.go -package=cli
type CLI interface {
	Execute() (int, error)
}

// Option configures a cli
type Option func(*cli)

// WithOutput replaces stdout as the destination of rendered output
func WithOutput(w io.Writer) Option {
	return func(c *cli) {
		c.out = w
	}
}

// WithSignalContext replaces the context cancelled on SIGINT and SIGTERM
func WithSignalContext(fn func(ctx context.Context) (context.Context, context.CancelFunc)) Option {
	return func(c *cli) {
		c.signalContext = fn
	}
}

// cli represents the command-line interface for the application
type cli struct {
	options       *Options
	cfg           *config.Config
	orchestrator  orchestrator.Orchestrator
	ports         ports.Manager
	runner        runner.Runner
	monitor       monitor.Monitor
	generator     generator.Generator
	log           logger.Logger
	out           io.Writer
	signalContext func(ctx context.Context) (context.Context, context.CancelFunc)
}

// NewCLI creates a new cli instance
func NewCLI(
	options *Options,
	cfg *config.Config,
	o orchestrator.Orchestrator,
	pm ports.Manager,
	r runner.Runner,
	m monitor.Monitor,
	g generator.Generator,
	log logger.Logger,
	opts ...Option,
) CLI {
	c := &cli{
		options:       options,
		cfg:           cfg,
		orchestrator:  o,
		ports:         pm,
		runner:        r,
		monitor:       m,
		generator:     g,
		log:           log,
		out:           os.Stdout,
		signalContext: notifyContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Execute runs the parsed command and returns the process exit code
func (c *cli) Execute() (int, error) {
	switch c.options.Type {
	case CommandPorts:
		return c.handlePorts()
	case CommandReport:
		return c.handleReport()
	case CommandInit:
		return c.handleInit()
	case CommandVersion:
		return c.handleVersion()
	case CommandHelp:
		return c.handleHelp()
	case CommandRun:
		return c.handleRun()
	default:
		return ExitUsage, errors.ErrUnknownCommand
	}
}

// handleReport prints the report left by the last run
func (c *cli) handleReport() (int, error) {
	path := c.cfg.Resolve(c.cfg.Report.Path)

	rep, err := report.Read(path)
	if err != nil {
		if errors.Is(err, errors.ErrReportNotFound) {
			fmt.Fprintln(c.out, warningText.Render("No diagnostic report yet, run "+config.AppName+" first"))
		} else {
			fmt.Fprintln(c.out, errorText.Render("Failed to read report: "+err.Error()))
		}

		return ExitFailure, err
	}

	fmt.Fprint(c.out, renderReport(rep, path, terminalWidth()))

	return ExitOK, nil
}

// handleInit writes or prints devboot.yaml
func (c *cli) handleInit() (int, error) {
	c.log.Debug().Msgf("Generating %s (force=%t, dry-run=%t)", config.FileName, c.options.Force, c.options.DryRun)

	err := c.generator.Generate(c.options.Init, c.options.Force, c.options.DryRun)
	switch {
	case err == nil:
		if !c.options.DryRun {
			fmt.Fprintln(c.out, successText.Render("Generated "+config.FileName))
		}

		return ExitOK, nil
	case errors.Is(err, errors.ErrInvalidConfig):
		fmt.Fprintln(c.out, errorText.Render(err.Error()))
		return ExitUsage, err
	default:
		fmt.Fprintln(c.out, errorText.Render(err.Error()))
		return ExitFailure, err
	}
}

// handleVersion displays version information
func (c *cli) handleVersion() (int, error) {
	c.log.Debug().Msg("Displaying version information")
	fmt.Fprintln(c.out, RenderTitle())

	return ExitOK, nil
}

// handleHelp displays help information
func (c *cli) handleHelp() (int, error) {
	c.log.Debug().Msg("Displaying help information")
	fmt.Fprint(c.out, renderHelp())

	return ExitOK, nil
}

func notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
