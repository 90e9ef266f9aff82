package cli

import (
	"github.com/spf13/cobra"

	"devboot/internal/app/generator"
	"devboot/internal/config"
)

// CommandType represents the type of CLI command
type CommandType int

// Command type values
const (
	CommandRun CommandType = iota
	CommandPorts
	CommandReport
	CommandInit
	CommandVersion
	CommandHelp
)

// Options contains the parsed command-line arguments
type Options struct {
	Type        CommandType
	SkipInstall bool
	NoMonitor   bool
	Force       bool
	DryRun      bool
	Init        generator.Options
}

// rootFlags holds flag values for the root command
type rootFlags struct {
	version bool
}

// Parse parses command-line args and returns a Options struct
func Parse(args []string) (*Options, error) {
	result := &Options{
		Type: CommandRun,
		Init: generator.DefaultOptions(),
	}

	var flags rootFlags

	root := buildRootCommand(result, &flags)
	root.AddCommand(
		buildRunCommand(result),
		buildPortsCommand(result),
		buildReportCommand(result),
		buildInitCommand(result),
		buildVersionCommand(result),
	)

	if args == nil {
		args = []string{}
	}

	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		return nil, err
	}

	if flags.version {
		result.Type = CommandVersion
	}

	return result, nil
}

// buildRootCommand creates the root cobra command, which runs the bootstrap when no subcommand is given
func buildRootCommand(result *Options, flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Bootstrap and recover a local development environment",
		Long: `devboot prepares a local development environment: it checks the runtime,
frees the required ports, installs dependencies with fallbacks, validates the
result and starts the service, recovering from failures along the way.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandRun
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true

	bindRunFlags(cmd, result)
	cmd.Flags().BoolVarP(&flags.version, "version", "v", false, "Show version information")

	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		result.Type = CommandHelp
	})

	return cmd
}

// buildRunCommand creates the run subcommand
func buildRunCommand(result *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Aliases: []string{"r"},
		Short:   "Run every bootstrap phase",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandRun
		},
	}

	bindRunFlags(cmd, result)

	return cmd
}

func bindRunFlags(cmd *cobra.Command, result *Options) {
	cmd.Flags().BoolVar(&result.SkipInstall, "skip-install", false, "Skip cleanup and dependency installation")
	cmd.Flags().BoolVar(&result.NoMonitor, "no-monitor", false, "Do not start the self-check loop after a successful run")
}

// buildPortsCommand creates the ports subcommand
func buildPortsCommand(result *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ports",
		Aliases: []string{"p"},
		Short:   "Show which service ports are free and who holds the others",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandPorts
		},
	}

	return cmd
}

// buildReportCommand creates the report subcommand
func buildReportCommand(result *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the diagnostic report of the last run",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandReport
		},
	}

	return cmd
}

// buildInitCommand creates the init subcommand
func buildInitCommand(result *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "Generate devboot.yaml template",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandInit
		},
	}

	cmd.Flags().BoolVar(&result.Force, "force", false, "Overwrite an existing devboot.yaml")
	cmd.Flags().BoolVar(&result.DryRun, "dry-run", false, "Print the template instead of writing it")
	cmd.Flags().StringVar(&result.Init.ServiceName, "service", result.Init.ServiceName, "Name of the service port")
	cmd.Flags().IntVar(&result.Init.Port, "port", result.Init.Port, "Port the service listens on")
	cmd.Flags().StringVar(&result.Init.Runtime, "runtime", result.Init.Runtime, "Runtime executable to version-check")
	cmd.Flags().StringVar(&result.Init.MinVersion, "min-version", result.Init.MinVersion, "Minimum runtime version")
	cmd.Flags().StringVar(&result.Init.PackageManager, "package-manager", result.Init.PackageManager, "Package manager used by the install strategies")

	return cmd
}

// buildVersionCommand creates the version subcommand
func buildVersionCommand(result *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandVersion
		},
	}

	return cmd
}
