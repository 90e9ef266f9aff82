package cli

import (
	"go.uber.org/fx"

	"devboot/internal/app/generator"
	"devboot/internal/app/monitor"
	"devboot/internal/app/orchestrator"
	"devboot/internal/app/ports"
	"devboot/internal/app/runner"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// Module provides the fx dependency injection options for the cli package
var Module = fx.Options(
	fx.Provide(func(
		options *Options,
		cfg *config.Config,
		o orchestrator.Orchestrator,
		pm ports.Manager,
		r runner.Runner,
		m monitor.Monitor,
		g generator.Generator,
		log logger.Logger,
	) CLI {
		return NewCLI(options, cfg, o, pm, r, m, g, log.WithComponent("CLI"))
	}),
)
