package runner

import (
	"go.uber.org/fx"

	"devboot/internal/app/bus"
	"devboot/internal/app/platform"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// Module provides the command runner
var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, p platform.Platform, b bus.Bus, log logger.Logger) Runner {
		return NewRunner(cfg, p, b, log.WithComponent("RUNNER"))
	}),
)
