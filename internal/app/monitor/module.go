package monitor

import (
	"go.uber.org/fx"

	"devboot/internal/app/bus"
	"devboot/internal/app/platform"
	"devboot/internal/app/runner"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// Module provides the monitor and its dependencies
var Module = fx.Options(
	fx.Provide(
		NewSampler,
		func(cfg *config.Config, p platform.Platform, r runner.Runner, s Sampler, b bus.Bus, log logger.Logger) Monitor {
			return NewMonitor(cfg, p, r, s, b, log.WithComponent("MONITOR"))
		},
	),
)
