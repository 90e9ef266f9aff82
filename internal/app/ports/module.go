package ports

import (
	"go.uber.org/fx"

	"devboot/internal/app/bus"
	"devboot/internal/app/platform"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// Module provides a port manager for commands that inspect ports outside a run
var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, p platform.Platform, b bus.Bus, log logger.Logger) Manager {
		return NewManager(cfg.Ports.WellKnown, p, b, log.WithComponent("PORTS"))
	}),
)
