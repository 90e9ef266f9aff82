package platform

import (
	"go.uber.org/fx"

	"devboot/internal/config/logger"
)

// Module provides the fx dependency injection options for the platform package
var Module = fx.Options(
	fx.Provide(func(log logger.Logger) Platform {
		return New(log.WithComponent("PLATFORM"))
	}),
)
