package recovery

import (
	"go.uber.org/fx"

	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// Module provides the escalation notifier; handlers and stacks are created per run
var Module = fx.Module("recovery",
	fx.Provide(func(cfg *config.Config, log logger.Logger) Notifier {
		return NewNotifier(cfg, log.WithComponent("RECOVERY"))
	}),
)
