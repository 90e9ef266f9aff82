package logger

import (
	"go.uber.org/fx"

	"devboot/internal/config"
)

// Module provides the application logger, mirrored into the run log when a sink is supplied
var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, sink *Sink) Logger {
		if sink == nil {
			return NewLogger(cfg)
		}

		return NewRunLogger(cfg, nil, sink)
	}),
)
