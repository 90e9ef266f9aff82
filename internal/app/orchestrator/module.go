package orchestrator

import (
	"go.uber.org/fx"

	"devboot/internal/app/bus"
	"devboot/internal/app/monitor"
	"devboot/internal/app/platform"
	"devboot/internal/app/readiness"
	"devboot/internal/app/recovery"
	"devboot/internal/app/runner"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// Module provides the phase orchestrator
var Module = fx.Options(
	fx.Provide(func(
		cfg *config.Config,
		p platform.Platform,
		r runner.Runner,
		checker readiness.Checker,
		m monitor.Monitor,
		notifier recovery.Notifier,
		b bus.Bus,
		log logger.Logger,
	) Orchestrator {
		return NewOrchestrator(cfg, p, r, checker, m, notifier, b, log.WithComponent("ORCHESTRATOR"))
	}),
)
