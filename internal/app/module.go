package app

import (
	"go.uber.org/fx"

	"devboot/internal/app/bus"
	"devboot/internal/app/cli"
	"devboot/internal/app/generator"
	"devboot/internal/app/monitor"
	"devboot/internal/app/orchestrator"
	"devboot/internal/app/platform"
	"devboot/internal/app/ports"
	"devboot/internal/app/readiness"
	"devboot/internal/app/recovery"
	"devboot/internal/app/runner"
	"devboot/internal/config/logger"
)

var Module = fx.Options(
	logger.Module,
	bus.Module,
	platform.Module,
	runner.Module,
	ports.Module,
	readiness.Module,
	monitor.Module,
	recovery.Module,
	orchestrator.Module,
	generator.Module,
	cli.Module,
	fx.Provide(NewApp),
	fx.Invoke(Register),
)
