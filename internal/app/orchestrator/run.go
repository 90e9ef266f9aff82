package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	"devboot/internal/app/bus"
	"devboot/internal/app/errors"
	"devboot/internal/app/fault"
	"devboot/internal/app/monitor"
	"devboot/internal/app/platform"
	"devboot/internal/app/ports"
	"devboot/internal/app/readiness"
	"devboot/internal/app/recovery"
	"devboot/internal/app/report"
	"devboot/internal/app/runner"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// run is the state of one orchestrated run; nothing in it outlives the run
type run struct {
	cfg      *config.Config
	opts     Options
	platform platform.Platform
	runner   runner.Runner
	checker  readiness.Checker
	monitor  monitor.Monitor
	bus      bus.Bus
	log      logger.Logger

	ports     ports.Manager
	stack     *recovery.Stack
	handler   *recovery.Handler
	collector *report.Collector
	fsm       *fsm.FSM
	policy    runner.Policy
	sleep     func(ctx context.Context, d time.Duration) error

	install     *runner.Result
	service     *runner.Handle
	monitoring  bool
	failedPhase Phase
}

func (r *run) phase() Phase {
	return Phase(r.fsm.Current())
}

func (r *run) execute(ctx context.Context) error {
	for _, p := range Sequence {
		if ctx.Err() != nil {
			return r.interrupted(ctx)
		}

		if err := r.transition(ctx, eventFor(p)); err != nil {
			return fmt.Errorf("phase transition to %s: %w", p, err)
		}

		if err := r.runPhase(ctx, p, r.checksFor(p)); err != nil {
			return err
		}
	}

	return r.transition(ctx, eventComplete)
}

// transition moves the phase machine; it is bookkeeping only and ignores cancellation of ctx
func (r *run) transition(ctx context.Context, event string) error {
	return r.fsm.Event(context.WithoutCancel(ctx), event)
}

func (r *run) checksFor(p Phase) []Check {
	switch p {
	case Preflight:
		return r.preflightChecks()
	case Cleanup:
		return r.cleanupChecks()
	case Dependencies:
		return r.dependencyChecks()
	case Validation:
		return r.validationChecks()
	case ServiceStart:
		return r.serviceChecks()
	case Monitoring:
		return r.monitoringChecks()
	default:
		return nil
	}
}

func (r *run) runPhase(ctx context.Context, p Phase, checks []Check) error {
	r.log.Debug().Msgf("Running %d checks in %s", len(checks), p)

	for _, c := range checks {
		if err := r.runCheck(ctx, p, c); err != nil {
			return err
		}
	}

	return nil
}

// runCheck runs c until it passes, its failure is tolerated, or recovery gives up
func (r *run) runCheck(ctx context.Context, p Phase, c Check) error {
	var recovered []fault.Record

	hc := recovery.Context{Phase: string(p), Check: c.Name}

	for {
		err := c.Run(ctx)
		if err == nil {
			for _, rec := range recovered {
				r.collector.AddRecoveredWarning(string(p), c.Name, rec)
			}

			return nil
		}

		if ctx.Err() != nil {
			return r.interrupted(ctx)
		}

		r.bus.Publish(bus.Message{
			Type: bus.EventCheckFailed,
			Data: bus.CheckFailed{Phase: string(p), Check: c.Name, Error: err},
		})

		switch c.Mode {
		case Optional:
			r.log.Warn().Err(err).Msgf("%s: %s failed, continuing", p, c.Name)
			r.collector.AddWarning(string(p), c.Name, err.Error())

			return nil
		case Degrading:
			r.log.Error().Err(err).Msgf("%s: %s failed, run degraded", p, c.Name)
			r.collector.AddError(fault.FromError(err, fault.CommandExecutionFailed, time.Now()))

			return nil
		case Fatal:
			outcome := r.handler.Escalate(ctx, err, hc)
			r.collector.AddError(outcome.Record)

			return r.abort(ctx, p, c, err)
		}

		outcome := r.handler.Handle(ctx, err, hc)

		switch {
		case !outcome.Success:
			r.collector.AddError(outcome.Record)
			return r.abort(ctx, p, c, err)
		case outcome.Strategy == recovery.Ignore:
			r.collector.AddRecoveredWarning(string(p), c.Name, outcome.Record)
			return nil
		}

		recovered = append(recovered, outcome.Record)

		if err := r.sleep(ctx, r.policy.Delay(outcome.Attempt)); err != nil {
			return r.interrupted(ctx)
		}

		r.log.Info().Msgf("%s: retrying %s (%s, attempt %d)", p, c.Name, outcome.Strategy, outcome.Attempt+1)
	}
}

func (r *run) abort(ctx context.Context, p Phase, c Check, cause error) error {
	r.failedPhase = p

	if err := r.transition(ctx, eventAbort); err != nil {
		r.log.Error().Err(err).Msg("Failed to abort phase machine")
	}

	return fmt.Errorf("%w: %s/%s: %w", errors.ErrRunAborted, p, c.Name, cause)
}

func (r *run) interrupted(ctx context.Context) error {
	r.log.Warn().Msgf("Run interrupted during %s", r.phase())

	return fmt.Errorf("%w: %w", errors.ErrRunInterrupted, context.Cause(ctx))
}

// finish writes the report on every path
func (r *run) finish(runErr error) *Result {
	interrupted := errors.Is(runErr, errors.ErrRunInterrupted)
	final := r.phase()

	reservations := r.ports.Reservations()
	assigned := make(map[string]int, len(reservations))

	for _, res := range reservations {
		assigned[res.Service] = res.Port
	}

	rep := r.collector.Build(string(final), r.platform.SystemInfo(), interrupted)
	rep.FailedPhase = string(r.failedPhase)
	path := r.cfg.Resolve(r.cfg.Report.Path)

	if err := report.Write(path, rep); err != nil {
		r.log.Error().Err(err).Msgf("Failed to write diagnostic report to %s", path)
	} else {
		r.log.Info().Msgf("Diagnostic report written to %s", path)
	}

	return &Result{
		Phase:      final,
		Report:     rep,
		ReportPath: path,
		Ports:      assigned,
		Install:    r.install,
		Service:    r.service,
		Monitoring: r.monitoring,
		Err:        runErr,
	}
}
