package orchestrator

import (
	"context"
	"fmt"
	"syscall"

	"devboot/internal/app/errors"
	"devboot/internal/app/fault"
	"devboot/internal/app/readiness"
	"devboot/internal/app/runner"
	"devboot/internal/config"
)

func (r *run) serviceChecks() []Check {
	s := r.cfg.Services

	var checks []Check

	if !s.Migrate.IsZero() {
		checks = append(checks, Check{Name: "migration", Mode: Degrading, Run: r.runCommand(s.Migrate)})
	}

	if !s.Build.IsZero() {
		checks = append(checks, Check{Name: "build", Mode: Degrading, Run: r.build})
	}

	if !s.Start.IsZero() {
		checks = append(checks, Check{Name: "start", Mode: Degrading, Run: r.startService})
	}

	if s.HealthURL != "" {
		checks = append(checks, Check{Name: "health", Mode: Degrading, Run: r.checkHealth})
	}

	return checks
}

func (r *run) runCommand(c config.Command) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		cmd := r.runner.CommandFor(c)

		policy := r.policy
		if c.Timeout > 0 {
			policy.Timeout = c.Timeout
		}

		_, err := r.runner.RunWithRetry(ctx, cmd, runner.Options{Timeout: policy.Timeout}, policy, r.runner.IsCritical(cmd))

		return err
	}
}

func (r *run) build(ctx context.Context) error {
	output := ""
	if r.cfg.Services.BuildOutput != "" {
		output = r.cfg.Resolve(r.cfg.Services.BuildOutput)
	}

	existed := pathExists(output)

	if err := r.runCommand(r.cfg.Services.Build)(ctx); err != nil {
		return err
	}

	if output != "" && !existed {
		r.stack.Push("remove "+r.cfg.Services.BuildOutput, func(context.Context) error {
			return r.platform.RemoveDirectory(output)
		})
	}

	return nil
}

// startService spawns the long running service and waits for its ready line when a pattern is configured
func (r *run) startService(ctx context.Context) error {
	s := r.cfg.Services

	var checker *readiness.OutputChecker

	if s.ReadyPattern != "" {
		c, err := readiness.NewOutputChecker(s.ReadyPattern, s.HealthTimeout)
		if err != nil {
			return fault.Wrap(fault.SystemConfigInvalid, err, "invalid services.ready_pattern")
		}

		checker = c
	}

	onLine := func(line string) {
		if checker != nil {
			checker.AddLine(line)
		}
	}

	cmd := r.runner.CommandFor(s.Start)

	h, err := r.runner.Spawn(cmd, runner.SpawnOptions{OnOutput: onLine, OnError: onLine})
	if err != nil {
		return err
	}

	r.service = h

	r.stack.Push(fmt.Sprintf("stop '%s'", cmd), func(context.Context) error {
		if !h.Running() {
			return nil
		}

		return r.runner.Terminate(h.ID(), syscall.SIGTERM)
	})

	if checker == nil {
		return nil
	}

	if err := checker.Wait(ctx, h.Done()); err != nil {
		if errors.Is(err, errors.ErrProcessExitedEarly) {
			code, _ := h.ExitCode()
			return fault.Wrap(fault.ProcessCrash, err, "'%s' exited with code %d", cmd, code).WithDetail("pid", fmt.Sprint(h.PID()))
		}

		return fault.Wrap(fault.ProcessTimeout, err, "'%s' did not become ready", cmd)
	}

	r.log.Info().Msgf("Service '%s' is ready (PID: %d)", cmd, h.PID())

	return nil
}

func (r *run) checkHealth(ctx context.Context) error {
	url := r.cfg.Services.HealthURL

	health, err := r.checker.Poll(ctx, url, r.cfg.Services.HealthTimeout, config.HealthInterval)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}

		return fault.Wrap(fault.NetworkUnavailable, err, "health endpoint %s not reachable", url).WithDetail("url", url)
	}

	if health == readiness.Degraded {
		r.collector.AddWarning(string(ServiceStart), "health", fmt.Sprintf("%s reports degraded (503)", url))
		return nil
	}

	r.log.Info().Msgf("Health endpoint %s is %s", url, health)

	return nil
}

func (r *run) monitoringChecks() []Check {
	if !r.cfg.Monitor.Enabled || r.opts.NoMonitor || r.monitor == nil {
		return nil
	}

	return []Check{{Name: "self-check", Mode: Optional, Run: r.startMonitor}}
}

func (r *run) startMonitor(ctx context.Context) error {
	assigned := make(map[string]int)
	for _, res := range r.ports.Reservations() {
		assigned[res.Service] = res.Port
	}

	if err := r.monitor.Start(ctx, assigned); err != nil {
		return err
	}

	r.monitoring = true

	return nil
}
