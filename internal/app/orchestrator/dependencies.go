package orchestrator

import (
	"context"
	"os"
	"strings"
	"time"

	"devboot/internal/app/fault"
	"devboot/internal/app/runner"
)

func (r *run) dependencyChecks() []Check {
	if r.opts.SkipInstall {
		r.log.Info().Msg("Dependency install skipped")
		return nil
	}

	if len(r.cfg.Install.Strategies) == 0 {
		return nil
	}

	return []Check{{Name: "install", Mode: Fatal, Run: r.installDependencies}}
}

// installDependencies tries each strategy in order and stops at the first success
func (r *run) installDependencies(ctx context.Context) error {
	strategies := r.cfg.Install.Strategies

	output := ""
	if r.cfg.Install.OutputDir != "" {
		output = r.cfg.Resolve(r.cfg.Install.OutputDir)
	}

	existed := pathExists(output)

	var failures []error

	for i, s := range strategies {
		cmd := r.runner.CommandFor(s.Command())

		policy := r.policy
		if s.Timeout > 0 {
			policy.Timeout = s.Timeout
		}

		r.log.Info().Msgf("Installing dependencies with %s (%d/%d): %s", s.Name, i+1, len(strategies), cmd)

		res, err := r.runner.RunWithRetry(ctx, cmd, runner.Options{Timeout: policy.Timeout}, policy, r.runner.IsCritical(cmd))
		if err == nil {
			r.install = res

			for j, f := range failures {
				r.collector.AddRecoveredWarning(string(Dependencies), strategies[j].Name, fault.FromError(f, fault.CommandExecutionFailed, time.Now()))
			}

			if output != "" && !existed {
				r.stack.Push("remove "+r.cfg.Install.OutputDir, func(context.Context) error {
					return r.platform.RemoveDirectory(output)
				})
			}

			r.log.Info().Msgf("Dependencies installed with %s in %dms", s.Name, res.DurationMs())

			return nil
		}

		if ctx.Err() != nil {
			return err
		}

		failures = append(failures, err)

		r.log.Warn().Err(err).Msgf("Install strategy '%s' failed", s.Name)
		r.clearPartialInstall(cmd)
	}

	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.Name)
	}

	return fault.Wrap(fault.CommandExecutionFailed, failures[len(failures)-1], "all %d install strategies failed", len(strategies)).
		WithDetail("strategies", strings.Join(names, ", "))
}

// clearPartialInstall removes what a failed critical command may have left half written
func (r *run) clearPartialInstall(cmd runner.Command) {
	if !r.runner.IsCritical(cmd) {
		return
	}

	for _, p := range r.runner.CleanupFor(cmd) {
		if err := r.platform.RemoveDirectory(r.cfg.Resolve(p)); err != nil {
			r.log.Warn().Err(err).Msgf("Failed to clear %s", p)
		}
	}
}

func pathExists(path string) bool {
	if path == "" {
		return false
	}

	_, err := os.Stat(path)

	return err == nil
}
