package orchestrator

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/hashicorp/go-version"

	"devboot/internal/app/errors"
	"devboot/internal/app/fault"
	"devboot/internal/app/ports"
	"devboot/internal/app/runner"
	"devboot/internal/config"
)

var versionPattern = regexp.MustCompile(`\d+(\.\d+)+`)

func (r *run) preflightChecks() []Check {
	var checks []Check

	if r.cfg.Runtime.Executable != "" {
		checks = append(checks, Check{Name: "runtime version", Mode: Fatal, Run: r.checkRuntime})
	}

	checks = append(checks,
		Check{Name: "write permissions", Mode: Fatal, Run: r.checkWritable},
		Check{Name: "directory structure", Mode: Required, Run: r.ensureStateDir},
	)

	for _, service := range r.cfg.RequiredServices() {
		checks = append(checks, Check{
			Name: "port " + service,
			Mode: Required,
			Run:  r.reservePort(service, r.cfg.Ports.Required[service]),
		})
	}

	return checks
}

func (r *run) checkRuntime(ctx context.Context) error {
	rt := r.cfg.Runtime
	cmd := runner.Command{Executable: rt.Executable, Args: rt.VersionArgs}

	res, err := r.runner.RunOnce(ctx, cmd, runner.Options{Timeout: config.VersionCheckTimeout})
	if err != nil {
		return err
	}

	found, err := parseVersion(res.Stdout + "\n" + res.Stderr)
	if err != nil {
		return fault.Wrap(fault.SystemConfigInvalid, err, "cannot determine %s version", rt.Executable)
	}

	if rt.MinVersion == "" {
		r.log.Info().Msgf("Runtime %s %s", rt.Executable, found)
		return nil
	}

	floor, err := version.NewVersion(rt.MinVersion)
	if err != nil {
		return fault.Wrap(fault.SystemConfigInvalid, err, "invalid runtime floor '%s'", rt.MinVersion)
	}

	if found.LessThan(floor) {
		return fault.New(fault.SystemConfigInvalid, "%s %s is older than the required %s", rt.Executable, found, floor).
			WithDetail("found", found.String()).
			WithDetail("required", floor.String())
	}

	r.log.Info().Msgf("Runtime %s %s satisfies >= %s", rt.Executable, found, floor)

	return nil
}

func parseVersion(output string) (*version.Version, error) {
	raw := versionPattern.FindString(output)
	if raw == "" {
		return nil, errors.ErrVersionUnparsable
	}

	v, err := version.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrVersionUnparsable, err)
	}

	return v, nil
}

func (r *run) checkWritable(_ context.Context) error {
	dir, err := r.cfg.ProjectDir()
	if err != nil {
		return fault.Wrap(fault.SystemInitFailed, err, "cannot resolve project directory")
	}

	f, err := os.CreateTemp(dir, ".devboot-write-*")
	if err != nil {
		return fault.Wrap(fault.CommandPermissionDenied, err, "project directory %s is not writable", dir).
			WithDetail("path", dir)
	}

	name := f.Name()
	f.Close()

	return os.Remove(name)
}

func (r *run) ensureStateDir(_ context.Context) error {
	path := r.cfg.Resolve(config.StateDir)

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fault.Wrap(fault.CommandPermissionDenied, err, "cannot create %s", config.StateDir).
			WithDetail("path", path)
	}

	r.stack.Push("remove "+config.StateDir, func(context.Context) error {
		return r.platform.RemoveDirectory(path)
	})

	return nil
}

func (r *run) reservePort(service string, port int) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		res, err := r.ports.Reserve(ctx, service, port, ports.ReserveOptions{
			AutoKill:   r.cfg.Ports.AutoKill,
			MaxRetries: r.cfg.Ports.MaxRetries,
			RetryDelay: r.cfg.Ports.RetryDelay,
			Strict:     !r.cfg.Ports.AllowFallback,
		})
		if err != nil {
			return err
		}

		r.collector.SetPort(service, res.Port)

		if res.Freed != nil {
			r.collector.AddFix("Port %d freed", res.Port)
		}

		if res.Fallback {
			r.collector.AddFix("Service %s moved from port %d to %d", service, port, res.Port)
		}

		r.stack.Push(fmt.Sprintf("release port %d (%s)", res.Port, service), func(context.Context) error {
			r.ports.Release(service)
			return nil
		})

		return nil
	}
}
