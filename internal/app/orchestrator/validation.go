package orchestrator

import (
	"context"
	"os"
	"os/exec"

	"devboot/internal/app/fault"
)

func (r *run) validationChecks() []Check {
	v := r.cfg.Validation

	critical := make(map[string]bool, len(v.Critical))
	for _, c := range v.Critical {
		critical[c] = true
	}

	mode := func(name string) Mode {
		if critical[name] {
			return Degrading
		}

		return Optional
	}

	checks := make([]Check, 0, len(v.RequiredFiles)+len(v.RequiredDirs)+len(v.Executables))

	for _, f := range v.RequiredFiles {
		checks = append(checks, Check{Name: f, Mode: mode(f), Run: r.requirePath(f, false)})
	}

	for _, d := range v.RequiredDirs {
		checks = append(checks, Check{Name: d, Mode: mode(d), Run: r.requirePath(d, true)})
	}

	for _, e := range v.Executables {
		checks = append(checks, Check{Name: e, Mode: mode(e), Run: requireExecutable(e)})
	}

	return checks
}

func (r *run) requirePath(rel string, dir bool) func(ctx context.Context) error {
	return func(context.Context) error {
		info, err := os.Stat(r.cfg.Resolve(rel))
		if err != nil {
			return fault.Wrap(fault.DataValidationFailed, err, "required path %s is missing", rel).
				WithDetail("path", rel)
		}

		if dir && !info.IsDir() {
			return fault.New(fault.DataValidationFailed, "%s is not a directory", rel).WithDetail("path", rel)
		}

		if !dir && info.IsDir() {
			return fault.New(fault.DataValidationFailed, "%s is a directory", rel).WithDetail("path", rel)
		}

		return nil
	}
}

func requireExecutable(name string) func(ctx context.Context) error {
	return func(context.Context) error {
		if _, err := exec.LookPath(name); err != nil {
			return fault.Wrap(fault.CommandNotFound, err, "executable %s not found", name).WithDetail("executable", name)
		}

		return nil
	}
}
