package orchestrator

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"devboot/internal/config"
)

// walkIgnores are never searched for wildcard cleanup patterns
var walkIgnores = []string{".git/**", config.StateDir + "/**", "node_modules/**"}

func (r *run) cleanupChecks() []Check {
	root, err := r.cfg.ProjectDir()
	if err != nil {
		return []Check{{Name: "cleanup", Mode: Optional, Run: func(context.Context) error { return err }}}
	}

	targets, err := findCleanupTargets(root, r.cfg.Cleanup.Paths)
	if err != nil {
		return []Check{{Name: "cleanup patterns", Mode: Optional, Run: func(context.Context) error { return err }}}
	}

	checks := make([]Check, 0, len(targets))

	for _, rel := range targets {
		abs := filepath.Join(root, rel)

		checks = append(checks, Check{
			Name: rel,
			Mode: Optional,
			Run: func(context.Context) error {
				if err := r.platform.RemoveDirectory(abs); err != nil {
					return err
				}

				r.log.Info().Msgf("Removed %s", rel)

				return nil
			},
		})
	}

	if len(targets) == 0 {
		r.log.Debug().Msg("Nothing to clean")
	}

	return checks
}

// findCleanupTargets resolves patterns to existing paths relative to root; literal patterns are checked directly
func findCleanupTargets(root string, patterns []string) ([]string, error) {
	found := make(map[string]bool)

	var wildcards []string

	for _, p := range patterns {
		if !isLiteral(p) {
			wildcards = append(wildcards, p)
			continue
		}

		if _, err := os.Lstat(filepath.Join(root, filepath.FromSlash(p))); err == nil {
			found[normalizePath(p)] = true
		}
	}

	if len(wildcards) > 0 {
		m, err := newMatcher(wildcards, walkIgnores)
		if err != nil {
			return nil, err
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil || rel == "." {
				return nil
			}

			if d.IsDir() && m.skipDir(rel) {
				return filepath.SkipDir
			}

			if m.match(rel) {
				found[normalizePath(rel)] = true

				if d.IsDir() {
					return filepath.SkipDir
				}
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	targets := make([]string, 0, len(found))
	for t := range found {
		targets = append(targets, t)
	}

	sort.Strings(targets)

	return targets, nil
}
