//go:build !windows

package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"devboot/internal/app/bus"
	"devboot/internal/app/runner"
	"devboot/internal/config"
)

func Test_Run_InstallFallbackWithRealCommands(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := newTestConfig(t)
	cfg.Retry.MaxAttempts = 1
	cfg.Install = config.Install{
		OutputDir: "node_modules",
		Strategies: []config.Strategy{
			{Name: "fast install", Executable: "sh", Args: []string{"-c", "echo broken >&2; exit 1"}},
			{Name: "standard install", Executable: "sh", Args: []string{"-c", "mkdir -p node_modules && echo ok"}},
		},
	}

	p := newTestPlatform(ctrl)
	log := newTestLogger(ctrl)
	r := runner.NewRunner(cfg, p, bus.NoOp(), log)
	defer r.Close()

	o := newTestOrchestrator(ctrl, cfg, deps{platform: p, runner: r})

	result := o.Run(context.Background(), Options{})

	require.NoError(t, result.Err)
	assert.Equal(t, Completed, result.Phase)

	require.NotNil(t, result.Install)
	assert.Contains(t, result.Install.Stdout, "ok")
	assert.DirExists(t, filepath.Join(cfg.Project.Dir, "node_modules"))

	require.Len(t, result.Report.Warnings, 1)
	assert.Equal(t, "fast install", result.Report.Warnings[0].Check)
	assert.Empty(t, result.Report.Errors)
}

func Test_Run_StartServiceWaitsForReadyLine(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		wantErrs int
	}{
		{name: "ready", script: "echo booting; echo 'listening on 5000'; sleep 5"},
		{name: "exits early", script: "echo booting; exit 2", wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cfg := newTestConfig(t)
			cfg.Services.Start = config.Command{Executable: "sh", Args: []string{"-c", tt.script}}
			cfg.Services.ReadyPattern = `listening on \d+`
			cfg.Services.HealthTimeout = 5 * time.Second

			p := newTestPlatform(ctrl)
			r := runner.NewRunner(cfg, p, bus.NoOp(), newTestLogger(ctrl))
			defer r.Close()

			o := newTestOrchestrator(ctrl, cfg, deps{platform: p, runner: r})

			result := o.Run(context.Background(), Options{})

			require.NoError(t, result.Err)
			require.NotNil(t, result.Service)
			assert.Len(t, result.Report.Errors, tt.wantErrs)

			if tt.wantErrs == 0 {
				assert.True(t, result.Service.Running())
				assert.True(t, result.Succeeded())
			}
		})
	}
}

func Test_checkWritable_ReadOnlyDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	cfg := newTestConfig(t)
	require.NoError(t, os.Chmod(cfg.Project.Dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(cfg.Project.Dir, 0o755) })

	r := &run{cfg: cfg}

	err := r.checkWritable(context.Background())

	assert.Error(t, err)
}
