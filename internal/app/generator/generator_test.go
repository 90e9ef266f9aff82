package generator

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"devboot/internal/app/errors"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

func newTestLogger(ctrl *gomock.Controller) *logger.MockLogger {
	mockLog := logger.NewMockLogger(ctrl)
	mockLog.EXPECT().Info().Return(nil).AnyTimes()

	return mockLog
}

func chdir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	return dir
}

func Test_DefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, "app", opts.ServiceName)
	assert.Equal(t, 5000, opts.Port)
	assert.Equal(t, "npm", opts.PackageManager)
}

func Test_Render(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		error   error
		checkFn func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "Defaults load as configuration",
			opts: DefaultOptions(),
			checkFn: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, map[string]int{"app": 5000}, cfg.Ports.Required)
				assert.Equal(t, "node", cfg.Runtime.Executable)
				assert.Equal(t, "18.0.0", cfg.Runtime.MinVersion)
				require.Len(t, cfg.Install.Strategies, 3)
				assert.Equal(t, 10*time.Minute, cfg.Install.Strategies[2].Timeout)
				assert.Equal(t, "http://localhost:5000/health", cfg.Services.HealthURL)
				assert.Equal(t, "@every 30s", cfg.Monitor.Schedule)
			},
		},
		{
			name: "Custom options",
			opts: Options{ServiceName: "web", Port: 3000, Runtime: "bun", MinVersion: "1.1", PackageManager: "pnpm"},
			checkFn: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, map[string]int{"web": 3000}, cfg.Ports.Required)
				assert.Equal(t, "pnpm", cfg.Install.Strategies[0].Executable)
				assert.Equal(t, "pnpm ci", cfg.Critical[0].Match)
				assert.Equal(t, []string{"web"}, cfg.RequiredServices())
			},
		},
		{
			name:  "Invalid port",
			opts:  Options{ServiceName: "web", Port: 70000, Runtime: "node", MinVersion: "18.0.0", PackageManager: "npm"},
			error: errors.ErrInvalidPort,
		},
		{
			name:  "Invalid runtime floor",
			opts:  Options{ServiceName: "web", Port: 3000, Runtime: "node", MinVersion: "latest", PackageManager: "npm"},
			error: errors.ErrInvalidMinVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := Render(tt.opts)

			if tt.error != nil {
				assert.ErrorIs(t, err, tt.error)
				return
			}

			require.NoError(t, err)

			cfg, err := config.Parse(content)
			require.NoError(t, err)
			tt.checkFn(t, cfg)
		})
	}
}

func Test_Generator_Generate(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := chdir(t)

	gen := NewGenerator(newTestLogger(ctrl))

	err := gen.Generate(DefaultOptions(), false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "version: 1")
	assert.Contains(t, string(content), "app: 5000")
}

func Test_Generator_Generate_FileExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	chdir(t)

	require.NoError(t, os.WriteFile(config.FileName, []byte("existing"), 0600))

	gen := NewGenerator(newTestLogger(ctrl))

	err := gen.Generate(DefaultOptions(), false, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigFileExists)

	err = gen.Generate(DefaultOptions(), true, false)
	require.NoError(t, err)

	content, err := os.ReadFile(config.FileName)
	require.NoError(t, err)
	assert.Contains(t, string(content), "version: 1")
}

func Test_Generator_Generate_DryRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	chdir(t)

	require.NoError(t, os.WriteFile(config.FileName, []byte("existing"), 0600))

	var out bytes.Buffer

	gen := &generator{out: &out, log: newTestLogger(ctrl)}

	err := gen.Generate(DefaultOptions(), false, true)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "health_url: http://localhost:5000/health")

	content, err := os.ReadFile(config.FileName)
	require.NoError(t, err)
	assert.Equal(t, "existing", string(content))
}
