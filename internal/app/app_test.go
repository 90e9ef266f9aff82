package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/mock/gomock"

	"devboot/internal/app/cli"
	"devboot/internal/app/errors"
	"devboot/internal/app/fault"
	"devboot/internal/app/recovery"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// mockLifecycle implements fx.Lifecycle for testing
type mockLifecycle struct {
	onAppend func(fx.Hook)
}

func (m *mockLifecycle) Append(hook fx.Hook) {
	if m.onAppend != nil {
		m.onAppend(hook)
	}
}

// fakeNotifier records escalations instead of sending them
type fakeNotifier struct {
	notified []fault.Record
	closed   bool
}

func (n *fakeNotifier) Notify(_ context.Context, record fault.Record, _ recovery.Context, _ string) error {
	n.notified = append(n.notified, record)
	return nil
}

func (n *fakeNotifier) Close() {
	n.closed = true
}

func newTestLogger(ctrl *gomock.Controller) logger.Logger {
	mockLog := logger.NewMockLogger(ctrl)
	mockLog.EXPECT().Debug().Return(nil).AnyTimes()
	mockLog.EXPECT().Info().Return(nil).AnyTimes()
	mockLog.EXPECT().Warn().Return(nil).AnyTimes()
	mockLog.EXPECT().Error().Return(nil).AnyTimes()
	mockLog.EXPECT().WithComponent(gomock.Any()).Return(mockLog).AnyTimes()

	return mockLog
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Project.Dir = t.TempDir()

	return cfg
}

func Test_NewApp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCLI := cli.NewMockCLI(ctrl)
	mockLogger := logger.NewMockLogger(ctrl)
	cfg := config.DefaultConfig()

	application := NewApp(mockCLI, cfg, &fakeNotifier{}, nil, mockLogger)

	assert.NotNil(t, application)
	assert.Equal(t, mockCLI, application.cli)
	assert.Equal(t, cfg, application.cfg)
	assert.Equal(t, mockLogger, application.log)
	assert.NotNil(t, application.exit)
}

func Test_execute(t *testing.T) {
	tests := []struct {
		name         string
		before       func(m *cli.MockCLI)
		expectedCode int
	}{
		{
			name: "Success",
			before: func(m *cli.MockCLI) {
				m.EXPECT().Execute().Return(cli.ExitOK, nil)
			},
			expectedCode: cli.ExitOK,
		},
		{
			name: "Failure",
			before: func(m *cli.MockCLI) {
				m.EXPECT().Execute().Return(cli.ExitFailure, errors.ErrRunAborted)
			},
			expectedCode: cli.ExitFailure,
		},
		{
			name: "Interrupted",
			before: func(m *cli.MockCLI) {
				m.EXPECT().Execute().Return(cli.ExitInterrupted, errors.ErrRunInterrupted)
			},
			expectedCode: cli.ExitInterrupted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockCLI := cli.NewMockCLI(ctrl)
			tt.before(mockCLI)

			app := NewApp(mockCLI, newTestConfig(t), &fakeNotifier{}, nil, newTestLogger(ctrl))

			assert.Equal(t, tt.expectedCode, app.execute())
		})
	}
}

func Test_execute_PanicWritesDump(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := newTestConfig(t)
	notifier := &fakeNotifier{}

	mockCLI := cli.NewMockCLI(ctrl)
	mockCLI.EXPECT().Execute().DoAndReturn(func() (int, error) {
		panic("boom")
	})

	app := NewApp(mockCLI, cfg, notifier, nil, newTestLogger(ctrl))

	assert.PanicsWithValue(t, "boom", func() { app.execute() })

	entries, err := os.ReadDir(cfg.Resolve(cfg.Report.EmergencyDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	dump, err := recovery.ReadDump(filepath.Join(cfg.Resolve(cfg.Report.EmergencyDir), entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, fault.SystemInitFailed, dump.Record.Code)
	assert.Len(t, notifier.notified, 1)
	assert.True(t, notifier.closed)
}

func Test_App_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := newTestConfig(t)
	cfg.Logging.File = "logs/run.log"

	sink, err := logger.OpenSink(cfg)
	require.NoError(t, err)

	notifier := &fakeNotifier{}

	mockCLI := cli.NewMockCLI(ctrl)
	mockCLI.EXPECT().Execute().Return(cli.ExitFailure, errors.ErrRunAborted)

	app := NewApp(mockCLI, cfg, notifier, sink, newTestLogger(ctrl))

	exitCode := -1
	app.exit = func(code int) { exitCode = code }

	app.Run()

	assert.Equal(t, cli.ExitFailure, exitCode)
	assert.True(t, notifier.closed)

	select {
	case <-app.done:
	default:
		t.Fatal("done channel not closed")
	}

	n, err := sink.Write([]byte("after close\n"))
	assert.NoError(t, err)
	assert.Equal(t, len("after close\n"), n)
	assert.FileExists(t, sink.Path())
}

func Test_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	app := NewApp(cli.NewMockCLI(ctrl), newTestConfig(t), &fakeNotifier{}, nil, newTestLogger(ctrl))

	var registered bool
	var capturedHook fx.Hook

	testLifecycle := &mockLifecycle{
		onAppend: func(hook fx.Hook) {
			registered = true
			capturedHook = hook
		},
	}

	Register(testLifecycle, app)

	assert.True(t, registered)
	assert.NotNil(t, capturedHook.OnStart)
	assert.NotNil(t, capturedHook.OnStop)
}

func Test_Register_Hooks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCLI := cli.NewMockCLI(ctrl)
	mockCLI.EXPECT().Execute().Return(cli.ExitOK, nil)

	app := NewApp(mockCLI, newTestConfig(t), &fakeNotifier{}, nil, newTestLogger(ctrl))

	exited := make(chan int, 1)
	app.exit = func(code int) { exited <- code }

	var capturedHook fx.Hook

	Register(&mockLifecycle{onAppend: func(hook fx.Hook) { capturedHook = hook }}, app)

	require.NoError(t, capturedHook.OnStart(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, capturedHook.OnStop(ctx))
	assert.Equal(t, cli.ExitOK, <-exited)
}

func Test_Register_OnStopTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	app := NewApp(cli.NewMockCLI(ctrl), newTestConfig(t), &fakeNotifier{}, nil, newTestLogger(ctrl))

	var capturedHook fx.Hook

	Register(&mockLifecycle{onAppend: func(hook fx.Hook) { capturedHook = hook }}, app)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, capturedHook.OnStop(ctx), context.Canceled)
}
