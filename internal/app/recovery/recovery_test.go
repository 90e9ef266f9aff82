package recovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"devboot/internal/app/bus"
	"devboot/internal/app/fault"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

func newTestLogger(ctrl *gomock.Controller) logger.Logger {
	mockLog := logger.NewMockLogger(ctrl)
	mockLog.EXPECT().Debug().Return(nil).AnyTimes()
	mockLog.EXPECT().Info().Return(nil).AnyTimes()
	mockLog.EXPECT().Warn().Return(nil).AnyTimes()
	mockLog.EXPECT().Error().Return(nil).AnyTimes()
	mockLog.EXPECT().WithComponent(gomock.Any()).Return(mockLog).AnyTimes()

	return mockLog
}

func newTestHandler(t *testing.T, ctrl *gomock.Controller, b bus.Bus, notifier Notifier) (*Handler, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Project.Dir = dir

	log := newTestLogger(ctrl)

	return NewHandler(cfg, NewStack(log), b, notifier, log), filepath.Join(dir, config.DefaultEmergencyDir)
}

type recordingNotifier struct {
	records []fault.Record
	dumps   []string
}

func (n *recordingNotifier) Notify(_ context.Context, record fault.Record, _ Context, dump string) error {
	n.records = append(n.records, record)
	n.dumps = append(n.dumps, dump)

	return nil
}

func (n *recordingNotifier) Close() {}

func Test_Select(t *testing.T) {
	tests := []struct {
		name     string
		code     fault.Code
		attempts int
		pending  int
		want     Strategy
	}{
		{name: "Critical with rollback pending", code: fault.ProcessCrash, attempts: 1, pending: 2, want: Rollback},
		{name: "Critical without rollback", code: fault.SystemConfigInvalid, attempts: 1, want: Restart},
		{name: "High port failure is retried", code: fault.PortUnavailable, attempts: 2, want: Retry},
		{name: "High non-port failure rolls back", code: fault.CommandNotFound, attempts: 1, want: Rollback},
		{name: "Medium is retried", code: fault.ProcessTimeout, attempts: 3, want: Retry},
		{name: "Low is ignored", code: fault.DataValidationFailed, attempts: 1, want: Ignore},
		{name: "Fourth occurrence escalates low", code: fault.DataValidationFailed, attempts: 4, want: Escalate},
		{name: "Fourth occurrence escalates critical", code: fault.DataCorruption, attempts: 4, pending: 1, want: Escalate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.code, tt.attempts, tt.pending))
		})
	}
}

func Test_Select_FourthOccurrenceAlwaysEscalates(t *testing.T) {
	for _, code := range fault.Codes() {
		for pending := 0; pending < 2; pending++ {
			assert.Equal(t, Escalate, Select(code, 4, pending), code.String())
			assert.NotEqual(t, Escalate, Select(code, 3, pending), code.String())
		}
	}
}

func Test_Stack_ExecuteIsLIFO(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stack := NewStack(newTestLogger(ctrl))

	var order []string

	push := func(name string, err error) {
		stack.Push(name, func(context.Context) error {
			order = append(order, name)
			return err
		})
	}

	push("A", nil)
	push("B", errors.New("boom"))
	push("C", nil)

	require.Equal(t, 3, stack.Len())

	result := stack.Execute(context.Background())

	assert.Equal(t, []string{"C", "B", "A"}, order)
	assert.Equal(t, 0, stack.Len())
	assert.Equal(t, 1, result.Failed())
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "B: boom")
	assert.Equal(t, "boom", result.Actions[1].Error)

	second := stack.Execute(context.Background())
	assert.Empty(t, second.Actions)
	assert.NoError(t, second.Err)
	assert.Equal(t, []string{"C", "B", "A"}, order)
}

func Test_Stack_PanickingActionIsContained(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stack := NewStack(newTestLogger(ctrl))

	ran := false
	stack.Push("first", func(context.Context) error {
		ran = true
		return nil
	})
	stack.Push("second", func(context.Context) error {
		panic("undo exploded")
	})
	stack.Push("nil undo", nil)

	result := stack.Execute(context.Background())

	assert.True(t, ran)
	assert.Equal(t, 0, stack.Len())
	assert.Equal(t, 1, result.Failed())
	assert.Contains(t, result.Err.Error(), "undo exploded")
}

func Test_Handle_Strategies(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		pending  bool
		strategy Strategy
		success  bool
	}{
		{name: "Medium retry", err: fault.New(fault.ProcessTimeout, "slow"), strategy: Retry, success: true},
		{name: "Low ignore", err: fault.New(fault.DataValidationFailed, "missing"), strategy: Ignore, success: true},
		{name: "Port retry", err: fault.New(fault.PortUnavailable, "busy"), strategy: Retry, success: true},
		{name: "High rollback", err: fault.New(fault.CommandPermissionDenied, "denied"), pending: true, strategy: Rollback, success: false},
		{name: "Critical restart", err: fault.New(fault.ProcessCrash, "crashed"), strategy: Restart, success: true},
		{name: "Uncoded error is treated as init failure", err: errors.New("plain"), strategy: Restart, success: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			h, _ := newTestHandler(t, ctrl, bus.NoOp(), nil)

			undone := false
			if tt.pending {
				h.Stack().Push("undo", func(context.Context) error {
					undone = true
					return nil
				})
			}

			outcome := h.Handle(context.Background(), tt.err, Context{Phase: "Dependencies", Check: "install"})

			assert.Equal(t, tt.strategy, outcome.Strategy)
			assert.Equal(t, tt.success, outcome.Success)
			assert.Equal(t, 1, outcome.Attempt)
			assert.Equal(t, "Dependencies", outcome.Record.Details["phase"])
			assert.Equal(t, tt.pending, undone)
			assert.Len(t, h.Records(), 1)
		})
	}
}

func Test_Handle_RestartPublishesRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	b := bus.New(newTestLogger(ctrl))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := b.Subscribe(ctx)

	h, _ := newTestHandler(t, ctrl, b, nil)
	outcome := h.Handle(ctx, fault.New(fault.ProcessCrash, "api died"), Context{Phase: "ServiceStart", Service: "api"})

	require.Equal(t, Restart, outcome.Strategy)

	select {
	case msg := <-msgs:
		require.Equal(t, bus.CommandRestartRequested, msg.Type)
		assert.Equal(t, bus.RestartRequested{Service: "api", Code: "Process.Crash"}, msg.Data)
	case <-time.After(time.Second):
		t.Fatal("restart request not published")
	}
}

func Test_Handle_EscalatesOnFourthOccurrence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := &recordingNotifier{}
	h, dumpDir := newTestHandler(t, ctrl, bus.NoOp(), notifier)

	hc := Context{Phase: "Preflight", Check: "config", Extra: map[string]string{"file": "devboot.yaml"}}
	err := fault.New(fault.SystemConfigInvalid, "bad config")

	for i := 1; i <= 3; i++ {
		outcome := h.Handle(context.Background(), err, hc)
		assert.Equal(t, Restart, outcome.Strategy)
		assert.Equal(t, i, outcome.Attempt)
	}

	other := h.Handle(context.Background(), err, Context{Phase: "Preflight", Check: "other"})
	assert.Equal(t, 1, other.Attempt)

	outcome := h.Handle(context.Background(), err, hc)

	assert.Equal(t, Escalate, outcome.Strategy)
	assert.False(t, outcome.Success)
	assert.Equal(t, 4, outcome.Attempt)
	assert.Equal(t, 4, h.Attempts(fault.SystemConfigInvalid, hc))
	require.NotEmpty(t, outcome.Dump)
	assert.Equal(t, dumpDir, filepath.Dir(outcome.Dump))

	dump, readErr := ReadDump(outcome.Dump)
	require.NoError(t, readErr)
	assert.Equal(t, "escalated", dump.Reason)
	assert.Equal(t, fault.SystemConfigInvalid, dump.Record.Code)
	assert.Equal(t, hc, dump.Context)
	assert.Len(t, dump.Errors, 5)

	require.Len(t, notifier.records, 1)
	assert.Equal(t, outcome.Dump, notifier.dumps[0])
}

func Test_Escalate_IgnoresSeverity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, dumpDir := newTestHandler(t, ctrl, bus.NoOp(), nil)

	outcome := h.Escalate(context.Background(), fault.New(fault.DataValidationFailed, "fatal check"), Context{Check: "runtime"})

	assert.Equal(t, Escalate, outcome.Strategy)
	assert.False(t, outcome.Success)

	entries, err := os.ReadDir(dumpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func Test_Guard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := &recordingNotifier{}
	h, dumpDir := newTestHandler(t, ctrl, bus.NoOp(), notifier)

	assert.PanicsWithValue(t, "kaboom", func() {
		defer h.Guard()
		panic("kaboom")
	})

	records := h.Records()
	require.Len(t, records, 1)
	assert.Equal(t, fault.SystemInitFailed, records[0].Code)
	assert.Equal(t, fault.Critical, records[0].Severity)
	assert.Contains(t, records[0].Message, "kaboom")
	assert.NotEmpty(t, records[0].Details["stack"])

	entries, err := os.ReadDir(dumpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Len(t, notifier.records, 1)
}

func Test_Guard_NoPanic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, dumpDir := newTestHandler(t, ctrl, bus.NoOp(), nil)

	assert.NotPanics(t, func() {
		defer h.Guard()
	})

	assert.Empty(t, h.Records())
	assert.NoDirExists(t, dumpDir)
}

func Test_ProcessGuard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	notifier := &recordingNotifier{}

	assert.Panics(t, func() {
		defer Guard(dir, notifier, newTestLogger(ctrl))
		panic(errors.New("async failure"))
	})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	dump, err := ReadDump(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "panic", dump.Reason)
	assert.Equal(t, fault.SystemInitFailed, dump.Record.Code)
	assert.Len(t, notifier.records, 1)
}

func Test_NewNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := config.DefaultConfig()
	assert.IsType(t, noopNotifier{}, NewNotifier(cfg, newTestLogger(ctrl)))

	cfg.Notify.SentryDSN = "https://public@example.com/1"
	n := NewNotifier(cfg, newTestLogger(ctrl))
	assert.IsType(t, &SentryNotifier{}, n)

	cfg.Notify.SentryDSN = "::not a dsn::"
	assert.IsType(t, noopNotifier{}, NewNotifier(cfg, newTestLogger(ctrl)))
}

func Test_SentryNotifier_Notify(t *testing.T) {
	var captured []*sentry.Event

	n, err := NewSentryNotifier(sentry.ClientOptions{
		Dsn: "https://public@example.com/1",
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			captured = append(captured, event)
			return nil
		},
	})
	require.NoError(t, err)

	record := fault.NewRecord(fault.PortUnavailable, "port 5000 unavailable", map[string]string{"port": "5000"}, time.Now())
	require.NoError(t, n.Notify(context.Background(), record, Context{Phase: "Preflight", Service: "web"}, "/tmp/dump.json"))

	require.Len(t, captured, 1)
	event := captured[0]
	assert.Equal(t, "port 5000 unavailable", event.Message)
	assert.Equal(t, sentry.LevelError, event.Level)
	assert.Equal(t, "Port.Unavailable", event.Tags["error_code"])
	assert.Equal(t, "high", event.Tags["severity"])
	assert.Equal(t, "Preflight", event.Tags["phase"])
	assert.Equal(t, "5000", event.Contexts["run"]["port"])
	assert.Equal(t, "web", event.Contexts["run"]["service"])
}

func Test_levelFor(t *testing.T) {
	assert.Equal(t, sentry.LevelFatal, levelFor(fault.Critical))
	assert.Equal(t, sentry.LevelError, levelFor(fault.High))
	assert.Equal(t, sentry.LevelWarning, levelFor(fault.Medium))
	assert.Equal(t, sentry.LevelInfo, levelFor(fault.Low))
}
