package ports

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"devboot/internal/app/bus"
	"devboot/internal/app/errors"
	"devboot/internal/app/fault"
	"devboot/internal/app/platform"
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

// occupy binds a listener on all interfaces and returns its port
func occupy(t *testing.T) (net.Listener, int) {
	t.Helper()

	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = l.Close() })

	return l, l.Addr().(*net.TCPAddr).Port
}

type sleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleeps) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delays = append(s.delays, d)

	return ctx.Err()
}

func Test_IsAvailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewManager(nil, platform.NewMockPlatform(ctrl), bus.NoOp(), newTestLogger(ctrl))

	_, port := occupy(t)
	assert.False(t, m.IsAvailable(port))
}

func Test_Reserve_FallsBackWithoutAutoKill(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := &sleeps{}
	m := NewManager(nil, platform.NewMockPlatform(ctrl), bus.NoOp(), newTestLogger(ctrl), WithSleep(rec.sleep))

	_, port := occupy(t)
	if port == 65535 {
		t.Skip("no room above the occupied port")
	}

	r, err := m.Reserve(context.Background(), "app", port, ReserveOptions{MaxRetries: 3, RetryDelay: 100 * time.Millisecond})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, r.Port, port+1)
	assert.True(t, r.Fallback)
	assert.Nil(t, r.Freed)

	l, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(r.Port)))
	require.NoError(t, err, "fallback port must be bindable")
	require.NoError(t, l.Close())

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, rec.delays)
}

func Test_Reserve_AutoKillFreesPort(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockPlatform := platform.NewMockPlatform(ctrl)
	m := NewManager(nil, mockPlatform, bus.NoOp(), newTestLogger(ctrl), WithSleep((&sleeps{}).sleep))

	listener, port := occupy(t)
	owner := &platform.ProcessRef{PID: 4242, Name: "node"}

	mockPlatform.EXPECT().ProcessOwningPort(port).Return(owner, nil)
	mockPlatform.EXPECT().KillProcess(*owner, false).DoAndReturn(func(ref platform.ProcessRef, force bool) error {
		return listener.Close()
	})

	r, err := m.Reserve(context.Background(), "app", port, ReserveOptions{AutoKill: true, MaxRetries: 3})
	require.NoError(t, err)

	assert.Equal(t, port, r.Port)
	assert.Equal(t, owner, r.Freed)
	assert.False(t, r.Fallback)
}

func Test_Reserve_EscalatesToForcedKill(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockPlatform := platform.NewMockPlatform(ctrl)

	var forced bool
	probe := func(port int) bool { return forced }

	m := NewManager(nil, mockPlatform, bus.NoOp(), newTestLogger(ctrl), WithProbe(probe), WithSleep((&sleeps{}).sleep))

	owner := &platform.ProcessRef{PID: 7}

	mockPlatform.EXPECT().ProcessOwningPort(5000).Return(owner, nil).Times(2)
	gomock.InOrder(
		mockPlatform.EXPECT().KillProcess(*owner, false).Return(nil),
		mockPlatform.EXPECT().KillProcess(*owner, true).DoAndReturn(func(ref platform.ProcessRef, force bool) error {
			forced = true
			return nil
		}),
	)

	r, err := m.Reserve(context.Background(), "app", 5000, ReserveOptions{AutoKill: true, MaxRetries: 3})
	require.NoError(t, err)
	assert.Equal(t, 5000, r.Port)
	assert.Equal(t, owner, r.Freed)
}

func Test_Reserve_Strict(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockPlatform := platform.NewMockPlatform(ctrl)
	mockPlatform.EXPECT().ProcessOwningPort(5000).Return(nil, nil).AnyTimes()

	m := NewManager(nil, mockPlatform, bus.NoOp(), newTestLogger(ctrl),
		WithProbe(func(port int) bool { return port != 5000 }),
		WithSleep((&sleeps{}).sleep),
	)

	_, err := m.Reserve(context.Background(), "app", 5000, ReserveOptions{AutoKill: true, MaxRetries: 2, Strict: true})

	code, ok := fault.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, fault.PortUnavailable, code)
	assert.ErrorIs(t, err, errors.ErrPortUnavailable)
	assert.Empty(t, m.Reservations())
}

func Test_Reserve_NeverSharesPort(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewManager(nil, platform.NewMockPlatform(ctrl), bus.NoOp(), newTestLogger(ctrl), WithProbe(func(int) bool { return true }))

	ctx := context.Background()

	a, err := m.Reserve(ctx, "api", 8080, ReserveOptions{})
	require.NoError(t, err)

	again, err := m.Reserve(ctx, "api", 9999, ReserveOptions{})
	require.NoError(t, err)
	assert.Equal(t, a, again)

	b, err := m.Reserve(ctx, "web", 8080, ReserveOptions{})
	require.NoError(t, err)
	assert.Equal(t, 8081, b.Port)
	assert.True(t, b.Fallback)

	_, err = m.Reserve(ctx, "worker", 8080, ReserveOptions{Strict: true})
	assert.ErrorIs(t, err, errors.ErrPortReserved)

	next, err := m.FindAvailable(8080, 8090)
	require.NoError(t, err)
	assert.Equal(t, 8082, next)

	seen := make(map[int]string)
	for _, r := range m.Reservations() {
		_, dup := seen[r.Port]
		assert.False(t, dup)
		seen[r.Port] = r.Service
	}
}

func Test_FindAvailable_Exhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewManager(nil, platform.NewMockPlatform(ctrl), bus.NoOp(), newTestLogger(ctrl), WithProbe(func(int) bool { return false }))

	_, err := m.FindAvailable(65000, 65010)
	assert.ErrorIs(t, err, errors.ErrNoPortInRange)

	code, _ := fault.CodeOf(err)
	assert.Equal(t, fault.PortUnavailable, code)

	_, err = m.Reserve(context.Background(), "app", 65535, ReserveOptions{MaxRetries: 1})
	assert.ErrorIs(t, err, errors.ErrNoPortInRange)
}

func Test_Release(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewManager(nil, platform.NewMockPlatform(ctrl), bus.NoOp(), newTestLogger(ctrl), WithProbe(func(int) bool { return true }))

	assert.NotPanics(t, func() {
		m.Release("unknown")
		m.Release("unknown")
	})
	assert.Empty(t, m.Reservations())

	_, err := m.Reserve(context.Background(), "app", 3000, ReserveOptions{})
	require.NoError(t, err)

	m.Release("app")
	m.Release("app")
	assert.Empty(t, m.Reservations())

	r, err := m.Reserve(context.Background(), "web", 3000, ReserveOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3000, r.Port)
}

func Test_HealthSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockPlatform := platform.NewMockPlatform(ctrl)

	owner := &platform.ProcessRef{PID: 99, Name: "postgres"}
	mockPlatform.EXPECT().ProcessOwningPort(5432).Return(owner, nil)

	m := NewManager(map[string]int{"database": 5432, "cache": 6379}, mockPlatform, bus.NoOp(), newTestLogger(ctrl),
		WithProbe(func(port int) bool { return port != 5432 }),
	)

	snapshot := m.HealthSnapshot()

	assert.Equal(t, PortHealth{Port: 5432, Available: false, Owner: owner}, snapshot["database"])
	assert.Equal(t, PortHealth{Port: 6379, Available: true}, snapshot["cache"])
}
