package readiness

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devboot/internal/app/errors"
)

func Test_HTTPChecker_Poll(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		timeout time.Duration
		want    Health
		wantErr error
	}{
		{name: "OK is healthy", status: http.StatusOK, timeout: time.Second, want: Healthy},
		{name: "No content is healthy", status: http.StatusNoContent, timeout: time.Second, want: Healthy},
		{name: "Service unavailable is degraded", status: http.StatusServiceUnavailable, timeout: time.Second, want: Degraded},
		{name: "Server error keeps polling", status: http.StatusInternalServerError, timeout: 300 * time.Millisecond, want: NotReady, wantErr: errors.ErrReadinessTimeout},
		{name: "Not found keeps polling", status: http.StatusNotFound, timeout: 300 * time.Millisecond, want: NotReady, wantErr: errors.ErrReadinessTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			health, err := NewHTTPChecker().Poll(context.Background(), server.URL, tt.timeout, 50*time.Millisecond)

			assert.Equal(t, tt.want, health)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_HTTPChecker_Poll_EventualSuccess(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	health, err := NewHTTPChecker().Poll(context.Background(), server.URL, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, Healthy, health)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func Test_HTTPChecker_Poll_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	health, err := NewHTTPChecker().Poll(context.Background(), url, 200*time.Millisecond, 50*time.Millisecond)

	assert.Equal(t, NotReady, health)
	assert.ErrorIs(t, err, errors.ErrReadinessTimeout)
}

func Test_HTTPChecker_Poll_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	health, err := NewHTTPChecker().Poll(ctx, server.URL, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, NotReady, health)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Health_Reachable(t *testing.T) {
	assert.True(t, Healthy.Reachable())
	assert.True(t, Degraded.Reachable())
	assert.False(t, NotReady.Reachable())
}

func Test_OutputChecker_Wait(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		exit    bool
		wantErr error
	}{
		{name: "Matching line", lines: []string{"compiling", "listening on :5000"}},
		{name: "Match buffered before exit", lines: []string{"listening on :5000"}, exit: true},
		{name: "Exit without match", lines: []string{"compiling"}, exit: true, wantErr: errors.ErrProcessExitedEarly},
		{name: "Timeout", lines: []string{"compiling"}, wantErr: errors.ErrReadinessTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := NewOutputChecker(`listening on :\d+`, 200*time.Millisecond)
			require.NoError(t, err)

			for _, line := range tt.lines {
				checker.AddLine(line)
			}

			exited := make(chan struct{})
			if tt.exit {
				close(exited)
			}

			err = checker.Wait(context.Background(), exited)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			checker.AddLine("late line")
		})
	}
}

func Test_OutputChecker_Wait_AfterOutputBurst(t *testing.T) {
	checker, err := NewOutputChecker("listening", 300*time.Millisecond)
	require.NoError(t, err)

	for i := range 500 {
		checker.AddLine(fmt.Sprintf("compiling module %d", i))
	}

	checker.AddLine("server listening on :5000")

	assert.NoError(t, checker.Wait(context.Background(), make(chan struct{})))
}

func Test_OutputChecker_ConcurrentLines(t *testing.T) {
	checker, err := NewOutputChecker("listening", time.Second)
	require.NoError(t, err)

	go func() {
		for i := range 1000 {
			checker.AddLine(fmt.Sprintf("compiling module %d", i))
		}

		checker.AddLine("server listening on :5000")
		checker.AddLine("server listening on :5000")
	}()

	assert.NoError(t, checker.Wait(context.Background(), make(chan struct{})))
}

func Test_NewOutputChecker_InvalidPattern(t *testing.T) {
	_, err := NewOutputChecker("([", time.Second)

	assert.ErrorIs(t, err, errors.ErrInvalidReadyPattern)
}

func Test_PortFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want int
	}{
		{name: "Explicit port", url: "http://localhost:8080/health", want: 8080},
		{name: "HTTP default", url: "http://localhost/health", want: 80},
		{name: "HTTPS default", url: "https://localhost/health", want: 443},
		{name: "Unknown scheme", url: "ftp://localhost/file", want: 0},
		{name: "Malformed", url: "http://[::1", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PortFromURL(tt.url))
		})
	}
}
