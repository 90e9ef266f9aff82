package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"devboot/internal/app/bus"
	"devboot/internal/app/errors"
	"devboot/internal/app/fault"
	"devboot/internal/config"
)

// maxLineSize caps a single output line; the rest of an overlong line is discarded
const maxLineSize = 1024 * 1024

// SpawnOptions controls a background process
type SpawnOptions struct {
	Dir      string
	Env      []string
	Timeout  time.Duration
	OnOutput func(line string)
	OnError  func(line string)
	OnExit   func(exitCode int, err error)
}

// Handle is a background process tracked in the runner's process table
type Handle struct {
	id        string
	command   Command
	pid       int
	startTime time.Time
	cmd       *exec.Cmd
	done      chan struct{}

	mu       sync.RWMutex
	endTime  time.Time
	exitCode *int
	stdout   []string
	stderr   []string
	timedOut bool
	timer    *time.Timer
	evict    *time.Timer
}

// ID returns the run-unique process identifier
func (h *Handle) ID() string { return h.id }

// Command returns the spawned command
func (h *Handle) Command() Command { return h.command }

// PID returns the OS process id
func (h *Handle) PID() int { return h.pid }

// StartTime returns when the process was spawned
func (h *Handle) StartTime() time.Time { return h.startTime }

// Done is closed once the process has exited and its output is drained
func (h *Handle) Done() <-chan struct{} { return h.done }

// EndTime returns the exit time, false while running
func (h *Handle) EndTime() (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.endTime, h.exitCode != nil
}

// ExitCode returns the exit code, false while running
func (h *Handle) ExitCode() (int, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.exitCode == nil {
		return 0, false
	}

	return *h.exitCode, true
}

// Running reports whether the process has not exited yet
func (h *Handle) Running() bool {
	_, exited := h.ExitCode()
	return !exited
}

// TimedOut reports whether the process was terminated by its timeout
func (h *Handle) TimedOut() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.timedOut
}

// Output returns a copy of the captured stdout lines
func (h *Handle) Output() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return append([]string(nil), h.stdout...)
}

// Errors returns a copy of the captured stderr lines
func (h *Handle) Errors() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return append([]string(nil), h.stderr...)
}

func (h *Handle) appendLine(stream, line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if stream == "stderr" {
		h.stderr = append(h.stderr, line)
	} else {
		h.stdout = append(h.stdout, line)
	}
}

func (h *Handle) finish(code int, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.exitCode = &code
	h.endTime = at

	if h.timer != nil {
		h.timer.Stop()
	}
}

func (h *Handle) markTimedOut() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.timedOut = true
}

func (h *Handle) stopTimers() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.timer != nil {
		h.timer.Stop()
	}

	if h.evict != nil {
		h.evict.Stop()
	}
}

// Spawn starts cmd in the background; output is streamed to callbacks and buffered on the handle
func (r *runner) Spawn(cmd Command, opts SpawnOptions) (*Handle, error) {
	if cmd.Executable == "" {
		return nil, fault.Wrap(fault.CommandNotFound, errors.ErrEmptyCommand, "cannot spawn empty command")
	}

	c := exec.Command(cmd.Executable, cmd.Args...) // #nosec G204 -- commands come from project configuration
	c.Dir = r.dir(opts.Dir)
	c.Env = r.environ(opts.Env)

	configure(c)

	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, fault.Wrap(fault.ProcessStartFailed, err, "stdout pipe for '%s'", cmd)
	}

	stderr, err := c.StderrPipe()
	if err != nil {
		return nil, fault.Wrap(fault.ProcessStartFailed, err, "stderr pipe for '%s'", cmd)
	}

	if err := c.Start(); err != nil {
		return nil, spawnError(cmd, err)
	}

	h := &Handle{
		id:        ulid.Make().String(),
		command:   cmd,
		pid:       c.Process.Pid,
		startTime: r.now(),
		cmd:       c,
		done:      make(chan struct{}),
	}

	r.mu.Lock()
	r.processes[h.id] = h
	r.mu.Unlock()

	r.log.Info().Msgf("Spawned '%s' (ID: %s, PID: %d)", cmd, h.id, h.pid)

	r.bus.Publish(bus.Message{
		Type: bus.EventProcessStarted,
		Data: bus.ProcessStarted{ProcessEvent: r.event(h), PID: h.pid},
	})

	if opts.Timeout > 0 {
		h.mu.Lock()
		h.timer = time.AfterFunc(opts.Timeout, func() { r.timeout(h, opts.Timeout) })
		h.mu.Unlock()
	}

	var wg sync.WaitGroup

	wg.Add(2)

	go r.stream(h, stdout, "stdout", opts.OnOutput, &wg)
	go r.stream(h, stderr, "stderr", opts.OnError, &wg)
	go r.wait(h, &wg, opts)

	return h, nil
}

// Wait blocks until the process exits or ctx is done
func (r *runner) Wait(ctx context.Context, id string) (*Handle, error) {
	h, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrProcessNotFound, id)
	}

	select {
	case <-h.done:
		return h, nil
	case <-ctx.Done():
		return h, ctx.Err()
	}
}

// Get looks up a process by id; exited processes remain visible for the grace period
func (r *runner) Get(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.processes[id]

	return h, ok
}

// List returns the running processes ordered by start time
func (r *runner) List() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]*Handle, 0, len(r.processes))
	for _, h := range r.processes {
		if h.Running() {
			handles = append(handles, h)
		}
	}

	sort.Slice(handles, func(i, j int) bool {
		return handles[i].id < handles[j].id
	})

	return handles
}

// Terminate delivers sig to the process group of a running process
func (r *runner) Terminate(id string, sig os.Signal) error {
	h, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrProcessNotFound, id)
	}

	if !h.Running() {
		return fmt.Errorf("%w: %s", errors.ErrProcessNotRunning, id)
	}

	if err := signalGroup(h.cmd.Process, sig); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrFailedToTerminateProcess, err)
	}

	return nil
}

func (r *runner) stream(h *Handle, rd io.Reader, name string, fn func(string), wg *sync.WaitGroup) {
	defer wg.Done()

	reader := bufio.NewReaderSize(rd, 64*1024)

	var (
		buf       []byte
		truncated bool
	)

	for {
		chunk, more, err := reader.ReadLine()

		if room := maxLineSize - len(buf); room > 0 {
			if len(chunk) > room {
				chunk, truncated = chunk[:room], true
			}

			buf = append(buf, chunk...)
		} else if len(chunk) > 0 {
			truncated = true
		}

		if err != nil {
			if len(buf) > 0 {
				r.emit(h, name, string(buf), fn)
			}

			if err != io.EOF {
				r.log.Debug().Err(err).Msgf("Stopped reading %s of process '%s' (ID: %s)", name, h.command, h.id)
			}

			return
		}

		if more {
			continue
		}

		if truncated {
			r.log.Warn().Msgf("Truncated %s line of process '%s' (ID: %s) to %d bytes", name, h.command, h.id, maxLineSize)
		}

		r.emit(h, name, string(buf), fn)
		buf, truncated = buf[:0], false
	}
}

func (r *runner) emit(h *Handle, name, line string, fn func(string)) {
	h.appendLine(name, line)

	if fn != nil {
		fn(line)
	}

	r.bus.Publish(bus.Message{
		Type: bus.EventProcessOutput,
		Data: bus.ProcessOutput{ProcessEvent: r.event(h), Stream: name, Line: line},
	})
}

func (r *runner) wait(h *Handle, wg *sync.WaitGroup, opts SpawnOptions) {
	wg.Wait()

	waitErr := h.cmd.Wait()

	code := h.cmd.ProcessState.ExitCode()
	h.finish(code, r.now())

	end, _ := h.EndTime()
	duration := end.Sub(h.startTime)

	r.log.Info().Msgf("Process '%s' (ID: %s) exited with code %d after %s", h.command, h.id, code, duration.Round(time.Millisecond))

	r.bus.Publish(bus.Message{
		Type:     bus.EventProcessExited,
		Data:     bus.ProcessExited{ProcessEvent: r.event(h), ExitCode: code, Duration: duration},
		Critical: true,
	})

	if opts.OnExit != nil {
		var err error

		switch {
		case h.TimedOut():
			err = fault.New(fault.ProcessTimeout, "'%s' exceeded timeout of %s", h.command, opts.Timeout)
		case waitErr != nil:
			err = fault.Wrap(fault.CommandExecutionFailed, waitErr, "'%s' exited with code %d", h.command, code)
		}

		opts.OnExit(code, err)
	}

	close(h.done)

	h.mu.Lock()
	h.evict = time.AfterFunc(r.grace, func() { r.remove(h.id) })
	h.mu.Unlock()
}

func (r *runner) timeout(h *Handle, limit time.Duration) {
	if !h.Running() {
		return
	}

	h.markTimedOut()

	r.log.Warn().Msgf("Process '%s' (ID: %s) exceeded %s, terminating", h.command, h.id, limit)

	r.bus.Publish(bus.Message{
		Type:     bus.EventProcessTimedOut,
		Data:     bus.ProcessTimedOut{ProcessEvent: r.event(h), Timeout: limit},
		Critical: true,
	})

	r.terminate(h)
}

// terminate escalates from SIGTERM to SIGKILL on the handle's process group
func (r *runner) terminate(h *Handle) {
	if err := terminateGroup(h.cmd.Process, false); err != nil {
		r.log.Warn().Err(err).Msgf("Failed to signal process group %d", h.pid)
	}

	select {
	case <-h.done:
		return
	case <-time.After(config.ShutdownTimeout):
	}

	if err := terminateGroup(h.cmd.Process, true); err != nil {
		r.log.Error().Err(err).Msgf("Failed to kill process group %d", h.pid)
	}
}

func (r *runner) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.processes, id)
}

func (r *runner) event(h *Handle) bus.ProcessEvent {
	return bus.ProcessEvent{ID: h.id, Command: h.command.String()}
}
