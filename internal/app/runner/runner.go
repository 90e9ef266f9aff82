package runner

//go:generate mockgen -source=runner.go -destination=runner_mock.go -package=runner

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"devboot/internal/app/bus"
	"devboot/internal/app/errors"
	"devboot/internal/app/fault"
	"devboot/internal/app/platform"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// Command is an external command given as an executable and its arguments
type Command struct {
	Executable string
	Args       []string
}

// String renders the command for logs and policy matching
func (c Command) String() string {
	return strings.TrimSpace(c.Executable + " " + strings.Join(c.Args, " "))
}

// Options controls a synchronous command invocation
type Options struct {
	Dir     string
	Env     []string
	Timeout time.Duration
}

// Result is the outcome of a command invocation
type Result struct {
	ExitCode int           `json:"exitCode"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"-"`
	Attempts int           `json:"attemptsUsed"`
}

// DurationMs returns the wall time of the invocation in milliseconds
func (r *Result) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// Runner executes external commands synchronously or as tracked background processes
type Runner interface {
	CommandFor(c config.Command) Command
	RunOnce(ctx context.Context, cmd Command, opts Options) (*Result, error)
	RunWithRetry(ctx context.Context, cmd Command, opts Options, policy Policy, critical bool) (*Result, error)
	Spawn(cmd Command, opts SpawnOptions) (*Handle, error)
	Wait(ctx context.Context, id string) (*Handle, error)
	Get(id string) (*Handle, bool)
	List() []*Handle
	Terminate(id string, sig os.Signal) error
	IsCritical(cmd Command) bool
	CleanupFor(cmd Command) []string
	Close()
}

type sleepFunc func(ctx context.Context, d time.Duration) error

type runner struct {
	cfg       *config.Config
	platform  platform.Platform
	bus       bus.Bus
	log       logger.Logger
	rules     []config.CriticalRule
	dotenv    []string
	sleep     sleepFunc
	now       func() time.Time
	grace     time.Duration
	mu        sync.RWMutex
	processes map[string]*Handle
}

// NewRunner creates a runner bound to the project configuration
func NewRunner(cfg *config.Config, p platform.Platform, b bus.Bus, log logger.Logger) Runner {
	r := &runner{
		cfg:       cfg,
		platform:  p,
		bus:       b,
		log:       log,
		rules:     cfg.Critical,
		sleep:     sleepContext,
		now:       time.Now,
		grace:     config.ProcessGracePeriod,
		processes: make(map[string]*Handle),
	}

	r.dotenv = r.loadEnvFile()

	return r
}

// CommandFor converts a configured command, wrapping scripts in the platform shell
func (r *runner) CommandFor(c config.Command) Command {
	if c.Script != "" {
		shell, args := r.platform.Shell()
		return Command{Executable: shell, Args: append(append([]string{}, args...), c.Script)}
	}

	return Command{Executable: c.Executable, Args: append([]string{}, c.Args...)}
}

// RunOnce runs cmd to completion, terminating its process group when the timeout elapses
func (r *runner) RunOnce(ctx context.Context, cmd Command, opts Options) (*Result, error) {
	if cmd.Executable == "" {
		return nil, fault.Wrap(fault.CommandNotFound, errors.ErrEmptyCommand, "cannot run empty command")
	}

	c := exec.Command(cmd.Executable, cmd.Args...) // #nosec G204 -- commands come from project configuration
	c.Dir = r.dir(opts.Dir)
	c.Env = r.environ(opts.Env)
	c.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	configure(c)

	start := r.now()

	if err := c.Start(); err != nil {
		return nil, spawnError(cmd, err)
	}

	r.log.Debug().Msgf("Started '%s' (PID: %d)", cmd, c.Process.Pid)

	done := make(chan error, 1)
	go func() {
		done <- c.Wait()
	}()

	var timeout <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()

		timeout = timer.C
	}

	select {
	case err := <-done:
		result := r.result(start, &stdout, &stderr, c)
		if err != nil {
			return result, fault.Wrap(fault.CommandExecutionFailed, err, "'%s' exited with code %d", cmd, result.ExitCode).
				WithDetail("exit", fmt.Sprint(result.ExitCode)).
				WithDetail("stderr", tail(result.Stderr))
		}

		return result, nil
	case <-timeout:
		r.log.Warn().Msgf("Command '%s' exceeded %s, terminating", cmd, opts.Timeout)
		r.stop(c, done)

		result := r.result(start, &stdout, &stderr, c)

		return result, fault.New(fault.ProcessTimeout, "'%s' exceeded timeout of %s", cmd, opts.Timeout).
			WithDetail("timeout", opts.Timeout.String())
	case <-ctx.Done():
		r.stop(c, done)

		return r.result(start, &stdout, &stderr, c), fmt.Errorf("%w: %w", errors.ErrCommandInterrupted, ctx.Err())
	}
}

// RunWithRetry runs cmd up to policy.MaxAttempts times with exponential delay between attempts
func (r *runner) RunWithRetry(ctx context.Context, cmd Command, opts Options, policy Policy, critical bool) (*Result, error) {
	attempts := max(policy.MaxAttempts, 1)

	if opts.Timeout == 0 {
		opts.Timeout = policy.Timeout
	}

	var (
		history []attempt
		last    *Result
		lastErr error
	)

	for n := 1; n <= attempts; n++ {
		started := r.now()

		result, err := r.RunOnce(ctx, cmd, opts)
		if err == nil {
			result.Attempts = n
			return result, nil
		}

		if errors.Is(err, errors.ErrCommandInterrupted) {
			return result, err
		}

		history = append(history, newAttempt(n, result, err, r.now().Sub(started)))
		last, lastErr = result, err

		r.log.Warn().Err(err).Msgf("Attempt %d/%d of '%s' failed", n, attempts, cmd)

		if n == attempts {
			break
		}

		if critical {
			r.cleanup(cmd, opts.Dir)
		}

		if err := r.sleep(ctx, policy.Delay(n)); err != nil {
			return last, fmt.Errorf("%w: %w", errors.ErrCommandInterrupted, err)
		}
	}

	if last != nil {
		last.Attempts = attempts
	}

	exhausted := fault.Wrap(fault.CommandExecutionFailed, lastErr, "'%s' failed after %d attempts", cmd, attempts).
		WithDetail("command", cmd.String()).
		WithDetail("attempts", fmt.Sprint(attempts))

	for _, a := range history {
		exhausted.WithDetail(fmt.Sprintf("attempt.%d", a.number), a.String())
	}

	return last, exhausted
}

// Close terminates every running process and drops the process table
func (r *runner) Close() {
	r.mu.Lock()
	handles := make([]*Handle, 0, len(r.processes))
	for _, h := range r.processes {
		handles = append(handles, h)
	}
	r.processes = make(map[string]*Handle)
	r.mu.Unlock()

	for _, h := range handles {
		h.stopTimers()

		if h.Running() {
			r.terminate(h)
		}
	}
}

func (r *runner) cleanup(cmd Command, dir string) {
	for _, path := range r.CleanupFor(cmd) {
		target := path
		if !filepath.IsAbs(target) {
			target = filepath.Join(r.dir(dir), target)
		}

		r.log.Info().Msgf("Clearing '%s' before retrying '%s'", target, cmd)

		if err := r.platform.RemoveDirectory(target); err != nil {
			r.log.Warn().Err(err).Msgf("Failed to clear '%s'", target)
		}
	}
}

// stop sends SIGTERM to the process group and SIGKILL if it outlives the shutdown timeout
func (r *runner) stop(c *exec.Cmd, done <-chan error) {
	pid := c.Process.Pid

	if err := terminateGroup(c.Process, false); err != nil {
		r.log.Warn().Err(err).Msgf("Failed to signal process group %d", pid)
	}

	select {
	case <-done:
		return
	case <-time.After(config.ShutdownTimeout):
	}

	r.log.Warn().Msgf("Process %d did not stop gracefully, forcing kill", pid)

	if err := terminateGroup(c.Process, true); err != nil {
		r.log.Error().Err(err).Msgf("Failed to kill process group %d", pid)
	}

	<-done
}

func (r *runner) result(start time.Time, stdout, stderr *bytes.Buffer, c *exec.Cmd) *Result {
	code := -1
	if c.ProcessState != nil {
		code = c.ProcessState.ExitCode()
	}

	return &Result{
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: r.now().Sub(start),
		Attempts: 1,
	}
}

func (r *runner) dir(dir string) string {
	if dir != "" {
		return dir
	}

	projectDir, err := r.cfg.ProjectDir()
	if err != nil {
		return ""
	}

	return projectDir
}

// environ layers the project .env file and extra entries over the inherited environment
func (r *runner) environ(extra []string) []string {
	env := os.Environ()
	env = append(env, r.dotenv...)

	return append(env, extra...)
}

func (r *runner) loadEnvFile() []string {
	if r.cfg.Project.EnvFile == "" {
		return nil
	}

	path := r.cfg.Resolve(r.cfg.Project.EnvFile)

	values, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.log.Warn().Err(err).Msgf("Failed to read env file '%s'", path)
		}

		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+values[k])
	}

	return env
}

// spawnError classifies a failure to start a process
func spawnError(cmd Command, err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fault.Wrap(fault.CommandNotFound, err, "'%s' not found", cmd.Executable)
	case errors.Is(err, fs.ErrPermission):
		return fault.Wrap(fault.CommandPermissionDenied, err, "permission denied running '%s'", cmd.Executable)
	default:
		return fault.Wrap(fault.ProcessStartFailed, fmt.Errorf("%w: %w", errors.ErrFailedToStartCommand, err), "'%s'", cmd)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tail keeps the last lines of command output for error details
func tail(s string) string {
	const maxLen = 512

	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}

	return s[len(s)-maxLen:]
}
