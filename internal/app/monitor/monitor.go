package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"devboot/internal/app/bus"
	"devboot/internal/app/errors"
	"devboot/internal/app/platform"
	"devboot/internal/app/runner"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// Alert check names
const (
	CheckMemory  = "memory"
	CheckCPU     = "cpu"
	CheckPort    = "port"
	CheckProcess = "process"
)

// PortStatus is the occupancy of one reserved port
type PortStatus struct {
	Service string `json:"service"`
	Port    int    `json:"port"`
	Bound   bool   `json:"bound"`
}

// ProcessStatus is the liveness of one spawned process
type ProcessStatus struct {
	ID      string        `json:"id"`
	Command string        `json:"command"`
	PID     int           `json:"pid"`
	Running bool          `json:"running"`
	Uptime  time.Duration `json:"uptime"`
	Stats   ProcessStats  `json:"stats"`
}

// Alert is a self-check that crossed a threshold
type Alert struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// Snapshot is the result of one self-check
type Snapshot struct {
	Time      time.Time       `json:"time"`
	Host      HostStats       `json:"host"`
	Ports     []PortStatus    `json:"ports"`
	Processes []ProcessStatus `json:"processes"`
	Alerts    []Alert         `json:"alerts"`
}

// Monitor runs the periodic self-check after a successful run
//
//go:generate mockgen -source=monitor.go -destination=monitor_mock.go -package=monitor
type Monitor interface {
	Start(ctx context.Context, ports map[string]int) error
	Check(ctx context.Context) Snapshot
	Snapshot() Snapshot
	Stop()
}

type monitor struct {
	cfg      *config.Config
	platform platform.Platform
	runner   runner.Runner
	sampler  Sampler
	bus      bus.Bus
	log      logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	cron     *cron.Cron
	manifest *manifestWatcher
	ports    map[string]int
	bound    map[string]bool
	seen     map[string]*runner.Handle
	last     Snapshot
	running  bool
}

// NewMonitor creates a monitor over the run's ports and spawned processes
func NewMonitor(cfg *config.Config, p platform.Platform, r runner.Runner, s Sampler, b bus.Bus, log logger.Logger) Monitor {
	return &monitor{
		cfg:      cfg,
		platform: p,
		runner:   r,
		sampler:  s,
		bus:      b,
		log:      log,
		now:      time.Now,
		bound:    make(map[string]bool),
		seen:     make(map[string]*runner.Handle),
	}
}

// Start schedules the self-check and the manifest watch; both stop with ctx or Stop
func (m *monitor) Start(ctx context.Context, ports map[string]int) error {
	schedule := m.cfg.Monitor.Schedule
	if schedule == "" {
		schedule = config.MonitorSchedule
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("%w: '%s': %w", errors.ErrInvalidSchedule, schedule, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	m.ports = make(map[string]int, len(ports))
	for service, port := range ports {
		m.ports[service] = port
	}

	cronLog := cronLogger{log: m.log}
	c := cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)), cron.WithLogger(cronLog))

	if _, err := c.AddFunc(schedule, func() { m.Check(ctx) }); err != nil {
		return fmt.Errorf("%w: '%s': %w", errors.ErrInvalidSchedule, schedule, err)
	}

	if manifest := m.cfg.Monitor.Manifest; manifest != "" {
		w, err := newManifestWatcher(m.cfg.Resolve(manifest), m.bus, m.log)
		if err != nil {
			m.log.Warn().Err(err).Msgf("Cannot watch dependency manifest '%s'", manifest)
		} else {
			w.start(ctx)
			m.manifest = w
		}
	}

	c.Start()
	m.cron = c
	m.running = true

	m.log.Info().Msgf("Monitoring started (schedule: %s)", schedule)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()

	return nil
}

// Stop halts scheduling and waits for a running check to finish
func (m *monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}

	c, w := m.cron, m.manifest
	m.cron, m.manifest, m.running = nil, nil, false
	m.mu.Unlock()

	<-c.Stop().Done()

	if w != nil {
		w.close()
	}

	m.log.Info().Msg("Monitoring stopped")
}

// Snapshot returns the last self-check result
func (m *monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.last
}

// Check samples host resources, port occupancy and process liveness once
func (m *monitor) Check(ctx context.Context) Snapshot {
	snap := Snapshot{Time: m.now()}

	if host, err := m.sampler.Host(ctx); err != nil {
		m.log.Warn().Err(err).Msg("Failed to sample host resources")
	} else {
		snap.Host = host

		if host.MemoryPercent >= config.MemoryWarnPercent {
			snap.alert(CheckMemory, "memory usage at %.1f%% (%s of %s)",
				host.MemoryPercent, FormatMemory(host.MemoryUsed), FormatMemory(host.MemoryTotal))
		}

		if host.CPUPercent >= config.CPUWarnPercent {
			snap.alert(CheckCPU, "CPU usage at %.1f%%", host.CPUPercent)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkPorts(&snap)
	m.checkProcesses(ctx, &snap)

	for _, a := range snap.Alerts {
		m.log.Warn().Str("check", a.Check).Msg(a.Message)

		m.bus.Publish(bus.Message{
			Type: bus.EventMonitorAlert,
			Data: bus.MonitorAlert{Check: a.Check, Message: a.Message},
		})
	}

	m.log.Debug().Msgf("Self-check: memory %.1f%%, cpu %.1f%%, %d ports, %d processes, %d alerts",
		snap.Host.MemoryPercent, snap.Host.CPUPercent, len(snap.Ports), len(snap.Processes), len(snap.Alerts))

	m.last = snap

	return snap
}

func (m *monitor) checkPorts(snap *Snapshot) {
	services := make([]string, 0, len(m.ports))
	for service := range m.ports {
		services = append(services, service)
	}

	sort.Slice(services, func(i, j int) bool { return m.ports[services[i]] < m.ports[services[j]] })

	for _, service := range services {
		port := m.ports[service]
		bound := m.platform.IsPortBound(port)

		if m.bound[service] && !bound {
			snap.alert(CheckPort, "port %d (%s) is no longer bound", port, service)
		}

		m.bound[service] = bound
		snap.Ports = append(snap.Ports, PortStatus{Service: service, Port: port, Bound: bound})
	}
}

func (m *monitor) checkProcesses(ctx context.Context, snap *Snapshot) {
	for _, h := range m.runner.List() {
		stats, err := m.sampler.Process(ctx, h.PID())
		if err != nil {
			m.log.Debug().Err(err).Msgf("Failed to sample process %d", h.PID())
		}

		m.seen[h.ID()] = h
		snap.Processes = append(snap.Processes, ProcessStatus{
			ID:      h.ID(),
			Command: h.Command().String(),
			PID:     h.PID(),
			Running: true,
			Uptime:  snap.Time.Sub(h.StartTime()),
			Stats:   stats,
		})
	}

	ids := make([]string, 0, len(m.seen))
	for id := range m.seen {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		h := m.seen[id]
		if h.Running() {
			continue
		}

		delete(m.seen, id)

		code, _ := h.ExitCode()
		snap.alert(CheckProcess, "process '%s' (PID %d) exited with code %d", h.Command(), h.PID(), code)
		snap.Processes = append(snap.Processes, ProcessStatus{ID: id, Command: h.Command().String(), PID: h.PID()})
	}
}

func (s *Snapshot) alert(check, format string, args ...any) {
	s.Alerts = append(s.Alerts, Alert{Check: check, Message: fmt.Sprintf(format, args...)})
}

// cronLogger adapts the application logger to cron's logger
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
