package ports

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"devboot/internal/app/bus"
	"devboot/internal/app/errors"
	"devboot/internal/app/fault"
	"devboot/internal/app/platform"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// ReserveOptions controls conflict resolution for one reservation
type ReserveOptions struct {
	AutoKill   bool
	MaxRetries int
	RetryDelay time.Duration
	// Strict disables the fallback scan, failing instead when the preferred port stays busy
	Strict bool
}

// Reservation is an in-memory claim on a port for the duration of one run
type Reservation struct {
	Service    string               `json:"service"`
	Port       int                  `json:"port"`
	ReservedAt time.Time            `json:"reservedAt"`
	Freed      *platform.ProcessRef `json:"freed,omitempty"`
	Fallback   bool                 `json:"fallback,omitempty"`
}

// PortHealth is the state of one well-known service port
type PortHealth struct {
	Port      int                  `json:"port"`
	Available bool                 `json:"available"`
	Owner     *platform.ProcessRef `json:"owner,omitempty"`
}

// Manager reserves, verifies and releases ports for named services
//
//go:generate mockgen -source=ports.go -destination=ports_mock.go -package=ports
type Manager interface {
	IsAvailable(port int) bool
	FindAvailable(start, end int) (int, error)
	Reserve(ctx context.Context, service string, preferred int, opts ReserveOptions) (Reservation, error)
	Release(service string)
	Reservations() []Reservation
	HealthSnapshot() map[string]PortHealth
}

// probeFunc reports whether a port can be bound right now
type probeFunc func(port int) bool

// Option configures a manager
type Option func(*manager)

// WithProbe replaces the bind probe
func WithProbe(probe func(port int) bool) Option {
	return func(m *manager) {
		m.probe = probe
	}
}

// WithSleep replaces the retry delay function
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(m *manager) {
		m.sleep = sleep
	}
}

type manager struct {
	wellKnown map[string]int
	platform  platform.Platform
	bus       bus.Bus
	log       logger.Logger
	probe     probeFunc
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time

	mu       sync.Mutex
	services map[string]Reservation
	inUse    map[int]string
}

// NewManager creates a port manager with fresh per-run state
func NewManager(wellKnown map[string]int, p platform.Platform, b bus.Bus, log logger.Logger, opts ...Option) Manager {
	m := &manager{
		wellKnown: wellKnown,
		platform:  p,
		bus:       b,
		log:       log,
		probe:     canBind,
		sleep:     sleepContext,
		now:       time.Now,
		services:  make(map[string]Reservation),
		inUse:     make(map[int]string),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// IsAvailable binds a throwaway listener; any bind error means unavailable
func (m *manager) IsAvailable(port int) bool {
	return m.probe(port)
}

// FindAvailable scans [start, end] ascending, skipping ports reserved in this run
func (m *manager) FindAvailable(start, end int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.findAvailable(start, end)
}

func (m *manager) findAvailable(start, end int) (int, error) {
	start = max(start, config.MinPort)
	end = min(end, config.MaxPort)

	for port := start; port <= end; port++ {
		if _, reserved := m.inUse[port]; reserved {
			continue
		}

		if m.probe(port) {
			return port, nil
		}
	}

	return 0, fault.Wrap(fault.PortUnavailable, errors.ErrNoPortInRange, "no free port in %d-%d", start, end).
		WithDetail("start", strconv.Itoa(start)).
		WithDetail("end", strconv.Itoa(end))
}

// Reserve claims preferred for service, killing its owner when allowed, and otherwise falls back to the next free port
func (m *manager) Reserve(ctx context.Context, service string, preferred int, opts ReserveOptions) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.services[service]; ok {
		return existing, nil
	}

	if owner, ok := m.inUse[preferred]; ok {
		if opts.Strict {
			return Reservation{}, fault.Wrap(fault.PortBindFailed, errors.ErrPortReserved, "port %d already reserved for '%s'", preferred, owner).
				WithDetail("port", strconv.Itoa(preferred)).
				WithDetail("service", service)
		}

		return m.fallback(service, preferred)
	}

	retries := max(opts.MaxRetries, 1)

	var freed *platform.ProcessRef

	for attempt := 1; attempt <= retries; attempt++ {
		if m.probe(preferred) {
			return m.reserve(service, preferred, freed, false), nil
		}

		m.log.Warn().Msgf("Port %d for '%s' is in use (attempt %d/%d)", preferred, service, attempt, retries)

		if opts.AutoKill {
			if ref := m.kill(service, preferred, attempt > 1); ref != nil {
				freed = ref

				if err := m.sleep(ctx, config.PortKillSettle); err != nil {
					return Reservation{}, err
				}

				if m.probe(preferred) {
					return m.reserve(service, preferred, freed, false), nil
				}
			}
		}

		if attempt == retries {
			break
		}

		delay := opts.RetryDelay * time.Duration(1<<(attempt-1))
		if err := m.sleep(ctx, delay); err != nil {
			return Reservation{}, err
		}
	}

	if opts.Strict {
		return Reservation{}, fault.Wrap(fault.PortUnavailable, errors.ErrPortUnavailable, "port %d for '%s' could not be freed", preferred, service).
			WithDetail("port", strconv.Itoa(preferred)).
			WithDetail("service", service)
	}

	return m.fallback(service, preferred)
}

// Release drops the reservation of service; unknown services are ignored
func (m *manager) Release(service string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.services[service]
	if !ok {
		return
	}

	delete(m.services, service)
	delete(m.inUse, r.Port)

	m.log.Debug().Msgf("Released port %d for '%s'", r.Port, service)

	m.bus.Publish(bus.Message{
		Type: bus.EventPortReleased,
		Data: bus.PortReleased{Service: service, Port: r.Port},
	})
}

// Reservations returns the current reservations ordered by port
func (m *manager) Reservations() []Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Reservation, 0, len(m.services))
	for _, r := range m.services {
		result = append(result, r)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Port < result[j].Port
	})

	return result
}

// HealthSnapshot reports availability and ownership of the well-known service ports
func (m *manager) HealthSnapshot() map[string]PortHealth {
	snapshot := make(map[string]PortHealth, len(m.wellKnown))

	for service, port := range m.wellKnown {
		health := PortHealth{Port: port, Available: m.probe(port)}

		if !health.Available {
			if ref, err := m.platform.ProcessOwningPort(port); err == nil {
				health.Owner = ref
			}
		}

		snapshot[service] = health
	}

	return snapshot
}

func (m *manager) fallback(service string, preferred int) (Reservation, error) {
	port, err := m.findAvailable(preferred+1, config.MaxPort)
	if err != nil {
		return Reservation{}, err
	}

	m.log.Warn().Msgf("Port %d unavailable for '%s', using %d instead", preferred, service, port)

	return m.reserve(service, port, nil, true), nil
}

func (m *manager) reserve(service string, port int, freed *platform.ProcessRef, fallback bool) Reservation {
	r := Reservation{
		Service:    service,
		Port:       port,
		ReservedAt: m.now(),
		Freed:      freed,
		Fallback:   fallback,
	}

	m.services[service] = r
	m.inUse[port] = service

	m.log.Info().Msgf("Reserved port %d for '%s'", port, service)

	m.bus.Publish(bus.Message{
		Type: bus.EventPortReserved,
		Data: bus.PortReserved{Service: service, Port: port, Fallback: fallback},
	})

	return r
}

// kill terminates the owner of port, gracefully first and forced on later attempts
func (m *manager) kill(service string, port int, force bool) *platform.ProcessRef {
	ref, err := m.platform.ProcessOwningPort(port)
	if err != nil {
		m.log.Warn().Err(err).Msgf("Failed to resolve owner of port %d", port)
		return nil
	}

	if ref == nil {
		return nil
	}

	m.log.Info().Msgf("Killing '%s' (PID: %d) holding port %d for '%s'", ref.Name, ref.PID, port, service)

	if err := m.platform.KillProcess(*ref, force); err != nil {
		m.log.Warn().Err(err).Msgf("Failed to kill PID %d", ref.PID)
		return nil
	}

	m.bus.Publish(bus.Message{
		Type:     bus.EventPortFreed,
		Data:     bus.PortFreed{Service: service, Port: port, PID: ref.PID, Name: ref.Name},
		Critical: true,
	})

	return ref
}

func canBind(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}

	_ = l.Close()

	return true
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
