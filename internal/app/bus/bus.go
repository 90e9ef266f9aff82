package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// MessageType represents the type of message
type MessageType string

// Event types
const (
	EventPhaseChanged     MessageType = "phase_changed"
	EventCheckFailed      MessageType = "check_failed"
	EventProcessStarted   MessageType = "process_started"
	EventProcessOutput    MessageType = "process_output"
	EventProcessExited    MessageType = "process_exited"
	EventProcessTimedOut  MessageType = "process_timed_out"
	EventPortReserved     MessageType = "port_reserved"
	EventPortFreed        MessageType = "port_freed"
	EventPortReleased     MessageType = "port_released"
	EventRollbackExecuted MessageType = "rollback_executed"
	EventEscalated        MessageType = "escalated"
	EventMonitorAlert     MessageType = "monitor_alert"
	EventManifestChanged  MessageType = "manifest_changed"
	EventSignal           MessageType = "signal"
)

// Command types
const (
	CommandRestartRequested MessageType = "cmd_restart_requested"
)

// Message represents a bus message (event or command)
type Message struct {
	Type      MessageType
	Timestamp time.Time
	Data      interface{}
	Critical  bool
}

// PhaseChanged indicates an orchestrator phase transition
type PhaseChanged struct {
	From string
	To   string
}

// CheckFailed indicates a phase check failed before recovery
type CheckFailed struct {
	Phase string
	Check string
	Error error
}

// ProcessEvent is the base struct for process-related events
type ProcessEvent struct {
	ID      string
	Command string
}

// ProcessStarted indicates an asynchronous process was spawned
type ProcessStarted struct {
	ProcessEvent
	PID int
}

// ProcessOutput carries one line of process output
type ProcessOutput struct {
	ProcessEvent
	Stream string
	Line   string
}

// ProcessExited indicates a process has exited
type ProcessExited struct {
	ProcessEvent
	ExitCode int
	Duration time.Duration
}

// ProcessTimedOut indicates a process was terminated by its timeout
type ProcessTimedOut struct {
	ProcessEvent
	Timeout time.Duration
}

// PortReserved indicates a port was reserved for a service
type PortReserved struct {
	Service  string
	Port     int
	Fallback bool
}

// PortFreed indicates the process owning a port was killed
type PortFreed struct {
	Service string
	Port    int
	PID     int
	Name    string
}

// PortReleased indicates a service reservation was dropped
type PortReleased struct {
	Service string
	Port    int
}

// RollbackExecuted summarises a rollback run
type RollbackExecuted struct {
	Actions int
	Failed  int
}

// Escalated indicates a failure was escalated to the operator
type Escalated struct {
	Code string
	Dump string
}

// RestartRequested asks the owner of a service to restart it
type RestartRequested struct {
	Service string
	Code    string
}

// MonitorAlert indicates a self-check crossed a threshold
type MonitorAlert struct {
	Check   string
	Message string
}

// ManifestChanged indicates the dependency manifest changed on disk
type ManifestChanged struct {
	Path    string
	Removed bool
	Events  int
}

// Signal contains information about a received OS signal
type Signal struct {
	Name string
}

// Bus handles pub/sub messaging
type Bus interface {
	Subscribe(ctx context.Context) <-chan Message
	Publish(msg Message)
	Close()
}

// bus implements the Bus interface with pub/sub messaging
type bus struct {
	buffer      int
	subscribers []chan Message
	mu          sync.RWMutex
	closed      bool
	log         logger.Logger
}

// New creates a new Bus
func New(log logger.Logger) Bus {
	return NewWithBuffer(config.BusBufferSize, log)
}

// NewWithBuffer creates a new Bus whose subscriber channels hold size messages
func NewWithBuffer(size int, log logger.Logger) Bus {
	return &bus{
		buffer:      size,
		subscribers: make([]chan Message, 0),
		log:         log,
	}
}

// Subscribe creates a new subscription channel
func (b *bus) Subscribe(ctx context.Context) <-chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, b.buffer)

	if b.closed {
		close(ch)
		return ch
	}

	b.subscribers = append(b.subscribers, ch)

	go func() {
		<-ctx.Done()
		b.unsubscribe(ch)
	}()

	return ch
}

// Publish sends a message to all subscribers
func (b *bus) Publish(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	msg.Timestamp = time.Now()

	if b.log != nil && msg.Type != EventProcessOutput {
		b.log.Debug().Msgf("%s %s", msg.Type, formatData(msg.Data))
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			if msg.Critical {
				go func(c chan Message, m Message) {
					defer func() { recover() }()

					c <- m
				}(ch, msg)
			}
		}
	}
}

// Close closes all subscriber channels
func (b *bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for _, ch := range b.subscribers {
		close(ch)
	}

	b.subscribers = nil
}

func (b *bus) unsubscribe(ch chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)

			close(ch)

			break
		}
	}
}

func formatData(data interface{}) string {
	switch d := data.(type) {
	case PhaseChanged:
		return fmt.Sprintf("{from: %s, to: %s}", d.From, d.To)
	case CheckFailed:
		return fmt.Sprintf("{phase: %s, check: %s, error: %v}", d.Phase, d.Check, d.Error)
	case ProcessStarted:
		return fmt.Sprintf("{id: %s, command: %s, pid: %d}", d.ID, d.Command, d.PID)
	case ProcessExited:
		return fmt.Sprintf("{id: %s, exit: %d, duration: %s}", d.ID, d.ExitCode, d.Duration)
	case ProcessTimedOut:
		return fmt.Sprintf("{id: %s, timeout: %s}", d.ID, d.Timeout)
	case PortReserved:
		return fmt.Sprintf("{service: %s, port: %d, fallback: %t}", d.Service, d.Port, d.Fallback)
	case PortFreed:
		return fmt.Sprintf("{service: %s, port: %d, pid: %d, name: %s}", d.Service, d.Port, d.PID, d.Name)
	case PortReleased:
		return fmt.Sprintf("{service: %s, port: %d}", d.Service, d.Port)
	case RollbackExecuted:
		return fmt.Sprintf("{actions: %d, failed: %d}", d.Actions, d.Failed)
	case Escalated:
		return fmt.Sprintf("{code: %s, dump: %s}", d.Code, d.Dump)
	case RestartRequested:
		return fmt.Sprintf("{service: %s, code: %s}", d.Service, d.Code)
	case MonitorAlert:
		return fmt.Sprintf("{check: %s, message: %s}", d.Check, d.Message)
	case ManifestChanged:
		return fmt.Sprintf("{path: %s, removed: %t, events: %d}", d.Path, d.Removed, d.Events)
	case Signal:
		return fmt.Sprintf("{signal: %s}", d.Name)
	default:
		return fmt.Sprintf("%+v", data)
	}
}

// NoOp returns a no-op bus for when messaging is disabled
func NoOp() Bus {
	return &noOpBus{}
}

// noOpBus implements Bus interface with no-op methods for testing
type noOpBus struct{}

func (n *noOpBus) Subscribe(ctx context.Context) <-chan Message {
	ch := make(chan Message)

	go func() {
		<-ctx.Done()
		close(ch)
	}()

	return ch
}

func (n *noOpBus) Publish(msg Message) {}
func (n *noOpBus) Close()              {}
