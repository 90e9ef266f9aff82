package orchestrator

import (
	"context"

	"github.com/looplab/fsm"

	"devboot/internal/app/bus"
	"devboot/internal/config/logger"
)

// Phase is one stage of the bootstrap sequence
type Phase string

// Phases in execution order, followed by the terminal states
const (
	Pending      Phase = "Pending"
	Preflight    Phase = "Preflight"
	Cleanup      Phase = "Cleanup"
	Dependencies Phase = "Dependencies"
	Validation   Phase = "Validation"
	ServiceStart Phase = "ServiceStart"
	Monitoring   Phase = "Monitoring"
	Completed    Phase = "Completed"
	Aborted      Phase = "Aborted"
)

// Sequence lists the non-terminal phases in order
var Sequence = []Phase{Preflight, Cleanup, Dependencies, Validation, ServiceStart, Monitoring}

// FSM events
const (
	eventComplete = "complete"
	eventAbort    = "abort"
)

// Terminal reports whether no further transition is possible
func (p Phase) Terminal() bool {
	return p == Completed || p == Aborted
}

// Mode decides how a failing check affects the run
type Mode int

const (
	// Optional failures are recorded as warnings
	Optional Mode = iota
	// Degrading failures are recorded as errors and the run continues
	Degrading
	// Required failures go through the recovery handler
	Required
	// Fatal failures are escalated immediately
	Fatal
)

// Check is one named step of a phase
type Check struct {
	Name string
	Mode Mode
	Run  func(ctx context.Context) error
}

// newPhaseFSM creates the forward-only phase machine; abort is allowed from every non-terminal phase
func newPhaseFSM(b bus.Bus, log logger.Logger) *fsm.FSM {
	events := fsm.Events{
		{Name: eventAbort, Src: []string{string(Pending)}, Dst: string(Aborted)},
	}

	prev := Pending
	for _, p := range Sequence {
		events = append(events, fsm.EventDesc{Name: eventFor(p), Src: []string{string(prev)}, Dst: string(p)})
		events[0].Src = append(events[0].Src, string(p))
		prev = p
	}

	events = append(events, fsm.EventDesc{Name: eventComplete, Src: []string{string(prev)}, Dst: string(Completed)})

	return fsm.NewFSM(
		string(Pending),
		events,
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				log.Info().Msgf("PHASE %s → %s", e.Src, e.Dst)

				b.Publish(bus.Message{
					Type:     bus.EventPhaseChanged,
					Data:     bus.PhaseChanged{From: e.Src, To: e.Dst},
					Critical: Phase(e.Dst).Terminal(),
				})
			},
		},
	)
}

func eventFor(p Phase) string {
	return "to_" + string(p)
}
