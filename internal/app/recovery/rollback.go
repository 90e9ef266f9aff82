package recovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"devboot/internal/config/logger"
)

// UndoFunc reverts one side effect
type UndoFunc func(ctx context.Context) error

// Action is a compensating step registered after a side effect succeeded
type Action struct {
	Description  string
	Undo         UndoFunc
	RegisteredAt time.Time
}

// ActionResult is the outcome of one undo step
type ActionResult struct {
	Description string `json:"description"`
	Error       string `json:"error,omitempty"`
}

// RollbackResult summarises one rollback execution
type RollbackResult struct {
	Actions []ActionResult
	Err     error
}

// Failed returns how many undo steps failed
func (r RollbackResult) Failed() int {
	n := 0

	for _, a := range r.Actions {
		if a.Error != "" {
			n++
		}
	}

	return n
}

// Stack is the LIFO list of compensating actions for one run
type Stack struct {
	mu      sync.Mutex
	actions []Action
	now     func() time.Time
	log     logger.Logger
}

// NewStack creates an empty rollback stack
func NewStack(log logger.Logger) *Stack {
	return &Stack{now: time.Now, log: log}
}

// Push registers an undo step
func (s *Stack) Push(description string, undo UndoFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actions = append(s.actions, Action{Description: description, Undo: undo, RegisteredAt: s.now()})
	s.log.Debug().Msgf("Registered rollback action '%s'", description)
}

// Len returns the number of pending actions
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.actions)
}

// Execute runs every pending action newest first; the stack is emptied before any action runs
func (s *Stack) Execute(ctx context.Context) RollbackResult {
	s.mu.Lock()
	actions := s.actions
	s.actions = nil
	s.mu.Unlock()

	var (
		merr    *multierror.Error
		results = make([]ActionResult, 0, len(actions))
	)

	for i := len(actions) - 1; i >= 0; i-- {
		a := actions[i]
		result := ActionResult{Description: a.Description}

		if err := s.run(ctx, a); err != nil {
			s.log.Error().Err(err).Msgf("Rollback action '%s' failed", a.Description)

			result.Error = err.Error()
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", a.Description, err))
		} else {
			s.log.Info().Msgf("Rolled back '%s'", a.Description)
		}

		results = append(results, result)
	}

	return RollbackResult{Actions: results, Err: merr.ErrorOrNil()}
}

func (s *Stack) run(ctx context.Context, a Action) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("panic: %v", v)
		}
	}()

	if a.Undo == nil {
		return nil
	}

	return a.Undo(ctx)
}
