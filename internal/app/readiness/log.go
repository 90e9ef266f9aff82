package readiness

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"devboot/internal/app/errors"
)

// OutputChecker waits for a line of process output matching a pattern
type OutputChecker struct {
	pattern *regexp.Regexp
	timeout time.Duration
	ready   chan struct{}
	once    sync.Once
}

// NewOutputChecker creates a new output pattern readiness checker
func NewOutputChecker(pattern string, timeout time.Duration) (*OutputChecker, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidReadyPattern, err)
	}

	return &OutputChecker{
		pattern: re,
		timeout: timeout,
		ready:   make(chan struct{}),
	}, nil
}

// AddLine matches an output line against the pattern; the first match latches readiness
func (o *OutputChecker) AddLine(line string) {
	select {
	case <-o.ready:
		return
	default:
	}

	if o.pattern.MatchString(line) {
		o.once.Do(func() { close(o.ready) })
	}
}

// Wait blocks until a matching line was seen; exited is closed when the process ends first
func (o *OutputChecker) Wait(ctx context.Context, exited <-chan struct{}) error {
	deadline := time.NewTimer(o.timeout)
	defer deadline.Stop()

	select {
	case <-o.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-deadline.C:
		return fmt.Errorf("%w: no output matching %q after %s", errors.ErrReadinessTimeout, o.pattern, o.timeout)
	case <-exited:
		select {
		case <-o.ready:
			return nil
		default:
			return errors.ErrProcessExitedEarly
		}
	}
}
