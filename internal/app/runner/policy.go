package runner

import (
	"fmt"
	"math"
	"strings"
	"time"

	"devboot/internal/config"
)

// Policy is the retry policy of one RunWithRetry call
type Policy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	Timeout           time.Duration
}

// PolicyFromConfig converts the configured retry section
func PolicyFromConfig(r config.Retry) Policy {
	return Policy{
		MaxAttempts:       r.MaxAttempts,
		InitialDelay:      r.InitialDelay,
		BackoffMultiplier: r.BackoffMultiplier,
		Timeout:           r.Timeout,
	}
}

// Delay returns the pause after the given failed attempt: InitialDelay * Multiplier^(attempt-1)
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	multiplier := p.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}

	return time.Duration(float64(p.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
}

// IsCritical reports whether cmd matches an entry of the critical command table
func (r *runner) IsCritical(cmd Command) bool {
	return len(r.matching(cmd)) > 0
}

// CleanupFor returns the paths cleared before a failed critical command is retried
func (r *runner) CleanupFor(cmd Command) []string {
	var paths []string

	seen := make(map[string]bool)

	for _, rule := range r.matching(cmd) {
		for _, p := range rule.Cleanup {
			if seen[p] {
				continue
			}

			seen[p] = true
			paths = append(paths, p)
		}
	}

	return paths
}

func (r *runner) matching(cmd Command) []config.CriticalRule {
	line := cmd.String()

	var rules []config.CriticalRule

	for _, rule := range r.rules {
		if rule.Match != "" && strings.Contains(line, rule.Match) {
			rules = append(rules, rule)
		}
	}

	return rules
}

// attempt is one failed invocation kept for the exhaustion report
type attempt struct {
	number   int
	exitCode int
	err      error
	duration time.Duration
}

func newAttempt(n int, result *Result, err error, d time.Duration) attempt {
	a := attempt{number: n, exitCode: -1, err: err, duration: d}
	if result != nil {
		a.exitCode = result.ExitCode
	}

	return a
}

func (a attempt) String() string {
	return fmt.Sprintf("exit=%d duration=%s error=%v", a.exitCode, a.duration.Round(time.Millisecond), a.err)
}
