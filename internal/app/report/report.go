package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"devboot/internal/app/errors"
	"devboot/internal/app/fault"
	"devboot/internal/app/platform"
)

// Status is the overall outcome of a run
type Status string

// Report statuses
const (
	StatusSuccess    Status = "success"
	StatusWithErrors Status = "with_errors"
)

// Warning is a non-fatal problem observed during a run
type Warning struct {
	Phase     string     `json:"phase"`
	Check     string     `json:"check,omitempty"`
	Code      fault.Code `json:"errorCode,omitempty"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// DiagnosticReport is the persisted record of one run
type DiagnosticReport struct {
	Timestamp    time.Time           `json:"timestamp"`
	DurationMs   int64               `json:"durationMs"`
	FinalPhase   string              `json:"finalPhase"`
	FailedPhase  string              `json:"failedPhase,omitempty"`
	Status       Status              `json:"status"`
	Interrupted  bool                `json:"interrupted,omitempty"`
	Errors       []fault.Record      `json:"errors"`
	Warnings     []Warning           `json:"warnings"`
	FixesApplied []string            `json:"fixesApplied"`
	Ports        map[string]int      `json:"ports,omitempty"`
	SystemInfo   platform.SystemInfo `json:"systemInfo"`
}

// Write persists the report as indented JSON, replacing any previous report atomically
func Write(path string, r DiagnosticReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return os.Rename(tmp, path)
}

// Read loads a report written by Write
func Read(path string) (DiagnosticReport, error) {
	var r DiagnosticReport

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, fmt.Errorf("%w: %s", errors.ErrReportNotFound, path)
	}

	if err != nil {
		return r, err
	}

	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to decode report %s: %w", path, err)
	}

	return r, nil
}

// Collector accumulates report content during a run
type Collector struct {
	mu       sync.Mutex
	started  time.Time
	now      func() time.Time
	errors   []fault.Record
	warnings []Warning
	fixes    []string
	ports    map[string]int
}

// NewCollector starts collecting at the current time
func NewCollector() *Collector {
	return newCollector(time.Now)
}

func newCollector(now func() time.Time) *Collector {
	return &Collector{started: now(), now: now, ports: make(map[string]int)}
}

// AddError records an unrecovered failure
func (c *Collector) AddError(record fault.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errors = append(c.errors, record)
}

// AddWarning records a non-fatal problem
func (c *Collector) AddWarning(phase, check, message string) {
	c.addWarning(Warning{Phase: phase, Check: check, Message: message})
}

// AddRecoveredWarning records a failure that was recovered from
func (c *Collector) AddRecoveredWarning(phase, check string, record fault.Record) {
	c.addWarning(Warning{Phase: phase, Check: check, Code: record.Code, Message: record.Message})
}

func (c *Collector) addWarning(w Warning) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w.Timestamp = c.now()
	c.warnings = append(c.warnings, w)
}

// AddFix records a corrective action applied automatically
func (c *Collector) AddFix(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fixes = append(c.fixes, fmt.Sprintf(format, args...))
}

// SetPort records the port assigned to a service
func (c *Collector) SetPort(service string, port int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ports[service] = port
}

// ErrorCount returns how many unrecovered failures were recorded
func (c *Collector) ErrorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.errors)
}

// Build produces the report for the current state of the run
func (c *Collector) Build(finalPhase string, info platform.SystemInfo, interrupted bool) DiagnosticReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := DiagnosticReport{
		Timestamp:    c.started,
		DurationMs:   c.now().Sub(c.started).Milliseconds(),
		FinalPhase:   finalPhase,
		Status:       StatusSuccess,
		Interrupted:  interrupted,
		Errors:       append([]fault.Record{}, c.errors...),
		Warnings:     append([]Warning{}, c.warnings...),
		FixesApplied: append([]string{}, c.fixes...),
		SystemInfo:   info,
	}

	if len(c.ports) > 0 {
		r.Ports = make(map[string]int, len(c.ports))
		for k, v := range c.ports {
			r.Ports[k] = v
		}
	}

	if len(r.Errors) > 0 || interrupted {
		r.Status = StatusWithErrors
	}

	return r
}

// Summary counts a report's failures for the final textual summary
type Summary struct {
	Errors     int
	BySeverity map[fault.Severity]int
	Warnings   int
	Fixes      int
}

// Summarize counts errors by severity
func Summarize(r DiagnosticReport) Summary {
	s := Summary{
		Errors:     len(r.Errors),
		BySeverity: make(map[fault.Severity]int),
		Warnings:   len(r.Warnings),
		Fixes:      len(r.FixesApplied),
	}

	for _, e := range r.Errors {
		s.BySeverity[e.Severity]++
	}

	return s
}

// String renders e.g. "2 errors (1 critical, 1 medium), 3 warnings, 1 fix applied"
func (s Summary) String() string {
	var b strings.Builder

	b.WriteString(plural(s.Errors, "error"))

	if s.Errors > 0 {
		severities := make([]fault.Severity, 0, len(s.BySeverity))
		for sev := range s.BySeverity {
			severities = append(severities, sev)
		}

		sort.Slice(severities, func(i, j int) bool { return severities[i] > severities[j] })

		parts := make([]string, 0, len(severities))
		for _, sev := range severities {
			parts = append(parts, fmt.Sprintf("%d %s", s.BySeverity[sev], sev))
		}

		b.WriteString(" (" + strings.Join(parts, ", ") + ")")
	}

	b.WriteString(", " + plural(s.Warnings, "warning"))

	if s.Fixes == 1 {
		b.WriteString(", 1 fix applied")
	} else {
		b.WriteString(fmt.Sprintf(", %d fixes applied", s.Fixes))
	}

	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}

	return fmt.Sprintf("%d %ss", n, noun)
}
