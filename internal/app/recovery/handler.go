package recovery

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"devboot/internal/app/bus"
	"devboot/internal/app/fault"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// Strategy is the recovery action chosen for a failure
type Strategy string

// Recovery strategies
const (
	Retry    Strategy = "retry"
	Rollback Strategy = "rollback"
	Restart  Strategy = "restart"
	Ignore   Strategy = "ignore"
	Escalate Strategy = "escalate"
)

// Context locates a failure within a run
type Context struct {
	Phase   string            `json:"phase,omitempty"`
	Check   string            `json:"check,omitempty"`
	Service string            `json:"service,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

func (c Context) key(code fault.Code) string {
	// map keys are marshalled sorted so the key is stable
	data, _ := json.Marshal(c)
	return code.String() + "|" + string(data)
}

// Outcome is the result of handling one failure
type Outcome struct {
	Strategy Strategy
	Success  bool
	Record   fault.Record
	Attempt  int
	Rollback *RollbackResult
	Dump     string
}

// Handler classifies failures and applies recovery strategies for one run
type Handler struct {
	dumpDir  string
	stack    *Stack
	bus      bus.Bus
	notifier Notifier
	log      logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	attempts map[string]int
	records  []fault.Record
}

// NewHandler creates a handler that rolls back through stack and dumps into the configured emergency dir
func NewHandler(cfg *config.Config, stack *Stack, b bus.Bus, notifier Notifier, log logger.Logger) *Handler {
	if notifier == nil {
		notifier = noopNotifier{}
	}

	return &Handler{
		dumpDir:  cfg.Resolve(cfg.Report.EmergencyDir),
		stack:    stack,
		bus:      b,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		attempts: make(map[string]int),
	}
}

// Select picks the strategy for a failure code; attempts counts the current occurrence
func Select(code fault.Code, attempts int, pendingRollback int) Strategy {
	if attempts > config.MaxErrorAttempts {
		return Escalate
	}

	switch code.Severity() {
	case fault.Critical:
		if pendingRollback > 0 {
			return Rollback
		}

		return Restart
	case fault.High:
		if code.Category() == fault.CategoryPort {
			return Retry
		}

		return Rollback
	case fault.Medium:
		return Retry
	default:
		return Ignore
	}
}

// Handle records err, selects a strategy and executes it
func (h *Handler) Handle(ctx context.Context, err error, hc Context) Outcome {
	record := h.record(err, hc)
	attempt := h.count(record.Code, hc)
	strategy := Select(record.Code, attempt, h.stack.Len())

	h.log.Warn().
		Str("code", record.Code.String()).
		Str("severity", record.Severity.String()).
		Str("strategy", string(strategy)).
		Int("attempt", attempt).
		Msgf("Handling failure in %s", describe(hc))

	return h.execute(ctx, strategy, record, attempt, hc)
}

// Escalate records err and escalates it regardless of severity
func (h *Handler) Escalate(ctx context.Context, err error, hc Context) Outcome {
	record := h.record(err, hc)
	attempt := h.count(record.Code, hc)

	return h.execute(ctx, Escalate, record, attempt, hc)
}

// Records returns every failure handled so far
func (h *Handler) Records() []fault.Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]fault.Record, len(h.records))
	copy(out, h.records)

	return out
}

// Attempts returns how often code was seen with context hc
func (h *Handler) Attempts(code fault.Code, hc Context) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.attempts[hc.key(code)]
}

// Stack returns the rollback stack the handler executes
func (h *Handler) Stack() *Stack {
	return h.stack
}

func (h *Handler) record(err error, hc Context) fault.Record {
	record := fault.FromError(err, fault.SystemInitFailed, h.now())
	if record.Details == nil && (hc.Phase != "" || hc.Check != "") {
		record.Details = make(map[string]string, 2)
	}

	if hc.Phase != "" {
		record.Details["phase"] = hc.Phase
	}

	if hc.Check != "" {
		record.Details["check"] = hc.Check
	}

	h.mu.Lock()
	h.records = append(h.records, record)
	h.mu.Unlock()

	return record
}

func (h *Handler) count(code fault.Code, hc Context) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := hc.key(code)
	h.attempts[key]++

	return h.attempts[key]
}

func (h *Handler) execute(ctx context.Context, strategy Strategy, record fault.Record, attempt int, hc Context) Outcome {
	outcome := Outcome{Strategy: strategy, Record: record, Attempt: attempt}

	switch strategy {
	case Retry, Ignore:
		outcome.Success = true
	case Restart:
		service := hc.Service
		if service == "" {
			service = hc.Check
		}

		h.bus.Publish(bus.Message{
			Type:     bus.CommandRestartRequested,
			Data:     bus.RestartRequested{Service: service, Code: record.Code.String()},
			Critical: true,
		})

		outcome.Success = true
	case Rollback:
		result := h.stack.Execute(ctx)
		outcome.Rollback = &result

		h.bus.Publish(bus.Message{
			Type: bus.EventRollbackExecuted,
			Data: bus.RollbackExecuted{Actions: len(result.Actions), Failed: result.Failed()},
		})
	case Escalate:
		outcome.Dump = h.escalate(ctx, record, attempt, hc)
	}

	return outcome
}

func (h *Handler) escalate(ctx context.Context, record fault.Record, attempt int, hc Context) string {
	path, err := writeDump(h.dumpDir, Dump{
		Timestamp:       h.now(),
		Reason:          "escalated",
		Record:          record,
		Context:         hc,
		Attempts:        attempt,
		Errors:          h.Records(),
		PendingRollback: h.stack.Len(),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to write emergency dump")
	} else {
		h.log.Error().Msgf("Escalated %s, emergency dump written to %s", record.Code, path)
	}

	if err := h.notifier.Notify(ctx, record, hc, path); err != nil {
		h.log.Warn().Err(err).Msg("Failed to notify escalation")
	}

	h.bus.Publish(bus.Message{
		Type:     bus.EventEscalated,
		Data:     bus.Escalated{Code: record.Code.String(), Dump: path},
		Critical: true,
	})

	return path
}

func describe(hc Context) string {
	switch {
	case hc.Phase != "" && hc.Check != "":
		return hc.Phase + "/" + hc.Check
	case hc.Phase != "":
		return hc.Phase
	case hc.Check != "":
		return hc.Check
	default:
		return "run"
	}
}
