package orchestrator

import (
	"context"
	"time"

	"devboot/internal/app/bus"
	"devboot/internal/app/errors"
	"devboot/internal/app/monitor"
	"devboot/internal/app/platform"
	"devboot/internal/app/ports"
	"devboot/internal/app/readiness"
	"devboot/internal/app/recovery"
	"devboot/internal/app/report"
	"devboot/internal/app/runner"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

// Options are the operator switches of one run
type Options struct {
	SkipInstall bool
	NoMonitor   bool
}

// Result is the outcome of one run
type Result struct {
	Phase      Phase
	Report     report.DiagnosticReport
	ReportPath string
	Ports      map[string]int
	Install    *runner.Result
	Service    *runner.Handle
	Monitoring bool
	Err        error
}

// Succeeded reports whether the run completed without unrecovered errors
func (r *Result) Succeeded() bool {
	return r.Err == nil && r.Phase == Completed && len(r.Report.Errors) == 0
}

// Interrupted reports whether the operator cancelled the run
func (r *Result) Interrupted() bool {
	return errors.Is(r.Err, errors.ErrRunInterrupted)
}

// Orchestrator sequences the bootstrap phases
//
//go:generate mockgen -source=orchestrator.go -destination=orchestrator_mock.go -package=orchestrator
type Orchestrator interface {
	Run(ctx context.Context, opts Options) *Result
}

// Option configures an orchestrator
type Option func(*orchestrator)

// WithPortOptions passes options to the port manager created for each run
func WithPortOptions(opts ...ports.Option) Option {
	return func(o *orchestrator) {
		o.portOpts = append(o.portOpts, opts...)
	}
}

// WithSleep replaces the pause between retries of a failed check
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *orchestrator) {
		o.sleep = sleep
	}
}

type orchestrator struct {
	cfg      *config.Config
	platform platform.Platform
	runner   runner.Runner
	checker  readiness.Checker
	monitor  monitor.Monitor
	notifier recovery.Notifier
	bus      bus.Bus
	log      logger.Logger
	portOpts []ports.Option
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator creates an orchestrator; every Run builds its own port manager, rollback stack and report
func NewOrchestrator(
	cfg *config.Config,
	p platform.Platform,
	r runner.Runner,
	checker readiness.Checker,
	m monitor.Monitor,
	notifier recovery.Notifier,
	b bus.Bus,
	log logger.Logger,
	opts ...Option,
) Orchestrator {
	o := &orchestrator{
		cfg:      cfg,
		platform: p,
		runner:   r,
		checker:  checker,
		monitor:  m,
		notifier: notifier,
		bus:      b,
		log:      log,
		sleep:    sleepContext,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run executes every phase in order and always writes the diagnostic report
func (o *orchestrator) Run(ctx context.Context, opts Options) *Result {
	r := o.newRun(opts)
	defer r.handler.Guard()

	err := r.execute(ctx)

	return r.finish(err)
}

func (o *orchestrator) newRun(opts Options) *run {
	stack := recovery.NewStack(o.log.WithComponent("ROLLBACK"))

	return &run{
		cfg:       o.cfg,
		opts:      opts,
		platform:  o.platform,
		runner:    o.runner,
		checker:   o.checker,
		monitor:   o.monitor,
		bus:       o.bus,
		log:       o.log,
		ports:     ports.NewManager(o.cfg.Ports.WellKnown, o.platform, o.bus, o.log.WithComponent("PORTS"), o.portOpts...),
		stack:     stack,
		handler:   recovery.NewHandler(o.cfg, stack, o.bus, o.notifier, o.log.WithComponent("RECOVERY")),
		collector: report.NewCollector(),
		fsm:       newPhaseFSM(o.bus, o.log),
		policy:    runner.PolicyFromConfig(o.cfg.Retry),
		sleep:     o.sleep,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
