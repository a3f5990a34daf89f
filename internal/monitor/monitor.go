package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/prodcheck/internal/metrics"
	"github.com/nao1215/prodcheck/internal/model"
	"github.com/robfig/cron/v3"
)

// RunFunc performs one validation run. It returns the run even when it
// fails part way so that partial results are still recorded.
type RunFunc func(ctx context.Context) (*model.Run, error)

// Store keeps completed runs.
type Store interface {
	SaveRun(ctx context.Context, run *model.Run) error
	PruneRuns(ctx context.Context, kind model.RunKind, keep int) (int64, error)
}

// Monitor runs a RunFunc on a cron schedule.
type Monitor struct {
	schedule  string
	runFunc   RunFunc
	store     Store
	collector *metrics.Collector
	keep      int
	observer  func(*model.Run)
	logger    *slog.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithStore saves every run to store.
func WithStore(store Store) Option {
	return func(m *Monitor) {
		m.store = store
	}
}

// WithCollector records every run in collector.
func WithCollector(collector *metrics.Collector) Option {
	return func(m *Monitor) {
		m.collector = collector
	}
}

// WithKeep prunes the store to the newest keep runs of each kind after
// every save. Zero keeps all runs.
func WithKeep(keep int) Option {
	return func(m *Monitor) {
		m.keep = keep
	}
}

// WithObserver calls fn with every completed run.
func WithObserver(fn func(*model.Run)) Option {
	return func(m *Monitor) {
		m.observer = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// New creates a monitor that calls runFunc on schedule, a standard cron
// expression or a descriptor such as "@every 1h".
func New(schedule string, runFunc RunFunc, opts ...Option) *Monitor {
	m := &Monitor{
		schedule: schedule,
		runFunc:  runFunc,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.logger = m.logger.With("component", "monitor")
	return m
}

// Start schedules the runs and returns immediately. The monitor stops when
// ctx is done or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	if _, err := cron.ParseStandard(m.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", m.schedule, err)
	}

	// A fresh scheduler per start keeps the schedule registered once.
	c := cron.New()
	if _, err := c.AddFunc(m.schedule, func() {
		if _, err := m.RunOnce(ctx); err != nil {
			m.logger.Error("scheduled run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule run: %w", err)
	}

	c.Start()
	m.cron = c
	m.running = true

	m.logger.Info("monitor started", "schedule", m.schedule, "keep", m.keep)

	go func() {
		<-ctx.Done()
		m.stop(c)
	}()

	return nil
}

// RunOnce performs one run and records it. Recording failures are logged;
// only the run's own error is returned.
func (m *Monitor) RunOnce(ctx context.Context) (*model.Run, error) {
	run, err := m.runFunc(ctx)
	if run == nil {
		return nil, err
	}

	if m.collector != nil {
		m.collector.Observe(run)
	}

	if m.store != nil {
		m.record(ctx, run)
	}

	if m.observer != nil {
		m.observer(run)
	}

	return run, err
}

// record saves run and prunes old runs of the same kind.
func (m *Monitor) record(ctx context.Context, run *model.Run) {
	if err := m.store.SaveRun(ctx, run); err != nil {
		m.logger.Error("failed to save run", "run", run.ID, "error", err)
		return
	}

	if m.keep <= 0 {
		return
	}

	deleted, err := m.store.PruneRuns(ctx, run.Kind, m.keep)
	if err != nil {
		m.logger.Error("failed to prune runs", "kind", run.Kind, "error", err)
		return
	}
	if deleted > 0 {
		m.logger.Debug("pruned old runs", "kind", run.Kind, "deleted", deleted)
	}
}

// Stop stops the scheduler and waits for a running job to complete.
func (m *Monitor) Stop() {
	m.stop(nil)
}

// stop stops the current scheduler. A non-nil c only stops it when it is
// still the current one, so a stale context cannot stop a later start.
func (m *Monitor) stop(c *cron.Cron) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running || (c != nil && c != m.cron) {
		return
	}

	<-m.cron.Stop().Done()
	m.running = false
	m.logger.Info("monitor stopped")
}

// IsRunning reports whether runs are scheduled.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.running
}

// NextRun returns the time of the next scheduled run, or nil when the
// monitor is not running.
func (m *Monitor) NextRun() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	entries := m.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
