// Package pipeline schedules the background compliance jobs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work. RunOnce must respect ctx.
type Job interface {
	RunOnce(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

// RunOnce calls f.
func (f JobFunc) RunOnce(ctx context.Context) error { return f(ctx) }

// Schedule binds a named job to a standard five-field cron spec.
type Schedule struct {
	Name string
	Spec string
	Job  Job
	// Timeout bounds a single run; zero means no limit.
	Timeout time.Duration
}

// Orchestrator runs scheduled jobs until its context is cancelled. A job
// that is still running when its next tick fires is skipped for that tick.
type Orchestrator struct {
	schedules []Schedule
	location  *time.Location
	logger    *slog.Logger

	mu      sync.Mutex
	running map[string]bool
}

// NewOrchestrator creates an Orchestrator evaluating cron specs in loc.
func NewOrchestrator(schedules []Schedule, loc *time.Location, logger *slog.Logger) *Orchestrator {
	if loc == nil {
		loc = time.UTC
	}
	return &Orchestrator{
		schedules: schedules,
		location:  loc,
		logger:    logger.With(slog.String("component", "orchestrator")),
		running:   make(map[string]bool, len(schedules)),
	}
}

// Validate parses every spec without starting anything.
func (o *Orchestrator) Validate() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for _, s := range o.schedules {
		if _, err := parser.Parse(s.Spec); err != nil {
			return fmt.Errorf("pipeline: job %s: invalid cron %q: %w", s.Name, s.Spec, err)
		}
	}
	return nil
}

// Run registers every job and blocks until ctx is done, then waits for
// in-flight runs to finish.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.Validate(); err != nil {
		return err
	}

	c := cron.New(cron.WithLocation(o.location))
	for _, s := range o.schedules {
		if _, err := c.AddFunc(s.Spec, func() { o.runJob(ctx, s) }); err != nil {
			return fmt.Errorf("pipeline: schedule %s: %w", s.Name, err)
		}
		o.logger.Info("job scheduled",
			slog.String("job", s.Name),
			slog.String("cron", s.Spec),
		)
	}

	c.Start()
	o.logger.Info("orchestrator started", slog.Int("jobs", len(o.schedules)))

	<-ctx.Done()
	<-c.Stop().Done()
	o.logger.Info("orchestrator stopped cleanly")
	return nil
}

// RunNow executes the named job immediately, outside the schedule.
func (o *Orchestrator) RunNow(ctx context.Context, name string) error {
	for _, s := range o.schedules {
		if s.Name == name {
			return o.execute(ctx, s)
		}
	}
	return fmt.Errorf("pipeline: unknown job %q", name)
}

func (o *Orchestrator) runJob(ctx context.Context, s Schedule) {
	if ctx.Err() != nil {
		return
	}
	if err := o.execute(ctx, s); err != nil {
		o.logger.Error("job failed",
			slog.String("job", s.Name),
			slog.String("error", err.Error()),
		)
	}
}

func (o *Orchestrator) execute(ctx context.Context, s Schedule) error {
	if !o.begin(s.Name) {
		o.logger.Warn("previous run still in progress, skipping", slog.String("job", s.Name))
		return nil
	}
	defer o.end(s.Name)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := s.Job.RunOnce(ctx)
	o.logger.Info("job finished",
		slog.String("job", s.Name),
		slog.Duration("elapsed", time.Since(start)),
		slog.Bool("ok", err == nil),
	)
	if err != nil {
		return fmt.Errorf("pipeline: %s: %w", s.Name, err)
	}
	return nil
}

func (o *Orchestrator) begin(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running[name] {
		return false
	}
	o.running[name] = true
	return true
}

func (o *Orchestrator) end(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.running, name)
}

// Jobs returns the names of the scheduled jobs in registration order.
func (o *Orchestrator) Jobs() []string {
	names := make([]string, len(o.schedules))
	for i, s := range o.schedules {
		names[i] = s.Name
	}
	return names
}
