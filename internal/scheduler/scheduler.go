// Package scheduler provides cron-based scheduling of archive runs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is the callback invoked when a scheduled job fires. It should
// run one archive pass and return its failure, if any.
type JobFunc func(ctx context.Context) error

// JobStatus reports the state of one scheduled job.
type JobStatus struct {
	Name      string    `json:"name"`
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"last_run,omitempty"`
	NextRun   time.Time `json:"next_run"`
	Schedule  string    `json:"schedule"`
	LastError string    `json:"last_error,omitempty"`
}

// Scheduler manages cron-scheduled archive runs, keyed by job name
// (the mailbox identifier in practice).
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu        sync.RWMutex
	jobs      map[string]cron.EntryID
	funcs     map[string]JobFunc
	schedules map[string]string
	running   map[string]bool
	lastRun   map[string]time.Time
	lastErr   map[string]error

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// New creates an empty Scheduler using the standard 5-field cron
// syntax.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
		))),
		logger:    slog.Default(),
		jobs:      make(map[string]cron.EntryID),
		funcs:     make(map[string]JobFunc),
		schedules: make(map[string]string),
		running:   make(map[string]bool),
		lastRun:   make(map[string]time.Time),
		lastErr:   make(map[string]error),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// WithLogger sets the logger for the scheduler.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = logger
	return s
}

// Add schedules a job under the given name, replacing any existing
// schedule for that name. Overlapping runs of the same job are
// suppressed. Returns an error for an invalid cron expression.
func (s *Scheduler) Add(name, cronExpr string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.jobs[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		delete(s.funcs, name)
		delete(s.schedules, name)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.mu.Lock()
		if s.stopped || s.running[name] {
			s.mu.Unlock()
			return
		}
		s.running[name] = true
		s.wg.Add(1)
		s.mu.Unlock()
		s.runJob(name)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	s.jobs[name] = entryID
	s.funcs[name] = fn
	s.schedules[name] = cronExpr
	s.logger.Info("scheduled job",
		"name", name,
		"schedule", cronExpr,
		"next_run", s.cron.Entry(entryID).Next)
	return nil
}

// Remove drops the schedule for a job.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.jobs[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		delete(s.funcs, name)
		delete(s.schedules, name)
		s.logger.Info("removed schedule", "name", name)
	}
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.started = true
	s.stopped = false
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// IsRunning returns true between Start and Stop.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && !s.stopped
}

// Stop gracefully stops the scheduler, cancels running jobs, and
// returns a context that is done when all work completes.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("scheduler stopping")

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronCtx := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-done
		cancel()
	}()
	return ctx
}

// runJob executes one job. The caller must have called wg.Add(1) and
// set running[name] = true.
func (s *Scheduler) runJob(name string) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running[name] = false
		s.mu.Unlock()
	}()

	s.mu.RLock()
	fn := s.funcs[name]
	s.mu.RUnlock()

	s.logger.Info("starting scheduled run", "name", name)
	start := time.Now()

	err := fn(s.ctx)

	s.mu.Lock()
	if err != nil {
		s.lastErr[name] = err
		s.logger.Error("scheduled run failed",
			"name", name,
			"duration", time.Since(start),
			"error", err)
	} else {
		s.lastRun[name] = time.Now()
		s.lastErr[name] = nil
		s.logger.Info("scheduled run completed",
			"name", name,
			"duration", time.Since(start))
	}
	s.mu.Unlock()
}

// IsScheduled returns true if the job has been added.
func (s *Scheduler) IsScheduled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.jobs[name]
	return exists
}

// Trigger runs a job now, outside its schedule. Returns an error if
// the job is unknown, already running, or the scheduler is stopped.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}
	if _, exists := s.jobs[name]; !exists {
		return fmt.Errorf("job %s is not scheduled", name)
	}
	if s.running[name] {
		return fmt.Errorf("run already in progress for %s", name)
	}

	s.running[name] = true
	s.wg.Add(1)
	go s.runJob(name)
	return nil
}

// Status returns the current status of all scheduled jobs.
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var statuses []JobStatus
	for name, entryID := range s.jobs {
		entry := s.cron.Entry(entryID)
		status := JobStatus{
			Name:     name,
			Running:  s.running[name],
			LastRun:  s.lastRun[name],
			NextRun:  entry.Next,
			Schedule: s.schedules[name],
		}
		if err := s.lastErr[name]; err != nil {
			status.LastError = err.Error()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// ValidateCronExpr validates a cron expression without scheduling
// anything.
func ValidateCronExpr(expr string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}
