package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Job is one unit of periodic background work.
type Job func(ctx context.Context) error

// SchedulerConfig holds configuration for a Scheduler
type SchedulerConfig struct {
	// Name identifies the job in logs
	Name string

	// Interval is how often the job runs (default: 1h)
	Interval time.Duration

	// RunOnStart runs the job immediately instead of waiting one interval
	RunOnStart bool
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig(name string) SchedulerConfig {
	return SchedulerConfig{
		Name:       name,
		Interval:   time.Hour,
		RunOnStart: true,
	}
}

// Scheduler runs a Job on a fixed interval until stopped. Runs never
// overlap; a failing run is logged and the next tick proceeds normally.
type Scheduler struct {
	job    Job
	config SchedulerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	runs     int64
	failures int64
}

func NewScheduler(job Job, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	return &Scheduler{job: job, config: config}
}

// Start begins the loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler %s is already running", s.config.Name)
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Scheduler started",
		"job", s.config.Name,
		"interval", s.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Scheduler stopped gracefully", "job", s.config.Name)
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Scheduler stop timed out", "job", s.config.Name)
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run blocks, running the job until ctx is done. It is what errgroup
// supervised workers call.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Scheduler) runLoop(ctx context.Context) {
	s.mu.Lock()
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()
	defer close(doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.RunOnce(ctx)
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes the job a single time and records the outcome.
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	atomic.AddInt64(&s.runs, 1)
	if err := s.job(ctx); err != nil {
		atomic.AddInt64(&s.failures, 1)
		slog.ErrorContext(ctx, "Scheduled job failed",
			"job", s.config.Name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return
	}
	slog.DebugContext(ctx, "Scheduled job finished",
		"job", s.config.Name,
		"duration_ms", time.Since(start).Milliseconds())
}

// SchedulerMetrics counts runs since start.
type SchedulerMetrics struct {
	Runs     int64
	Failures int64
}

func (s *Scheduler) GetMetrics() SchedulerMetrics {
	return SchedulerMetrics{
		Runs:     atomic.LoadInt64(&s.runs),
		Failures: atomic.LoadInt64(&s.failures),
	}
}
