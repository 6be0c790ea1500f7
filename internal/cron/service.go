package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/metrics"
)

const defaultInterval = 2 * time.Minute

// ErrLocked reports that another replica holds the cron lock.
var ErrLocked = errors.New("cron lock held by another instance")

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	Now      func() time.Time
}

// Service executes registered cron jobs on a fixed cadence.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		now:      now,
	}, nil
}

// Run ticks immediately and then every interval until ctx is canceled. Job
// failures are logged and never stop the loop.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	err := s.RunOnce(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrLocked):
		s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
	case errors.Is(err, context.Canceled):
	default:
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "scheduled run finished with failures")
	}
}

// RunOnce runs one locked cycle. With names it runs only those jobs, in
// registry order. Job failures are combined into the returned error.
func (s *Service) RunOnce(ctx context.Context, names ...string) error {
	jobs, err := s.selectJobs(names)
	if err != nil {
		return err
	}

	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.metrics.IncSkipped()
		return ErrLocked
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	s.logg.Info(s.logg.WithField(ctx, "jobs", len(jobs)), "scheduled run starting")
	var failures error
	for _, job := range jobs {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return multierr.Append(failures, ctxErr)
		}
		if err := s.runJob(ctx, job); err != nil {
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	s.logg.Info(s.logg.WithField(ctx, "failed_jobs", len(multierr.Errors(failures))), "scheduled run complete")
	return failures
}

func (s *Service) selectJobs(names []string) ([]Job, error) {
	if len(names) == 0 {
		return s.registry.Jobs(), nil
	}
	wanted := map[string]bool{}
	for _, name := range names {
		if _, ok := s.registry.Lookup(name); !ok {
			return nil, fmt.Errorf("unknown cron job %q (known: %v)", name, s.registry.Names())
		}
		wanted[name] = true
	}
	var jobs []Job
	for _, job := range s.registry.Jobs() {
		if wanted[job.Name()] {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	s.logg.Info(jobCtx, "job start")

	start := s.now()
	err := job.Run(jobCtx)
	duration := s.now().Sub(start)
	s.metrics.ObserveDuration(job.Name(), duration)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		return err
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
	s.metrics.SetLastSuccess(job.Name(), s.now())
	return nil
}
