// Package scheduler runs recurring maintenance jobs on cron schedules. The
// scheduler owns its jobs' lifecycle: Start hands every job a context that
// Stop cancels, so in-flight runs can wind down cleanly.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RunRecorder receives the outcome of every job run. Implemented by the
// job metrics instruments.
type RunRecorder interface {
	RecordRun(job string, duration time.Duration, err error)
}

// Job is one recurring task. Spec is a cron expression, `@every` included.
// When RunAtStart is set the job also fires once as soon as the scheduler
// starts.
type Job struct {
	Name       string
	Spec       string
	RunAtStart bool
	Run        func(ctx context.Context) error
}

// Scheduler runs registered jobs until Stop is called.
type Scheduler struct {
	logger   zerolog.Logger
	cron     *cron.Cron
	jobs     []Job
	recorder RunRecorder

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a scheduler. recorder may be nil when job metrics are not wanted.
func New(logger zerolog.Logger, recorder RunRecorder) *Scheduler {
	return &Scheduler{
		logger:   logger.With().Str("component", "scheduler").Logger(),
		cron:     cron.New(),
		recorder: recorder,
	}
}

// Add registers a job. Must be called before Start; entries are installed
// in Start once the run context exists.
func (s *Scheduler) Add(job Job) error {
	if err := validateSpec(job.Spec); err != nil {
		return err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Start schedules all registered jobs and launches the cron loop. Jobs with
// RunAtStart fire immediately in their own goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, job := range s.jobs {
		job := job
		run := func() {
			if runCtx.Err() != nil {
				return
			}
			start := time.Now()
			err := job.Run(runCtx)
			if s.recorder != nil {
				s.recorder.RecordRun(job.Name, time.Since(start), err)
			}
			if err != nil {
				s.logger.Error().Err(err).Str("job", job.Name).Msg("scheduled job failed")
			}
		}
		if _, err := s.cron.AddFunc(job.Spec, run); err != nil {
			cancel()
			return fmt.Errorf("scheduling %s: %w", job.Name, err)
		}
		s.logger.Info().Str("job", job.Name).Str("spec", job.Spec).Msg("job scheduled")
		if job.RunAtStart {
			go run()
		}
	}

	s.cron.Start()
	return nil
}

// Stop cancels the job context and waits for in-flight runs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validateSpec(spec string) error {
	_, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}
