// Package orchestrator runs the configured creator jobs sequentially under a
// single-instance lock: fetch, then the post-processing pipeline, with a
// politeness pause between jobs. One panicking or failing job never stops
// the rest of the batch.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"creatorsync/internal/classify"
	"creatorsync/internal/config"
	"creatorsync/internal/logging"
	"creatorsync/internal/organizer"
	"creatorsync/internal/services"
	"creatorsync/internal/supervisor"
)

// ErrAlreadyRunning reports a second concurrent invocation.
var ErrAlreadyRunning = errors.New("another creatorsync run is already in progress")

// JobRunner is the slice of the supervisor the orchestrator needs.
type JobRunner interface {
	Run(ctx context.Context, creator config.Creator) (supervisor.Result, error)
}

// Pipeline is the slice of the post-processing pipeline the orchestrator needs.
type Pipeline interface {
	OrganizeCreator(ctx context.Context, name string) (organizer.Summary, error)
}

// JobReport captures what happened to one creator during a run.
type JobReport struct {
	Creator      string
	Outcome      classify.Outcome
	ProbeVerdict supervisor.ProbeVerdict
	ExitCode     int
	ErrorCount   int
	Duration     time.Duration
	Organized    organizer.Summary
	// Err holds the job-level fault, if any: precondition refusals, launch
	// failures, or a recovered panic.
	Err string
}

// RunSummary is the final accounting for a whole batch.
type RunSummary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Jobs     []JobReport
}

// Counts tallies job verdicts for the summary table footer.
func (s *RunSummary) Counts() (succeeded, degraded, failed int) {
	for _, job := range s.Jobs {
		switch job.Outcome.Kind {
		case classify.OutcomeSuccess:
			succeeded++
		case classify.OutcomeDegradedBenign:
			degraded++
		default:
			failed++
		}
	}
	return succeeded, degraded, failed
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithClock injects the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSleep injects the inter-job pause implementation (tests).
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// Orchestrator owns one batch run.
type Orchestrator struct {
	cfg      *config.Config
	runner   JobRunner
	pipeline Pipeline
	logger   *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration)
}

// New constructs an orchestrator.
func New(cfg *config.Config, runner JobRunner, pipeline Pipeline, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if runner == nil {
		return nil, errors.New("job runner required")
	}
	if pipeline == nil {
		return nil, errors.New("pipeline required")
	}
	o := &Orchestrator{
		cfg:      cfg,
		runner:   runner,
		pipeline: pipeline,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes every configured creator job in order. The batch itself only
// errors on environment faults (lock contention, missing directories); job
// failures are reported per entry in the summary.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, error) {
	if err := o.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrPrecondition, "", "run", "prepare directories", err)
	}

	lock := flock.New(o.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrPrecondition, "", "run", "acquire instance lock", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			o.logger.Warn("failed to release instance lock", logging.Error(err))
		}
	}()

	summary := &RunSummary{RunID: uuid.NewString(), Started: o.now()}
	ctx = services.WithRunID(ctx, summary.RunID)
	log := logging.WithContext(ctx, o.logger)

	log.Info("run starting",
		slog.Int("creators", len(o.cfg.Creators)),
		slog.String("lock", o.cfg.LockPath()))

	for index, creator := range o.cfg.Creators {
		if ctx.Err() != nil {
			log.Warn("run cancelled", slog.Int("remaining", len(o.cfg.Creators)-index))
			break
		}
		summary.Jobs = append(summary.Jobs, o.runJob(ctx, creator))

		// Politeness pause between jobs, skipped after the last one.
		if index < len(o.cfg.Creators)-1 {
			o.sleep(ctx, o.cfg.InterJobDelay())
		}
	}

	summary.Finished = o.now()
	succeeded, degraded, failed := summary.Counts()
	log.Info("run finished",
		slog.Int("succeeded", succeeded),
		slog.Int("degraded", degraded),
		slog.Int("failed", failed),
		slog.Duration("elapsed", summary.Finished.Sub(summary.Started)))
	return summary, nil
}

// runJob isolates one creator: a panic in the supervisor or the pipeline is
// recovered and reported as that job's fault.
func (o *Orchestrator) runJob(ctx context.Context, creator config.Creator) (report JobReport) {
	report.Creator = creator.Name
	log := logging.WithContext(services.WithCreator(ctx, creator.Name), o.logger)

	defer func() {
		if recovered := recover(); recovered != nil {
			report.Err = fmt.Sprintf("panic: %v", recovered)
			report.Outcome = classify.Outcome{Kind: classify.OutcomeFailed, Diagnosis: classify.DiagUnknown}
			log.Error("job panicked", slog.Any("panic", recovered))
		}
	}()

	result, err := o.runner.Run(ctx, creator)
	report.Outcome = result.Outcome
	report.ProbeVerdict = result.ProbeVerdict
	report.ExitCode = result.ExitCode
	report.ErrorCount = result.ErrorCount
	report.Duration = result.Duration
	if err != nil {
		report.Err = err.Error()
	}

	if report.Outcome.Kind == classify.OutcomeFailed {
		reason := report.Err
		if reason == "" {
			reason = "fetch failed with diagnosis " + report.Outcome.Diagnosis
		}
		log.Info("skipping post-processing", slog.String("reason", reason))
		return report
	}

	organized, orgErr := o.pipeline.OrganizeCreator(ctx, creator.Name)
	report.Organized = organized
	if orgErr != nil {
		log.Warn("post-processing failed", logging.Error(orgErr))
		if report.Err == "" {
			report.Err = orgErr.Error()
		}
	}
	return report
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
