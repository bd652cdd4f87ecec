package orchestrator_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"creatorsync/internal/classify"
	"creatorsync/internal/config"
	"creatorsync/internal/logging"
	"creatorsync/internal/orchestrator"
	"creatorsync/internal/organizer"
	"creatorsync/internal/supervisor"
)

type stubRunner struct {
	order    []string
	outcomes map[string]classify.Outcome
	errs     map[string]error
	panics   map[string]bool
}

func (r *stubRunner) Run(_ context.Context, creator config.Creator) (supervisor.Result, error) {
	r.order = append(r.order, creator.Name)
	if r.panics[creator.Name] {
		panic("runner exploded")
	}
	outcome := classify.Outcome{Kind: classify.OutcomeSuccess}
	if o, ok := r.outcomes[creator.Name]; ok {
		outcome = o
	}
	return supervisor.Result{Creator: creator.Name, Outcome: outcome}, r.errs[creator.Name]
}

type stubPipeline struct {
	order []string
	err   error
}

func (p *stubPipeline) OrganizeCreator(_ context.Context, name string) (organizer.Summary, error) {
	p.order = append(p.order, name)
	return organizer.Summary{Organized: 1}, p.err
}

func batchConfig(t *testing.T, names ...string) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(root, "downloads")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Fetch.InterJobDelay = 1
	for _, name := range names {
		cfg.Creators = append(cfg.Creators, config.Creator{Name: name, DaysBack: 30})
	}
	return &cfg
}

func newOrchestrator(t *testing.T, cfg *config.Config, runner orchestrator.JobRunner, pipeline orchestrator.Pipeline, opts ...orchestrator.Option) *orchestrator.Orchestrator {
	t.Helper()
	orch, err := orchestrator.New(cfg, runner, pipeline, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return orch
}

func TestRunProcessesCreatorsSequentially(t *testing.T) {
	cfg := batchConfig(t, "alpha", "beta", "gamma")
	runner := &stubRunner{}
	pipeline := &stubPipeline{}

	var pauses []time.Duration
	orch := newOrchestrator(t, cfg, runner, pipeline,
		orchestrator.WithSleep(func(_ context.Context, d time.Duration) { pauses = append(pauses, d) }))

	summary, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	for i, name := range want {
		if runner.order[i] != name || pipeline.order[i] != name {
			t.Fatalf("order mismatch: runner %v pipeline %v", runner.order, pipeline.order)
		}
	}
	if len(pauses) != 2 {
		t.Fatalf("inter-job pauses = %d, want 2 (none after the last job)", len(pauses))
	}
	if summary.RunID == "" || len(summary.Jobs) != 3 {
		t.Fatalf("summary = %+v", summary)
	}
	succeeded, degraded, failed := summary.Counts()
	if succeeded != 3 || degraded != 0 || failed != 0 {
		t.Fatalf("counts = %d/%d/%d", succeeded, degraded, failed)
	}
}

func TestRunIsolatesPanickingJob(t *testing.T) {
	cfg := batchConfig(t, "alpha", "beta")
	runner := &stubRunner{panics: map[string]bool{"alpha": true}}
	pipeline := &stubPipeline{}
	orch := newOrchestrator(t, cfg, runner, pipeline,
		orchestrator.WithSleep(func(context.Context, time.Duration) {}))

	summary, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(summary.Jobs))
	}
	first := summary.Jobs[0]
	if first.Outcome.Kind != classify.OutcomeFailed || first.Err == "" {
		t.Fatalf("panicked job not reported: %+v", first)
	}
	if summary.Jobs[1].Outcome.Kind != classify.OutcomeSuccess {
		t.Fatalf("surviving job failed: %+v", summary.Jobs[1])
	}
	if len(pipeline.order) != 1 || pipeline.order[0] != "beta" {
		t.Fatalf("pipeline must not run after a panic, got %v", pipeline.order)
	}
}

func TestRunReportsJobFaultsInSummary(t *testing.T) {
	cfg := batchConfig(t, "alpha")
	runner := &stubRunner{
		outcomes: map[string]classify.Outcome{
			"alpha": {Kind: classify.OutcomeFailed, Diagnosis: classify.DiagCookies},
		},
		errs: map[string]error{"alpha": errors.New("cookie file missing")},
	}
	orch := newOrchestrator(t, cfg, runner, &stubPipeline{})

	summary, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	job := summary.Jobs[0]
	if job.Err != "cookie file missing" || job.Outcome.Diagnosis != classify.DiagCookies {
		t.Fatalf("job report = %+v", job)
	}
}

func TestRunSkipsPipelineForFailedJobs(t *testing.T) {
	cfg := batchConfig(t, "alpha", "beta")
	runner := &stubRunner{
		outcomes: map[string]classify.Outcome{
			"alpha": {Kind: classify.OutcomeFailed, Diagnosis: classify.DiagAuth},
		},
	}
	pipeline := &stubPipeline{}
	orch := newOrchestrator(t, cfg, runner, pipeline,
		orchestrator.WithSleep(func(context.Context, time.Duration) {}))

	summary, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pipeline.order) != 1 || pipeline.order[0] != "beta" {
		t.Fatalf("pipeline must run only for the surviving job, got %v", pipeline.order)
	}
	if summary.Jobs[0].Organized != (organizer.Summary{}) {
		t.Fatalf("failed job must report nothing organized: %+v", summary.Jobs[0].Organized)
	}
}

func TestRunRefusesSecondInstance(t *testing.T) {
	cfg := batchConfig(t, "alpha")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("prepare dirs: %v", err)
	}
	holder := flock.New(cfg.LockPath())
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquire holder lock: %v (%v)", err, locked)
	}
	defer func() { _ = holder.Unlock() }()

	orch := newOrchestrator(t, cfg, &stubRunner{}, &stubPipeline{})
	if _, err := orch.Run(context.Background()); !errors.Is(err, orchestrator.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}
