// Package supervisor drives one fetch job end to end: precondition checks,
// launching the fetch tool, streaming and classifying its output, deciding
// the final verdict, and running the diagnostic fallback probe on failure.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"creatorsync/internal/classify"
	"creatorsync/internal/config"
	"creatorsync/internal/logging"
	"creatorsync/internal/services"
	"creatorsync/internal/services/ytdlp"
)

// Fetcher is the slice of the yt-dlp client the supervisor needs.
type Fetcher interface {
	Fetch(ctx context.Context, opts ytdlp.CommandOptions) (ytdlp.Handle, error)
	ListFormats(ctx context.Context, url, cookiesFile string, out io.Writer) error
}

// Result summarizes one completed (or refused) fetch job.
type Result struct {
	Creator      string
	URL          string
	Outcome      classify.Outcome
	ExitCode     int
	ErrorCount   int
	Duration     time.Duration
	ProbeVerdict ProbeVerdict
}

// Option configures the supervisor.
type Option func(*Supervisor)

// WithClock injects the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) {
		if now != nil {
			s.now = now
		}
	}
}

// Supervisor runs fetch jobs sequentially on behalf of the orchestrator.
type Supervisor struct {
	cfg     *config.Config
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// New constructs a supervisor.
func New(cfg *config.Config, fetcher Fetcher, logger *slog.Logger, opts ...Option) (*Supervisor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher required")
	}
	s := &Supervisor{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "supervisor"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreatorURL derives the page URL for a creator from the configured base.
func (s *Supervisor) CreatorURL(name string) string {
	return strings.TrimRight(s.cfg.Fetch.BaseURL, "/") + "/" + name
}

// Run executes one fetch job. Precondition failures short-circuit with a
// failed verdict and never launch the tool. The returned error covers
// supervisor plumbing faults only; tool failures are expressed through the
// outcome.
func (s *Supervisor) Run(ctx context.Context, creator config.Creator) (Result, error) {
	start := s.now()
	ctx = services.WithCreator(ctx, creator.Name)
	log := logging.WithContext(ctx, s.logger)

	result := Result{Creator: creator.Name, URL: s.CreatorURL(creator.Name)}

	if err := s.checkCookies(); err != nil {
		result.Outcome = classify.Outcome{Kind: classify.OutcomeFailed, Diagnosis: classify.DiagCookies}
		result.Duration = s.now().Sub(start)
		log.Error("cookie precondition failed",
			logging.Error(err),
			slog.String(logging.FieldDiagnosis, classify.DiagCookies),
			slog.String("hint", classify.RemediationHint(classify.DiagCookies)))
		return result, err
	}
	if err := s.ensureArchive(); err != nil {
		result.Outcome = classify.Outcome{Kind: classify.OutcomeFailed, Diagnosis: classify.DiagArchive}
		result.Duration = s.now().Sub(start)
		log.Error("archive precondition failed",
			logging.Error(err),
			slog.String(logging.FieldDiagnosis, classify.DiagArchive),
			slog.String("hint", classify.RemediationHint(classify.DiagArchive)))
		return result, err
	}

	creatorDir := s.cfg.CreatorDir(creator.Name)
	if err := os.MkdirAll(creatorDir, 0o755); err != nil {
		result.Outcome = classify.Outcome{Kind: classify.OutcomeFailed, Diagnosis: classify.DiagUnknown}
		result.Duration = s.now().Sub(start)
		return result, services.Wrap(services.ErrPrecondition, creator.Name, "prepare", "create creator directory", err)
	}

	opts := ytdlp.CommandOptions{
		URL:            result.URL,
		CookiesFile:    s.cfg.Paths.CookiesFile,
		ArchiveFile:    s.cfg.Paths.ArchiveFile,
		DateAfter:      s.dateAfter(creator.DaysBack),
		OutputTemplate: filepath.Join(creatorDir, ytdlp.OutputTemplate),
		Referer:        s.cfg.Fetch.Referer,
		MaxDownloads:   s.cfg.Fetch.MaxDownloads,
		ExtraArgs:      creator.ExtraArgs,
	}

	log.Info("fetch starting",
		slog.String("url", result.URL),
		slog.String("date_after", opts.DateAfter),
		slog.Int("days_back", creator.DaysBack))

	handle, err := s.fetcher.Fetch(ctx, opts)
	if err != nil {
		result.Outcome = classify.Outcome{Kind: classify.OutcomeFailed, Diagnosis: classify.DiagUnknown}
		result.Duration = s.now().Sub(start)
		return result, services.Wrap(services.ErrExternalTool, creator.Name, "fetch", "launch fetch tool", err)
	}

	records, pollErr := s.superviseOutput(ctx, log, creator.Name, handle)

	exitCode, waitErr := handle.Wait()
	result.ExitCode = exitCode
	result.ErrorCount = len(records)
	result.Outcome = classify.ClassifyOutcome(exitCode, records)
	result.Duration = s.now().Sub(start)

	if result.Outcome.Kind == classify.OutcomeFailed {
		result.ProbeVerdict = s.probe(ctx, log, creator.Name, result.URL)
	}
	s.logOutcome(log, result)

	if waitErr != nil {
		return result, services.Wrap(services.ErrExternalTool, creator.Name, "fetch", "reap fetch tool", waitErr)
	}
	if pollErr != nil {
		return result, services.Wrap(services.ErrTransient, creator.Name, "fetch", "stream fetch output", pollErr)
	}
	return result, nil
}

// superviseOutput polls the combined output until EOF, classifying each line
// and applying the progress rate limit. Error-or-warning lines append to the
// per-creator error log as they arrive so a crash mid-run loses nothing.
func (s *Supervisor) superviseOutput(ctx context.Context, log *slog.Logger, name string, handle ytdlp.Handle) ([]classify.ErrorRecord, error) {
	reader := handle.Reader()
	if reader == nil {
		return nil, nil
	}

	throttle := logging.NewProgressThrottle(time.Second)
	errLog := newErrorLog(s.cfg.ErrorLogPath(name), s.now)
	defer errLog.Close()

	ticker := time.NewTicker(s.cfg.PollInterval())
	defer ticker.Stop()

	var records []classify.ErrorRecord
	for {
		select {
		case <-ctx.Done():
			// CommandContext kills the child on cancellation; keep draining
			// until the pipe reports EOF so Wait can reap it.
		case <-ticker.C:
		}

		lines, done, err := reader.Poll()
		for _, line := range lines {
			event := classify.Line(line)
			switch event.Kind {
			case classify.KindErrorOrWarning:
				record := classify.ErrorRecord{Text: line, At: s.now()}
				records = append(records, record)
				if werr := errLog.Append(record); werr != nil {
					log.Warn("error log append failed", logging.Error(werr))
				}
				log.Warn("fetch reported error", slog.String("line", line))
			case classify.KindProgress:
				if throttle.Allow() {
					log.Info("fetch progress",
						slog.String("line", line),
						slog.Float64("percent", event.Percent))
				}
			case classify.KindInfo:
				// Info lines carry state transitions; only percent updates
				// go through the throttle.
				log.Info("fetch output", slog.String("line", line))
			default:
				log.Debug("fetch output", slog.String("line", line))
			}
		}
		if err != nil {
			return records, err
		}
		if done {
			return records, nil
		}
	}
}

func (s *Supervisor) logOutcome(log *slog.Logger, result Result) {
	attrs := []any{
		slog.String("outcome", result.Outcome.Kind.String()),
		slog.Int("exit_code", result.ExitCode),
		slog.Duration("duration", result.Duration),
	}
	switch result.Outcome.Kind {
	case classify.OutcomeSuccess:
		log.Info("fetch succeeded", attrs...)
	case classify.OutcomeDegradedBenign:
		attrs = append(attrs, slog.Int("benign_errors", result.Outcome.BenignCount))
		log.Info("fetch completed with benign errors only", attrs...)
	default:
		attrs = append(attrs,
			slog.String(logging.FieldDiagnosis, result.Outcome.Diagnosis),
			slog.String("hint", classify.RemediationHint(result.Outcome.Diagnosis)),
			slog.String("probe", string(result.ProbeVerdict)),
			slog.Int("errors", result.ErrorCount))
		log.Error("fetch failed", attrs...)
	}
}

// checkCookies refuses to launch without a readable, non-empty cookie file.
func (s *Supervisor) checkCookies() error {
	path := s.cfg.Paths.CookiesFile
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrPrecondition, "", "preflight", fmt.Sprintf("cookie file %q missing", path), err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrPrecondition, "", "preflight", fmt.Sprintf("cookie path %q is a directory", path), nil)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrPrecondition, "", "preflight", fmt.Sprintf("cookie file %q is empty; re-export browser cookies", path), nil)
	}
	return nil
}

// ensureArchive bootstraps the download ledger on first run and proves it is
// appendable before handing it to the fetch tool.
func (s *Supervisor) ensureArchive() error {
	path := s.cfg.Paths.ArchiveFile
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrPrecondition, "", "preflight", "create archive directory", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return services.Wrap(services.ErrPrecondition, "", "preflight", fmt.Sprintf("archive ledger %q not appendable", path), err)
	}
	return file.Close()
}

func (s *Supervisor) dateAfter(daysBack int) string {
	if daysBack <= 0 {
		daysBack = 1
	}
	return s.now().AddDate(0, 0, -daysBack).Format("20060102")
}

// errorLog appends timestamped error lines to the per-creator error log. The
// file is opened lazily so clean runs never create empty logs.
type errorLog struct {
	path string
	now  func() time.Time
	file *os.File
}

func newErrorLog(path string, now func() time.Time) *errorLog {
	return &errorLog{path: path, now: now}
}

func (l *errorLog) Append(record classify.ErrorRecord) error {
	if l.file == nil {
		if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
			return err
		}
		file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		l.file = file
	}
	_, err := fmt.Fprintf(l.file, "[%s] %s\n", record.At.Format("2006-01-02 15:04:05"), record.Text)
	return err
}

func (l *errorLog) Close() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}
