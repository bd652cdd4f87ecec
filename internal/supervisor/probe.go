package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"creatorsync/internal/logging"
)

// ProbeVerdict is the diagnostic fallback's read on a failed job. It is
// advisory: the probe refines the failure report and never changes the
// verdict itself.
type ProbeVerdict string

const (
	ProbeSkipped          ProbeVerdict = ""
	ProbeFormatsAvailable ProbeVerdict = "formats_available"
	ProbeNoMediaDetected  ProbeVerdict = "no_media_detected"
	ProbeInconclusive     ProbeVerdict = "inconclusive"
)

// probe runs the read-only format listing against the creator page and
// captures its full output to the per-creator probe log. Probe failures are
// logged and folded into the verdict; they never surface as job errors.
func (s *Supervisor) probe(ctx context.Context, log *slog.Logger, name, url string) ProbeVerdict {
	path := s.cfg.ProbeLogPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn("probe capture unavailable", logging.Error(err))
		return ProbeInconclusive
	}
	file, err := os.Create(path)
	if err != nil {
		log.Warn("probe capture unavailable", logging.Error(err))
		return ProbeInconclusive
	}

	probeErr := s.fetcher.ListFormats(ctx, url, s.cfg.Paths.CookiesFile, file)
	closeErr := file.Close()
	if closeErr != nil {
		log.Warn("probe capture close failed", logging.Error(closeErr))
	}

	captured, readErr := os.ReadFile(path)
	verdict := interpretProbe(string(captured), probeErr)

	attrs := []any{
		slog.String("verdict", string(verdict)),
		slog.String("capture", path),
	}
	if probeErr != nil {
		attrs = append(attrs, logging.Error(probeErr))
	}
	if readErr != nil {
		attrs = append(attrs, logging.Error(readErr))
	}
	log.Info("diagnostic probe finished", attrs...)
	return verdict
}

// interpretProbe scans the capture for format-table markers. A timed-out
// probe is inconclusive regardless of partial output.
func interpretProbe(captured string, probeErr error) ProbeVerdict {
	if errors.Is(probeErr, context.DeadlineExceeded) {
		return ProbeInconclusive
	}

	lower := strings.ToLower(captured)
	if strings.Contains(lower, "available formats") || strings.Contains(lower, "format code") {
		return ProbeFormatsAvailable
	}
	for _, marker := range []string{
		"no video formats found",
		"no supported media found",
		"does not contain any videos",
	} {
		if strings.Contains(lower, marker) {
			return ProbeNoMediaDetected
		}
	}
	return ProbeInconclusive
}
