// Package compat verifies the installed fetch tool still supports every flag
// the fetch command relies on, and persists the findings as a JSON report
// next to the downloads. Sites and tool releases both move fast; the report
// gives a quick answer to "did an upgrade break us" before a run fails.
package compat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RequiredFlags are the fetch flags a run cannot work without. Checked
// against the tool's help text rather than trial invocations so the probe
// stays read-only and fast.
var RequiredFlags = []string{
	"--cookies",
	"--download-archive",
	"--dateafter",
	"--write-info-json",
	"--write-description",
	"--write-thumbnail",
	"--restrict-filenames",
	"--progress-template",
	"--add-header",
	"--max-downloads",
	"--no-overwrites",
}

// FlagSupport records one flag check.
type FlagSupport struct {
	Flag      string `json:"flag"`
	Supported bool   `json:"supported"`
}

// Report is the persisted compatibility verdict.
type Report struct {
	CheckedAt  time.Time     `json:"checked_at"`
	Binary     string        `json:"binary"`
	Version    string        `json:"version"`
	Flags      []FlagSupport `json:"flags"`
	Compatible bool          `json:"compatible"`
}

// MissingFlags lists the unsupported flags behind an incompatible verdict.
func (r *Report) MissingFlags() []string {
	var missing []string
	for _, flag := range r.Flags {
		if !flag.Supported {
			missing = append(missing, flag.Flag)
		}
	}
	return missing
}

// Prober is the slice of the yt-dlp client the checker needs.
type Prober interface {
	Version(ctx context.Context) (string, error)
	Help(ctx context.Context) (string, error)
}

// Check probes the installed tool and builds a report. The tool being
// entirely absent is an error; individual missing flags are findings.
func Check(ctx context.Context, prober Prober, binary string) (*Report, error) {
	version, err := prober.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe tool version: %w", err)
	}
	help, err := prober.Help(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe tool flags: %w", err)
	}

	report := &Report{
		CheckedAt:  time.Now().UTC(),
		Binary:     binary,
		Version:    version,
		Compatible: true,
	}
	for _, flag := range RequiredFlags {
		supported := strings.Contains(help, flag)
		report.Flags = append(report.Flags, FlagSupport{Flag: flag, Supported: supported})
		if !supported {
			report.Compatible = false
		}
	}
	return report, nil
}

// WriteReport persists the report via a temporary sibling so readers never
// see a half-written file.
func WriteReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode compatibility report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write compatibility report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace compatibility report: %w", err)
	}
	return nil
}

// ReadReport loads a previously written report.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse compatibility report: %w", err)
	}
	return &report, nil
}
