// Package preflight runs the environment checks surfaced by the status
// command: directory access, credential and ledger state, and the external
// binaries a run depends on.
package preflight

import (
	"context"

	"creatorsync/internal/config"
	"creatorsync/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckCookiesFile(cfg.Paths.CookiesFile),
		CheckArchiveWritable(cfg.Paths.ArchiveFile),
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Command}
		if !status.Available {
			result.Detail = status.Detail
			if status.Optional {
				result.Passed = true
				result.Detail += " (optional)"
			}
		}
		results = append(results, result)
	}
	return results
}

// CheckSystemDeps evaluates the external binaries a run shells out to.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Fetch.Binary,
			Description: "Required for fetching creator media",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Fetch.FFmpegBinary,
			Description: "Required for metadata injection",
		},
	})
}
