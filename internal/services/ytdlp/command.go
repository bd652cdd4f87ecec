package ytdlp

import "strconv"

// ProgressTemplate forces one parseable progress line per update so the
// supervisor's line classifier sees stable download-channel output across
// yt-dlp versions.
const ProgressTemplate = "[download] %(progress._percent_str)s of %(progress._total_bytes_str)s at %(progress._speed_str)s ETA %(progress._eta_str)s"

// OutputTemplate is the per-creator output path template handed to yt-dlp:
// title plus a bracketed unique id the post-processing pipeline strips again.
const OutputTemplate = "%(title)s [%(id)s].%(ext)s"

// CommandOptions materializes one fetch invocation.
type CommandOptions struct {
	URL            string
	CookiesFile    string
	ArchiveFile    string
	DateAfter      string // YYYYMMDD cutoff derived from the lookback window
	OutputTemplate string
	Referer        string
	MaxDownloads   int
	ExtraArgs      []string
}

// BuildArgs derives the full argument vector deterministically from the
// options. Job-supplied extra arguments go last so they can override any
// default flag.
func BuildArgs(opts CommandOptions) []string {
	args := []string{
		"--cookies", opts.CookiesFile,
		"--download-archive", opts.ArchiveFile,
		"--dateafter", opts.DateAfter,
		"-o", opts.OutputTemplate,
		"--write-info-json",
		"--write-description",
		"--write-thumbnail",
		"--restrict-filenames",
		"--progress",
		"--newline",
		"--progress-template", ProgressTemplate,
		"--ignore-errors",
		"--geo-bypass",
		"--no-overwrites",
		"--no-playlist",
	}
	if opts.Referer != "" {
		args = append(args, "--add-header", "Referer:"+opts.Referer)
	}
	if opts.MaxDownloads > 0 {
		args = append(args, "--max-downloads", strconv.Itoa(opts.MaxDownloads))
	}
	args = append(args, opts.URL)
	args = append(args, opts.ExtraArgs...)
	return args
}
