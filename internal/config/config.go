package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"creatorsync/internal/textutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and shared file configuration.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	LogDir      string `toml:"log_dir"`
	ArchiveFile string `toml:"archive_file"`
	CookiesFile string `toml:"cookies_file"`
}

// Fetch contains settings for the external fetch and transcode tools.
type Fetch struct {
	Binary         string `toml:"binary"`
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	BaseURL        string `toml:"base_url"`
	Referer        string `toml:"referer"`
	MaxDownloads   int    `toml:"max_downloads"`
	InterJobDelay  int    `toml:"inter_job_delay"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	ProbeTimeout   int    `toml:"probe_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Creator describes one fetch job: a creator identity, how far back to look,
// and optional extra tool arguments appended after the defaults.
type Creator struct {
	Name      string   `toml:"name"`
	DaysBack  int      `toml:"days_back"`
	ExtraArgs []string `toml:"extra_args"`
}

// Config encapsulates all configuration values for creatorsync.
//
// Configuration sections by subsystem:
//   - Paths: download root, log directory, archive ledger, cookie file
//   - Fetch: yt-dlp/ffmpeg binaries, referer, result cap, pacing intervals
//   - Logging: log format and level
//   - Creators: the sequential job list for a run
type Config struct {
	Paths    Paths     `toml:"paths"`
	Fetch    Fetch     `toml:"fetch"`
	Logging  Logging   `toml:"logging"`
	Creators []Creator `toml:"creators"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/creatorsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("creatorsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the download root and log directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreatorDir returns the output directory for a creator's downloads.
func (c *Config) CreatorDir(name string) string {
	return filepath.Join(c.Paths.DownloadDir, name)
}

// ErrorLogPath returns the per-creator incremental error log location.
func (c *Config) ErrorLogPath(name string) string {
	return filepath.Join(c.Paths.LogDir, textutil.SanitizeToken(name)+"_errors.log")
}

// ProbeLogPath returns the per-creator diagnostic probe capture location.
func (c *Config) ProbeLogPath(name string) string {
	return filepath.Join(c.Paths.LogDir, textutil.SanitizeToken(name)+"_probe.log")
}

// RunLogPath returns the shared run log file location.
func (c *Config) RunLogPath() string {
	return filepath.Join(c.Paths.LogDir, "creatorsync.log")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "creatorsync.lock")
}

// CompatReportPath returns where the yt-dlp compatibility report is written.
func (c *Config) CompatReportPath() string {
	return filepath.Join(c.Paths.DownloadDir, "ytdlp_compatibility.json")
}

// InterJobDelay returns the politeness pause between sequential jobs.
func (c *Config) InterJobDelay() time.Duration {
	return time.Duration(c.Fetch.InterJobDelay) * time.Second
}

// PollInterval returns the cadence for polling the fetch process output.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Fetch.PollIntervalMS) * time.Millisecond
}

// ProbeTimeout returns the wall-clock bound for the diagnostic fallback probe.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Fetch.ProbeTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
