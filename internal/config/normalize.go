package config

import (
	"path/filepath"
	"strings"
)

// normalize expands path fields, derives dependent defaults, and fills
// per-creator defaults so downstream code never re-checks them.
func (c *Config) normalize() error {
	var err error
	if c.Paths.DownloadDir, err = expandPath(strings.TrimSpace(c.Paths.DownloadDir)); err != nil {
		return err
	}

	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DownloadDir, "logs")
	} else if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}

	if strings.TrimSpace(c.Paths.ArchiveFile) == "" {
		c.Paths.ArchiveFile = filepath.Join(c.Paths.DownloadDir, "archive.txt")
	} else if c.Paths.ArchiveFile, err = expandPath(strings.TrimSpace(c.Paths.ArchiveFile)); err != nil {
		return err
	}

	if strings.TrimSpace(c.Paths.CookiesFile) != "" {
		if c.Paths.CookiesFile, err = expandPath(strings.TrimSpace(c.Paths.CookiesFile)); err != nil {
			return err
		}
	}

	c.Fetch.Binary = strings.TrimSpace(c.Fetch.Binary)
	if c.Fetch.Binary == "" {
		c.Fetch.Binary = defaultFetchBinary
	}
	c.Fetch.FFmpegBinary = strings.TrimSpace(c.Fetch.FFmpegBinary)
	if c.Fetch.FFmpegBinary == "" {
		c.Fetch.FFmpegBinary = defaultFFmpegBinary
	}
	c.Fetch.BaseURL = strings.TrimRight(strings.TrimSpace(c.Fetch.BaseURL), "/")
	if c.Fetch.BaseURL == "" {
		c.Fetch.BaseURL = defaultBaseURL
	}
	if c.Fetch.PollIntervalMS <= 0 {
		c.Fetch.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Fetch.ProbeTimeout <= 0 {
		c.Fetch.ProbeTimeout = defaultProbeTimeout
	}

	for i := range c.Creators {
		c.Creators[i].Name = strings.TrimSpace(c.Creators[i].Name)
		if c.Creators[i].DaysBack <= 0 {
			c.Creators[i].DaysBack = defaultDaysBack
		}
	}
	return nil
}
