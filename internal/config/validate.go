package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	return c.validateCreators()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		return errors.New("paths.download_dir must be set")
	}
	if strings.TrimSpace(c.Paths.CookiesFile) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/creatorsync/config.toml"
		}
		return fmt.Errorf("paths.cookies_file is required; export your cookies and point %s at the file (create with 'creatorsync config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.MaxDownloads < 0 {
		return errors.New("fetch.max_downloads must be >= 0 (0 disables the cap)")
	}
	if c.Fetch.InterJobDelay < 0 {
		return errors.New("fetch.inter_job_delay must be >= 0 (seconds)")
	}
	if c.Fetch.PollIntervalMS <= 0 {
		return errors.New("fetch.poll_interval_ms must be positive")
	}
	if c.Fetch.ProbeTimeout <= 0 {
		return errors.New("fetch.probe_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateCreators() error {
	seen := make(map[string]struct{}, len(c.Creators))
	for i, creator := range c.Creators {
		if creator.Name == "" {
			return fmt.Errorf("creators[%d].name must be set", i)
		}
		if strings.ContainsAny(creator.Name, "/\\") {
			return fmt.Errorf("creators[%d].name %q must not contain path separators", i, creator.Name)
		}
		if _, ok := seen[creator.Name]; ok {
			return fmt.Errorf("duplicate creator %q", creator.Name)
		}
		seen[creator.Name] = struct{}{}
		if creator.DaysBack <= 0 {
			return fmt.Errorf("creators[%d].days_back must be positive", i)
		}
	}
	return nil
}
