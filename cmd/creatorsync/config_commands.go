package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"creatorsync/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set download_dir, cookies_file, and at least one [[creators]] entry before running.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(configFlagValue(cmd))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Creators configured: %d\n", len(cfg.Creators))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, _, err := config.Load(configFlagValue(cmd))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, [][]string{
				{"download_dir", cfg.Paths.DownloadDir},
				{"log_dir", cfg.Paths.LogDir},
				{"archive_file", cfg.Paths.ArchiveFile},
				{"cookies_file", cfg.Paths.CookiesFile},
				{"binary", cfg.Fetch.Binary},
				{"ffmpeg_binary", cfg.Fetch.FFmpegBinary},
				{"base_url", cfg.Fetch.BaseURL},
				{"max_downloads", fmt.Sprintf("%d", cfg.Fetch.MaxDownloads)},
				{"inter_job_delay", cfg.InterJobDelay().String()},
				{"poll_interval", cfg.PollInterval().String()},
				{"probe_timeout", cfg.ProbeTimeout().String()},
				{"log_format", cfg.Logging.Format},
				{"log_level", cfg.Logging.Level},
			}, nil))

			rows := make([][]string, 0, len(cfg.Creators))
			for _, creator := range cfg.Creators {
				rows = append(rows, []string{
					creator.Name,
					fmt.Sprintf("%d", creator.DaysBack),
					yesNo(len(creator.ExtraArgs) > 0),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Creator", "Days Back", "Extra Args"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
}

func configFlagValue(cmd *cobra.Command) string {
	if flag := cmd.Flag("config"); flag != nil {
		return strings.TrimSpace(flag.Value.String())
	}
	return ""
}
