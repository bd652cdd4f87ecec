package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"creatorsync/internal/compat"
	"creatorsync/internal/services/ytdlp"
)

func newCompatCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "compat",
		Short: "Verify the fetch tool supports every flag a run requires",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ytdlp.New(cfg.Fetch.Binary, cfg.ProbeTimeout())
			if err != nil {
				return err
			}

			report, err := compat.Check(cmd.Context(), client, cfg.Fetch.Binary)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			if err := compat.WriteReport(cfg.CompatReportPath(), report); err != nil {
				return err
			}

			rows := make([][]string, 0, len(report.Flags))
			for _, flag := range report.Flags {
				rows = append(rows, []string{flag.Flag, markPassFail(flag.Supported)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s version %s\n", report.Binary, report.Version)
			fmt.Fprintln(out, renderTable([]string{"Flag", "Supported"}, rows, nil))
			fmt.Fprintf(out, "Report written to %s\n", cfg.CompatReportPath())

			if !report.Compatible {
				return fmt.Errorf("installed tool is missing required flags: %v", report.MissingFlags())
			}
			return nil
		},
	}
}
