package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"creatorsync/internal/compat"
	"creatorsync/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories, credentials, and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			allPassed := true
			for _, result := range results {
				rows = append(rows, []string{result.Name, markPassFail(result.Passed), result.Detail})
				allPassed = allPassed && result.Passed
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			fmt.Fprintf(out, "Creators configured: %d\n", len(cfg.Creators))

			if report, err := compat.ReadReport(cfg.CompatReportPath()); err == nil {
				fmt.Fprintf(out, "Last tool compatibility check: %s (version %s, compatible: %s)\n",
					report.CheckedAt.Format("2006-01-02 15:04"), report.Version, yesNo(report.Compatible))
			} else if !os.IsNotExist(err) {
				fmt.Fprintf(out, "Compatibility report unreadable: %v\n", err)
			}

			if !allPassed {
				return fmt.Errorf("one or more preflight checks failed")
			}
			return nil
		},
	}
}
