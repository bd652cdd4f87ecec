package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"creatorsync/internal/orchestrator"
	"creatorsync/internal/organizer"
	"creatorsync/internal/services/ffmpeg"
	"creatorsync/internal/services/ytdlp"
	"creatorsync/internal/supervisor"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch and organize new media for every configured creator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(cfg.Creators) == 0 {
				return fmt.Errorf("no creators configured; add [[creators]] entries to the config file")
			}

			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			fetchClient, err := ytdlp.New(cfg.Fetch.Binary, cfg.ProbeTimeout())
			if err != nil {
				return err
			}
			tagger, err := ffmpeg.New(cfg.Fetch.FFmpegBinary)
			if err != nil {
				return err
			}
			sup, err := supervisor.New(cfg, fetchClient, logger)
			if err != nil {
				return err
			}
			pipeline, err := organizer.New(cfg, tagger, logger)
			if err != nil {
				return err
			}
			orch, err := orchestrator.New(cfg, sup, pipeline, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := orch.Run(runCtx)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderRunSummary(summary))
			succeeded, degraded, failed := summary.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d succeeded, %d degraded, %d failed\n",
				summary.RunID, succeeded, degraded, failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", failed, len(summary.Jobs))
			}
			return nil
		},
	}
}

func renderRunSummary(summary *orchestrator.RunSummary) string {
	headers := []string{"Creator", "Outcome", "Errors", "Probe", "Organized", "Duration", "Detail"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(summary.Jobs))
	for _, job := range summary.Jobs {
		detail := job.Err
		if detail == "" && job.Outcome.Diagnosis != "" {
			detail = job.Outcome.Diagnosis
		}
		rows = append(rows, []string{
			job.Creator,
			job.Outcome.Kind.String(),
			fmt.Sprintf("%d", job.ErrorCount),
			string(job.ProbeVerdict),
			fmt.Sprintf("%d", job.Organized.Organized),
			job.Duration.Round(time.Second).String(),
			detail,
		})
	}
	return renderTable(headers, rows, aligns)
}
