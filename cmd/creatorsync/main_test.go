package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"creatorsync/internal/classify"
	"creatorsync/internal/orchestrator"
	"creatorsync/internal/organizer"
	"creatorsync/internal/supervisor"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigInitThenValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	output, err := executeCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, output)
	}
	if !strings.Contains(output, target) {
		t.Fatalf("init output missing target path:\n%s", output)
	}

	output, err = executeCommand(t, "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Configuration valid") {
		t.Fatalf("unexpected validate output:\n%s", output)
	}
	if !strings.Contains(output, "Creators configured: 1") {
		t.Fatalf("sample creator not counted:\n%s", output)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, err := executeCommand(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if _, err := executeCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite must fail")
	}
	if _, err := executeCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with --overwrite: %v", err)
	}
}

func TestConfigShowListsCreators(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, err := executeCommand(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("config init: %v", err)
	}

	output, err := executeCommand(t, "--config", target, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v\n%s", err, output)
	}
	for _, want := range []string{"download_dir", "somecreator", "poll_interval"} {
		if !strings.Contains(output, want) {
			t.Fatalf("show output missing %q:\n%s", want, output)
		}
	}
}

func TestRenderRunSummary(t *testing.T) {
	summary := &orchestrator.RunSummary{
		RunID: "test-run",
		Jobs: []orchestrator.JobReport{
			{
				Creator:   "alpha",
				Outcome:   classify.Outcome{Kind: classify.OutcomeSuccess},
				Organized: organizer.Summary{Organized: 4},
				Duration:  95 * time.Second,
			},
			{
				Creator:      "beta",
				Outcome:      classify.Outcome{Kind: classify.OutcomeFailed, Diagnosis: classify.DiagAuth},
				ProbeVerdict: supervisor.ProbeFormatsAvailable,
				ErrorCount:   3,
			},
		},
	}

	rendered := renderRunSummary(summary)
	for _, want := range []string{"alpha", "beta", "success", "failed", "auth", "formats_available"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("summary table missing %q:\n%s", want, rendered)
		}
	}
}
