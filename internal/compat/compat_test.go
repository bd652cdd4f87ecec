package compat_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"creatorsync/internal/compat"
)

type fakeProber struct {
	version    string
	help       string
	versionErr error
}

func (f fakeProber) Version(context.Context) (string, error) { return f.version, f.versionErr }
func (f fakeProber) Help(context.Context) (string, error)    { return f.help, nil }

func fullHelp() string {
	return strings.Join(compat.RequiredFlags, "\n")
}

func TestCheckAllFlagsSupported(t *testing.T) {
	prober := fakeProber{version: "2026.08.10", help: fullHelp()}
	report, err := compat.Check(context.Background(), prober, "yt-dlp")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.Compatible {
		t.Fatalf("expected compatible, missing: %v", report.MissingFlags())
	}
	if report.Version != "2026.08.10" {
		t.Fatalf("version = %q", report.Version)
	}
	if len(report.Flags) != len(compat.RequiredFlags) {
		t.Fatalf("flag checks = %d, want %d", len(report.Flags), len(compat.RequiredFlags))
	}
}

func TestCheckDetectsMissingFlag(t *testing.T) {
	help := strings.ReplaceAll(fullHelp(), "--progress-template", "--progress-something-else")
	report, err := compat.Check(context.Background(), fakeProber{version: "2020.01.01", help: help}, "yt-dlp")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Compatible {
		t.Fatal("expected incompatible report")
	}
	missing := report.MissingFlags()
	if len(missing) != 1 || missing[0] != "--progress-template" {
		t.Fatalf("missing = %v", missing)
	}
}

func TestCheckRequiresTool(t *testing.T) {
	_, err := compat.Check(context.Background(), fakeProber{versionErr: errors.New("executable not found")}, "yt-dlp")
	if err == nil {
		t.Fatal("expected error when the tool is absent")
	}
}

func TestWriteAndReadReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads", "ytdlp_compatibility.json")
	report, err := compat.Check(context.Background(), fakeProber{version: "2026.08.10", help: fullHelp()}, "yt-dlp")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := compat.WriteReport(path, report); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	loaded, err := compat.ReadReport(path)
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if loaded.Version != report.Version || loaded.Compatible != report.Compatible {
		t.Fatalf("round trip mismatch: %+v vs %+v", loaded, report)
	}
}
