package organizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"creatorsync/internal/config"
	"creatorsync/internal/logging"
	"creatorsync/internal/organizer"
	"creatorsync/internal/services/ffmpeg"
)

type recordingTagger struct {
	calls []ffmpeg.Metadata
	paths []string
	err   error
}

func (r *recordingTagger) InjectMetadata(_ context.Context, path string, meta ffmpeg.Metadata) error {
	r.calls = append(r.calls, meta)
	r.paths = append(r.paths, path)
	return r.err
}

func organizerConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DownloadDir = t.TempDir()
	return &cfg
}

func newOrganizer(t *testing.T, cfg *config.Config, tagger organizer.Tagger) *organizer.Organizer {
	t.Helper()
	org, err := organizer.New(cfg, tagger, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return org
}

func TestOrganizeCreatorRoundTrip(t *testing.T) {
	cfg := organizerConfig(t)
	dir := cfg.CreatorDir("somecreator")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	seedFiles(t, dir,
		"Ep1 [abc123].mp4",
		"Ep1 [abc123].description",
		"Ep1 [abc123].jpg",
		"Ep1 [abc123].srt",
	)
	sidecar := `{"title":"Episode One","uploader":"somecreator","upload_date":"20260101","description":"first"}`
	if err := os.WriteFile(filepath.Join(dir, "Ep1 [abc123].info.json"), []byte(sidecar), 0o644); err != nil {
		t.Fatalf("seed sidecar: %v", err)
	}

	tagger := &recordingTagger{}
	org := newOrganizer(t, cfg, tagger)

	summary, err := org.OrganizeCreator(context.Background(), "somecreator")
	if err != nil {
		t.Fatalf("OrganizeCreator: %v", err)
	}
	if summary.Organized != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	if len(tagger.calls) != 1 {
		t.Fatalf("tagger calls = %d, want 1", len(tagger.calls))
	}
	meta := tagger.calls[0]
	if meta.Title != "Episode One" || meta.Artist != "somecreator" || meta.Date != "20260101" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}

	folder := filepath.Join(dir, "Ep1")
	if _, err := os.Stat(filepath.Join(folder, "video.mp4")); err != nil {
		t.Fatalf("video not in place: %v", err)
	}
	if _, err := os.Stat(filepath.Join(folder, "thumbnail.jpg")); err != nil {
		t.Fatalf("thumbnail not in place: %v", err)
	}
	for _, sidecarName := range []string{"Ep1 [abc123].info.json", "Ep1 [abc123].description", "Ep1 [abc123].srt"} {
		if _, err := os.Stat(filepath.Join(dir, sidecarName)); !os.IsNotExist(err) {
			t.Fatalf("sidecar %s not cleaned up: %v", sidecarName, err)
		}
		if _, err := os.Stat(filepath.Join(folder, sidecarName)); !os.IsNotExist(err) {
			t.Fatalf("sidecar %s must not be moved into the folder: %v", sidecarName, err)
		}
	}
}

func TestOrganizeCreatorIsIdempotent(t *testing.T) {
	cfg := organizerConfig(t)
	dir := cfg.CreatorDir("somecreator")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	seedFiles(t, dir, "Ep1 [abc123].mp4")
	sidecar := `{"title":"Episode One"}`
	if err := os.WriteFile(filepath.Join(dir, "Ep1 [abc123].info.json"), []byte(sidecar), 0o644); err != nil {
		t.Fatalf("seed sidecar: %v", err)
	}

	tagger := &recordingTagger{}
	org := newOrganizer(t, cfg, tagger)

	if _, err := org.OrganizeCreator(context.Background(), "somecreator"); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	summary, err := org.OrganizeCreator(context.Background(), "somecreator")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if summary.Organized != 0 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Fatalf("second pass must be a no-op, summary = %+v", summary)
	}
	if len(tagger.calls) != 1 {
		t.Fatalf("tagger must run once across both passes, calls = %d", len(tagger.calls))
	}
}

func TestOrganizeCreatorLeavesIncompleteGroups(t *testing.T) {
	cfg := organizerConfig(t)
	dir := cfg.CreatorDir("somecreator")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	seedFiles(t, dir, "Teaser [xyz789].info.json", "Teaser [xyz789].jpg")

	tagger := &recordingTagger{}
	org := newOrganizer(t, cfg, tagger)

	summary, err := org.OrganizeCreator(context.Background(), "somecreator")
	if err != nil {
		t.Fatalf("OrganizeCreator: %v", err)
	}
	if summary.Skipped != 1 || summary.Organized != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	for _, name := range []string{"Teaser [xyz789].info.json", "Teaser [xyz789].jpg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("incomplete group must stay untouched: %v", err)
		}
	}
}

func TestOrganizeCreatorContinuesUntaggedOnTaggerFailure(t *testing.T) {
	cfg := organizerConfig(t)
	dir := cfg.CreatorDir("somecreator")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	seedFiles(t, dir, "Ep1 [abc123].mp4")
	sidecar := `{"title":"Episode One"}`
	if err := os.WriteFile(filepath.Join(dir, "Ep1 [abc123].info.json"), []byte(sidecar), 0o644); err != nil {
		t.Fatalf("seed sidecar: %v", err)
	}

	tagger := &recordingTagger{err: errors.New("ffmpeg exploded")}
	org := newOrganizer(t, cfg, tagger)

	summary, err := org.OrganizeCreator(context.Background(), "somecreator")
	if err != nil {
		t.Fatalf("OrganizeCreator: %v", err)
	}
	// A failed injection keeps the original container; the item is still
	// organized without tags.
	if summary.Organized != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want one organized", summary)
	}
	if len(tagger.calls) != 1 {
		t.Fatalf("tagger calls = %d, want 1", len(tagger.calls))
	}
	if _, err := os.Stat(filepath.Join(dir, "Ep1", "video.mp4")); err != nil {
		t.Fatalf("untagged media not organized: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Ep1 [abc123].info.json")); !os.IsNotExist(err) {
		t.Fatalf("sidecar not cleaned up: %v", err)
	}
}

func TestOrganizeCreatorSkipsTaggerWithoutSidecar(t *testing.T) {
	cfg := organizerConfig(t)
	dir := cfg.CreatorDir("somecreator")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	seedFiles(t, dir, "Ep1 [abc123].mp4")

	tagger := &recordingTagger{err: errors.New("must not be called")}
	org := newOrganizer(t, cfg, tagger)

	summary, err := org.OrganizeCreator(context.Background(), "somecreator")
	if err != nil {
		t.Fatalf("OrganizeCreator: %v", err)
	}
	if summary.Organized != 1 {
		t.Fatalf("summary = %+v, want one organized", summary)
	}
	if len(tagger.calls) != 0 {
		t.Fatalf("tagger must not run without a sidecar, calls = %d", len(tagger.calls))
	}
	if _, err := os.Stat(filepath.Join(dir, "Ep1", "video.mp4")); err != nil {
		t.Fatalf("media not organized: %v", err)
	}
}

func TestOrganizeCreatorSeparatesSameTitledItems(t *testing.T) {
	cfg := organizerConfig(t)
	dir := cfg.CreatorDir("somecreator")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	seedFiles(t, dir, "Ep1 [aaa111].mp4", "Ep1 [bbb222].webm")

	org := newOrganizer(t, cfg, &recordingTagger{})

	summary, err := org.OrganizeCreator(context.Background(), "somecreator")
	if err != nil {
		t.Fatalf("OrganizeCreator: %v", err)
	}
	if summary.Organized != 2 {
		t.Fatalf("summary = %+v, want two organized", summary)
	}
	// Groups are processed in key order; the second item must not cohabit the
	// first item's folder even though its container extension differs.
	if _, err := os.Stat(filepath.Join(dir, "Ep1", "video.mp4")); err != nil {
		t.Fatalf("first item not in place: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Ep1 (2)", "video.webm")); err != nil {
		t.Fatalf("second item must get its own folder: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Ep1", "video.webm")); !os.IsNotExist(err) {
		t.Fatalf("second item leaked into the first folder: %v", err)
	}
}

func TestOrganizeCreatorMissingDirectoryIsNoop(t *testing.T) {
	cfg := organizerConfig(t)
	org := newOrganizer(t, cfg, &recordingTagger{})

	summary, err := org.OrganizeCreator(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("OrganizeCreator: %v", err)
	}
	if summary != (organizer.Summary{}) {
		t.Fatalf("summary = %+v, want zero", summary)
	}
}

func TestOrganizeCreatorFallsBackToDisplayTitle(t *testing.T) {
	cfg := organizerConfig(t)
	dir := cfg.CreatorDir("somecreator")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	seedFiles(t, dir, "Bare_episode [q1w2e3].mp4")
	// Sidecar present but without a title; the filename stem fills in.
	sidecar := `{"uploader":"somecreator"}`
	if err := os.WriteFile(filepath.Join(dir, "Bare_episode [q1w2e3].info.json"), []byte(sidecar), 0o644); err != nil {
		t.Fatalf("seed sidecar: %v", err)
	}

	tagger := &recordingTagger{}
	org := newOrganizer(t, cfg, tagger)

	if _, err := org.OrganizeCreator(context.Background(), "somecreator"); err != nil {
		t.Fatalf("OrganizeCreator: %v", err)
	}
	if len(tagger.calls) != 1 || tagger.calls[0].Title != "Bare_episode" {
		t.Fatalf("expected display-title fallback, calls = %+v", tagger.calls)
	}
	if _, err := os.Stat(filepath.Join(dir, "Bare Episode", "video.mp4")); err != nil {
		t.Fatalf("titled folder missing: %v", err)
	}
}
