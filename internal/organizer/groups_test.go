package organizer_test

import (
	"os"
	"path/filepath"
	"testing"

	"creatorsync/internal/organizer"
)

func seedFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
}

func TestScanGroupsCollectsRolesByIdentityKey(t *testing.T) {
	dir := t.TempDir()
	seedFiles(t, dir,
		"Ep1 [abc123].mp4",
		"Ep1 [abc123].info.json",
		"Ep1 [abc123].description",
		"Ep1 [abc123].jpg",
		"Ep2 [def456].webm",
		"Ep2 [def456].en.vtt",
	)
	if err := os.Mkdir(filepath.Join(dir, "Already Organized"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	groups, err := organizer.ScanGroups(dir)
	if err != nil {
		t.Fatalf("ScanGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2: %+v", len(groups), groups)
	}

	first := groups[0]
	if first.Key != "Ep1 [abc123]" || first.Display != "Ep1" {
		t.Fatalf("unexpected key/display: %q / %q", first.Key, first.Display)
	}
	if filepath.Base(first.Media) != "Ep1 [abc123].mp4" {
		t.Fatalf("media = %q", first.Media)
	}
	if filepath.Base(first.Metadata) != "Ep1 [abc123].info.json" {
		t.Fatalf("metadata = %q", first.Metadata)
	}
	if filepath.Base(first.Description) != "Ep1 [abc123].description" {
		t.Fatalf("description = %q", first.Description)
	}
	if filepath.Base(first.Thumbnail) != "Ep1 [abc123].jpg" {
		t.Fatalf("thumbnail = %q", first.Thumbnail)
	}

	second := groups[1]
	if second.Key != "Ep2 [def456]" {
		t.Fatalf("second key = %q", second.Key)
	}
	if len(second.Extras) != 1 || filepath.Base(second.Extras[0]) != "Ep2 [def456].en.vtt" {
		t.Fatalf("extras = %v", second.Extras)
	}
}

func TestScanGroupsWithoutMediaIsIncomplete(t *testing.T) {
	dir := t.TempDir()
	seedFiles(t, dir, "Teaser [xyz789].info.json", "Teaser [xyz789].jpg")

	groups, err := organizer.ScanGroups(dir)
	if err != nil {
		t.Fatalf("ScanGroups: %v", err)
	}
	if len(groups) != 1 || groups[0].HasMedia() {
		t.Fatalf("expected one media-less group, got %+v", groups)
	}
}

func TestIdentityKeyEdgeCases(t *testing.T) {
	cases := []struct {
		file        string
		wantKey     string
		wantDisplay string
	}{
		{"Plain Title [id1].mp4", "Plain Title [id1]", "Plain Title"},
		{"Brackets [in] title [id2].mp4", "Brackets [in] title [id2]", "Brackets [in] title"},
		{"No id at all.mp4", "No id at all", "No id at all"},
		{"Trailing [with space ].mp4", "Trailing [with space ]", "Trailing [with space ]"},
		{"[onlyid].mp4", "[onlyid]", "[onlyid]"},
	}
	for _, tc := range cases {
		dir := t.TempDir()
		seedFiles(t, dir, tc.file)
		groups, err := organizer.ScanGroups(dir)
		if err != nil {
			t.Fatalf("ScanGroups(%q): %v", tc.file, err)
		}
		if len(groups) != 1 {
			t.Fatalf("ScanGroups(%q) groups = %d", tc.file, len(groups))
		}
		if groups[0].Key != tc.wantKey || groups[0].Display != tc.wantDisplay {
			t.Fatalf("ScanGroups(%q) = key %q display %q, want %q / %q",
				tc.file, groups[0].Key, groups[0].Display, tc.wantKey, tc.wantDisplay)
		}
	}
}
