package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Group collects every file the fetch tool wrote for one downloaded item.
// Files are grouped by identity key: the shared filename stem including the
// bracketed unique id, with role-specific extensions stripped.
type Group struct {
	// Key is the identity key, e.g. "Ep1 [abc123]".
	Key string
	// Display is the key with the trailing bracketed id removed, used to
	// derive the folder title.
	Display string

	Media       string
	Metadata    string
	Description string
	Thumbnail   string
	Extras      []string
}

// HasMedia reports whether the group contains a primary media file. Groups
// without one are left untouched by the pipeline.
func (g Group) HasMedia() bool {
	return g.Media != ""
}

var mediaExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".m4a":  true,
	".mp3":  true,
	".mov":  true,
	".avi":  true,
}

var thumbnailExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ScanGroups walks the top level of a creator directory and groups its plain
// files by identity key. Subdirectories (already-organized items) are ignored,
// which is what makes re-running the pipeline idempotent.
func ScanGroups(dir string) ([]Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	byKey := make(map[string]*Group)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		stem, ext := splitStem(name)
		if stem == "" {
			continue
		}

		group, ok := byKey[stem]
		if !ok {
			group = &Group{Key: stem, Display: stripTrailingID(stem)}
			byKey[stem] = group
		}

		path := filepath.Join(dir, name)
		lowerExt := strings.ToLower(ext)
		switch {
		case lowerExt == ".info.json":
			group.Metadata = path
		case lowerExt == ".description":
			group.Description = path
		case mediaExtensions[lowerExt]:
			group.Media = path
		case thumbnailExtensions[lowerExt]:
			group.Thumbnail = path
		default:
			group.Extras = append(group.Extras, path)
		}
	}

	groups := make([]Group, 0, len(byKey))
	for _, group := range byKey {
		sort.Strings(group.Extras)
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups, nil
}

// compoundExtensions are multi-part suffixes that must be stripped whole so
// "Ep1 [abc].info.json" keys the same group as "Ep1 [abc].mp4".
var compoundExtensions = []string{".info.json"}

func splitStem(name string) (stem, ext string) {
	lower := strings.ToLower(name)
	for _, compound := range compoundExtensions {
		if strings.HasSuffix(lower, compound) {
			return name[:len(name)-len(compound)], name[len(name)-len(compound):]
		}
	}
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// stripTrailingID removes a trailing " [token]" segment from an identity key.
// The token must be non-empty and free of spaces, matching the id segment the
// output template appends.
func stripTrailingID(stem string) string {
	if !strings.HasSuffix(stem, "]") {
		return stem
	}
	open := strings.LastIndex(stem, " [")
	if open <= 0 {
		return stem
	}
	token := stem[open+2 : len(stem)-1]
	if token == "" || strings.ContainsAny(token, " []") {
		return stem
	}
	return stem[:open]
}
