// Package organizer is the post-processing pipeline: it groups the flat files
// a fetch run leaves in a creator directory, injects container metadata from
// the sidecar, and reorganizes each item into its own titled folder. The
// pipeline is idempotent; a second run over an organized directory is a no-op.
package organizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"creatorsync/internal/config"
	"creatorsync/internal/fileutil"
	"creatorsync/internal/logging"
	"creatorsync/internal/services"
	"creatorsync/internal/services/ffmpeg"
	"creatorsync/internal/textutil"
)

// Folder titles longer than this are truncated with an ellipsis.
const maxFolderTitleRunes = 80

// Tagger is the slice of the ffmpeg client the pipeline needs.
type Tagger interface {
	InjectMetadata(ctx context.Context, path string, meta ffmpeg.Metadata) error
}

// Summary counts what one pipeline pass did.
type Summary struct {
	Organized int
	Skipped   int
	Failed    int
}

// Organizer runs the post-processing pipeline over creator directories.
type Organizer struct {
	cfg    *config.Config
	tagger Tagger
	logger *slog.Logger
}

// New constructs the pipeline.
func New(cfg *config.Config, tagger Tagger, logger *slog.Logger) (*Organizer, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if tagger == nil {
		return nil, errors.New("tagger required")
	}
	return &Organizer{
		cfg:    cfg,
		tagger: tagger,
		logger: logging.NewComponentLogger(logger, "organizer"),
	}, nil
}

// OrganizeCreator processes every complete group in a creator's directory.
// Group failures are isolated: a failed group is left in place for the next
// run and never stops its siblings.
func (o *Organizer) OrganizeCreator(ctx context.Context, name string) (Summary, error) {
	ctx = services.WithCreator(ctx, name)
	log := logging.WithContext(ctx, o.logger)

	dir := o.cfg.CreatorDir(name)
	groups, err := ScanGroups(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Summary{}, nil
		}
		return Summary{}, services.Wrap(services.ErrTransient, name, "organize", "scan creator directory", err)
	}

	anyMedia := false
	for _, group := range groups {
		if group.HasMedia() {
			anyMedia = true
			break
		}
	}
	if !anyMedia {
		if len(groups) > 0 {
			log.Warn("no media files produced; post-processing skipped",
				slog.Int("incomplete_groups", len(groups)))
		}
		return Summary{Skipped: len(groups)}, nil
	}

	var summary Summary
	for _, group := range groups {
		if !group.HasMedia() {
			summary.Skipped++
			log.Debug("group has no media yet", slog.String("key", group.Key))
			continue
		}
		if err := o.processGroup(ctx, log, dir, group); err != nil {
			summary.Failed++
			log.Warn("group organization failed",
				slog.String("key", group.Key),
				logging.Error(err))
			continue
		}
		summary.Organized++
	}

	if summary.Organized+summary.Failed > 0 {
		log.Info("organization pass finished",
			slog.Int("organized", summary.Organized),
			slog.Int("skipped", summary.Skipped),
			slog.Int("failed", summary.Failed))
	}
	return summary, nil
}

// processGroup tags the media file when a sidecar is present, then moves the
// group into its own folder. A failed injection keeps the untagged original
// and the group is still organized; only filesystem faults fail a group.
func (o *Organizer) processGroup(ctx context.Context, log *slog.Logger, dir string, group Group) error {
	meta, sidecar := o.readSidecar(log, group)
	if sidecar {
		if meta.Title == "" {
			meta.Title = group.Display
		}
		if err := o.tagger.InjectMetadata(ctx, group.Media, meta); err != nil {
			log.Warn("metadata injection failed, organizing untagged",
				slog.String("key", group.Key),
				logging.Error(err))
		}
	}

	target, err := o.allocateFolder(dir, group)
	if err != nil {
		return err
	}

	mediaExt := strings.ToLower(filepath.Ext(group.Media))
	if err := fileutil.MoveFile(group.Media, filepath.Join(target, "video"+mediaExt)); err != nil {
		return services.Wrap(services.ErrTransient, "", "organize", "move media", err)
	}
	if group.Thumbnail != "" {
		thumbExt := strings.ToLower(filepath.Ext(group.Thumbnail))
		if err := fileutil.MoveFile(group.Thumbnail, filepath.Join(target, "thumbnail"+thumbExt)); err != nil {
			log.Warn("thumbnail move failed", slog.String("key", group.Key), logging.Error(err))
		}
	}
	// Sidecars served their purpose once the tags are in the container;
	// unrecognized extras go with them.
	cleanup := append([]string{}, group.Extras...)
	cleanup = append(cleanup, group.Metadata, group.Description)
	for _, sidecarPath := range cleanup {
		if sidecarPath == "" {
			continue
		}
		if err := os.Remove(sidecarPath); err != nil {
			log.Warn("sidecar cleanup failed", slog.String("file", sidecarPath), logging.Error(err))
		}
	}

	log.Info("item organized",
		slog.String("key", group.Key),
		slog.String("folder", filepath.Base(target)),
		slog.Bool("had_sidecar", sidecar))
	return nil
}

// sidecarInfo is the subset of the tool's info sidecar the pipeline reads.
type sidecarInfo struct {
	Title       string `json:"title"`
	Uploader    string `json:"uploader"`
	UploadDate  string `json:"upload_date"`
	Description string `json:"description"`
}

func (o *Organizer) readSidecar(log *slog.Logger, group Group) (ffmpeg.Metadata, bool) {
	if group.Metadata == "" {
		return ffmpeg.Metadata{}, false
	}
	data, err := os.ReadFile(group.Metadata)
	if err != nil {
		log.Warn("sidecar unreadable", slog.String("file", group.Metadata), logging.Error(err))
		return ffmpeg.Metadata{}, false
	}
	var info sidecarInfo
	if err := json.Unmarshal(data, &info); err != nil {
		log.Warn("sidecar not parseable", slog.String("file", group.Metadata), logging.Error(err))
		return ffmpeg.Metadata{}, false
	}
	return ffmpeg.Metadata{
		Title:       info.Title,
		Artist:      info.Uploader,
		Date:        info.UploadDate,
		Description: info.Description,
	}, true
}

// allocateFolder picks the target folder for a group, adding a numeric suffix
// when two distinct items share a display title. A folder counts as occupied
// when it holds any video.* file, whatever its container extension.
func (o *Organizer) allocateFolder(dir string, group Group) (string, error) {
	base := textutil.FolderTitle(group.Display, maxFolderTitleRunes)

	candidate := filepath.Join(dir, base)
	for attempt := 2; ; attempt++ {
		occupied, err := folderOccupied(candidate)
		if err != nil {
			return "", services.Wrap(services.ErrTransient, "", "organize", "allocate folder", err)
		}
		if !occupied {
			return candidate, nil
		}
		if attempt > 10000 {
			return "", services.Wrap(services.ErrTransient, "", "organize",
				fmt.Sprintf("exhausted folder slots for %q", base), nil)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)", base, attempt))
	}
}

func folderOccupied(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "video.") {
			return true, nil
		}
	}
	return false, nil
}
