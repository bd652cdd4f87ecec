// Package ffmpeg wraps the metadata injection step of the post-processing
// pipeline. Injection is stream-copy only; media bytes are never re-encoded.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Metadata carries the container tags written into a media file. Empty fields
// are skipped rather than written as empty tags.
type Metadata struct {
	Title       string
	Artist      string
	Date        string
	Description string
}

// Runner executes the tool and returns combined output for error context.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(runner Runner) Option {
	return func(c *Client) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary string
	runner Runner
}

// New constructs an ffmpeg client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{binary: binary, runner: execRunner{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// InjectMetadata writes tags into path by stream-copying to a temporary
// sibling and renaming it into place. On any failure the original file is
// left untouched and the temporary is removed.
func (c *Client) InjectMetadata(ctx context.Context, path string, meta Metadata) error {
	tmp := tempSibling(path)

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", path, "-map", "0", "-c", "copy"}
	for _, tag := range []struct{ key, value string }{
		{"title", meta.Title},
		{"artist", meta.Artist},
		{"date", meta.Date},
		{"description", meta.Description},
	} {
		if tag.value == "" {
			continue
		}
		args = append(args, "-metadata", tag.key+"="+tag.value)
	}
	args = append(args, tmp)

	output, err := c.runner.Run(ctx, c.binary, args)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("inject metadata into %s: %w (output: %s)", filepath.Base(path), err, truncate(string(output), 400))
	}

	info, err := os.Stat(tmp)
	if err != nil {
		return fmt.Errorf("inject metadata into %s: tool reported success but wrote no output: %w", filepath.Base(path), err)
	}
	if info.Size() == 0 {
		_ = os.Remove(tmp)
		return fmt.Errorf("inject metadata into %s: tool wrote an empty file", filepath.Base(path))
	}

	if err := os.Remove(path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// tempSibling keeps the original extension so the tool can infer the
// container format from the output name.
func tempSibling(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".tmp" + ext
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
