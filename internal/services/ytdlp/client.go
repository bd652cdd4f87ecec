// Package ytdlp wraps invocations of the external fetch tool: the streaming
// download run supervised by the fetch supervisor, the read-only format
// probe used by the diagnostic fallback, and the version/help introspection
// the compatibility report builds on.
package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"creatorsync/internal/stream"
)

// Handle is a running fetch process with combined stdout+stderr exposed as a
// pollable line stream.
type Handle interface {
	Reader() *stream.Reader
	Wait() (int, error)
}

// Launcher abstracts process creation for testability.
type Launcher interface {
	Launch(ctx context.Context, binary string, args []string) (Handle, error)
}

// Option configures the client.
type Option func(*Client)

// WithLauncher injects a custom launcher (primarily for tests).
func WithLauncher(launcher Launcher) Option {
	return func(c *Client) {
		if launcher != nil {
			c.launcher = launcher
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary       string
	probeTimeout time.Duration
	launcher     Launcher
}

// New constructs a yt-dlp client.
func New(binary string, probeTimeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary:       binary,
		probeTimeout: probeTimeout,
		launcher:     pipeLauncher{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Fetch launches the download run and returns a handle for the supervisor to
// drive. The process's stdout and stderr share one pipe so line ordering
// between channels is preserved.
func (c *Client) Fetch(ctx context.Context, opts CommandOptions) (Handle, error) {
	return c.launcher.Launch(ctx, c.binary, BuildArgs(opts))
}

// ListFormats runs the read-only diagnostic probe against a target, copying
// combined output to out. The probe is wall-clock bounded; hitting the bound
// surfaces as context.DeadlineExceeded.
func (c *Client) ListFormats(ctx context.Context, url, cookiesFile string, out io.Writer) error {
	probeCtx := ctx
	if c.probeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
	}

	args := []string{"--list-formats", "--no-playlist"}
	if cookiesFile != "" {
		args = append(args, "--cookies", cookiesFile)
	}
	args = append(args, url)

	cmd := exec.CommandContext(probeCtx, c.binary, args...) //nolint:gosec
	cmd.Stdout = out
	cmd.Stderr = out
	err := cmd.Run()
	if probeCtx.Err() != nil {
		return probeCtx.Err()
	}
	return err
}

// Version reports the installed yt-dlp version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.capture(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf("yt-dlp version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Help returns the full help text, used to probe flag support.
func (c *Client) Help(ctx context.Context) (string, error) {
	out, err := c.capture(ctx, "--help")
	if err != nil {
		return "", fmt.Errorf("yt-dlp help: %w", err)
	}
	return out, nil
}

func (c *Client) capture(ctx context.Context, args ...string) (string, error) {
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...) //nolint:gosec
	cmd.Stdout = &buf
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// pipeLauncher is the production launcher: one shared pipe for both output
// channels, handed to the non-blocking stream reader.
type pipeLauncher struct{}

func (pipeLauncher) Launch(ctx context.Context, binary string, args []string) (Handle, error) {
	readEnd, writeEnd, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create output pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdout = writeEnd
	cmd.Stderr = writeEnd

	if err := cmd.Start(); err != nil {
		_ = readEnd.Close()
		_ = writeEnd.Close()
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}
	// The parent's copy of the write end must close now so the reader sees
	// EOF when the child exits.
	_ = writeEnd.Close()

	reader, err := stream.NewReader(readEnd)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		_ = readEnd.Close()
		return nil, err
	}
	return &pipeHandle{cmd: cmd, reader: reader}, nil
}

type pipeHandle struct {
	cmd    *exec.Cmd
	reader *stream.Reader
}

func (h *pipeHandle) Reader() *stream.Reader {
	return h.reader
}

// Wait reaps the process and reports its exit code. A non-zero exit is a
// result, not an error; errors are reserved for launch/wait plumbing faults.
func (h *pipeHandle) Wait() (int, error) {
	err := h.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("wait %s: %w", h.cmd.Path, err)
}
