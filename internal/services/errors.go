package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrecondition marks failures detected before the fetch tool launches
	// (missing/empty cookie file, unwritable archive ledger).
	ErrPrecondition = errors.New("precondition failure")
	// ErrExternalTool marks non-zero exits or launch failures of yt-dlp/ffmpeg.
	ErrExternalTool = errors.New("external tool error")
	// ErrConfiguration marks invalid or missing configuration values.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks wall-clock bounded operations that ran out of time.
	ErrTimeout = errors.New("timeout")
	// ErrTransient marks failures that may succeed on a later run.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes job context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, job, operation, message string, err error) error {
	detail := buildDetail(job, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(job, operation, message string) string {
	parts := make([]string, 0, 3)
	if job = strings.TrimSpace(job); job != "" {
		parts = append(parts, job)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
