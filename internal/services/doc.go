// Package services provides shared infrastructure for the fetch pipeline:
// a sentinel-error taxonomy with contextual wrapping, and context annotations
// (creator name, run correlation ID) that the logging package surfaces on
// every record.
package services
