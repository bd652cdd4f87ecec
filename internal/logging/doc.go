// Package logging configures structured slog output for creatorsync.
//
// It provides a human-readable console handler and a JSON handler, attr
// helper aliases so call sites stay terse, context-derived logger decoration
// (creator name, run correlation ID), and the wall-clock progress throttle
// used by the fetch supervisor.
package logging
