// Package classify maps raw fetch tool output to semantic events and decides
// job outcomes from exit codes and accumulated error lines.
//
// Both classifiers are pure functions over explicit pattern tables. The
// benign/critical partition and the diagnosis table are heuristic substring
// matches against yt-dlp output and may drift across tool versions; the
// tables are exported so they can be audited and tested in isolation.
package classify
