// Package config loads, normalizes, and validates the creatorsync TOML
// configuration: global paths (download root, archive ledger, cookie file),
// fetch tool settings, logging options, and the per-creator job list.
package config
