// Package config loads, normalizes, and validates the TOML configuration
// consumed by the M-Stash daemon and CLI.
//
// Load applies repository defaults first, then overlays the config file when
// one exists, so a missing file yields a fully usable configuration. Path
// fields are expanded (~ and relative forms) and bounds-checked before any
// other package sees them.
package config
