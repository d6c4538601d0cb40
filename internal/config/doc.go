// Package config loads, normalizes, and validates KeepMePrivate configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and overlays values from a local .env file and
// the process environment. The Config type centralizes the status file
// location, per-monitor cadences, notification delivery settings, and
// supervisor timings so the daemon and CLI discover them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, positive intervals, and clear validation errors.
package config
