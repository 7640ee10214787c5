// Package config loads, normalizes, and validates livescribe configuration.
//
// It supplies repository defaults, expands tilde paths, reads TOML files, and
// exposes one typed Config covering every knob the daemon and CLI need:
// monitored channels, recognizer credentials, capture binaries, journal
// location, and notification settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical defaults, and clear validation errors before any
// channel starts.
package config
