// Package logging builds the slog loggers used across livescribe.
//
// It supports console and JSON output, optional mirroring to a log file in
// the configured log directory, and typed attribute helpers so call sites
// stay consistent about field names. Channel components derive sub-loggers
// with logger.With(logging.String(logging.FieldChannel, name)) so every line
// can be traced back to one monitored room.
package logging
