// Package logging builds the slog loggers used across bindery and carries the
// shared attribute helpers and field-name constants that keep log output
// consistent between the scanner, the processor, and the content cache.
package logging
