// Package config loads, normalizes, and validates the TOML configuration that
// drives the scanner, the omnibus processor, and the content cache.
package config
