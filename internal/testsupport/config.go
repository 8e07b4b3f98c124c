package testsupport

import (
	"path/filepath"
	"testing"

	"bindery/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMinWorks overrides the minimum work count on the test config.
func WithMinWorks(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Omnibus.MinWorks = n
	}
}

// WithInheritAuthors enables author inheritance on synthesized works.
func WithInheritAuthors() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Omnibus.InheritAuthors = true
	}
}

// WithCacheDisabled turns off the content cache.
func WithCacheDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.ContentCache.Enabled = false
	}
}
