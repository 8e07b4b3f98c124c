package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validate checks configuration consistency before any subsystem starts.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		problems = append(problems, "paths.cache_dir must be set")
	}

	if c.Omnibus.MinWorks < 2 {
		problems = append(problems, "omnibus.min_works must be at least 2 (a single work is not a split)")
	}
	if c.Omnibus.DescriptionLimit < 0 {
		problems = append(problems, "omnibus.description_limit must not be negative")
	}
	for typeName, patterns := range c.Omnibus.Publishers {
		if strings.TrimSpace(typeName) == "" {
			problems = append(problems, "omnibus.publishers contains an empty type name")
			continue
		}
		for _, pattern := range patterns {
			if _, err := regexp.Compile(pattern); err != nil {
				problems = append(problems, fmt.Sprintf("omnibus.publishers[%s]: invalid pattern %q: %v", typeName, pattern, err))
			}
		}
	}

	if c.ContentCache.MaxAgeHours <= 0 {
		problems = append(problems, "content_cache.max_age_hours must be positive")
	}
	if c.ContentCache.SweepIntervalHours <= 0 {
		problems = append(problems, "content_cache.sweep_interval_hours must be positive")
	}

	if c.Workflow.ScanWorkers <= 0 {
		problems = append(problems, "workflow.scan_workers must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		problems = append(problems, "workflow.error_retry_interval must be positive")
	}

	switch c.Logging.Format {
	case "", "text", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level: unsupported value %q", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}
