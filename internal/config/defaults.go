package config

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: "~/books",
			DataDir:    "~/.local/share/bindery",
			CacheDir:   "~/.cache/bindery",
			LogDir:     "~/.local/share/bindery/logs",
		},
		Omnibus: Omnibus{
			MinWorks:         2,
			DescriptionLimit: 500,
		},
		ContentCache: ContentCache{
			Enabled:            true,
			MaxAgeHours:        24,
			SweepIntervalHours: 6,
		},
		Workflow: Workflow{
			ScanWorkers:        4,
			ErrorRetryInterval: 10,
		},
		Logging: Logging{
			Format: "text",
			Level:  "info",
		},
	}
}
