package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bindery/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected no config file to be found")
	}
	if cfg.Omnibus.MinWorks != 2 {
		t.Fatalf("unexpected default min_works %d", cfg.Omnibus.MinWorks)
	}
	if !cfg.ContentCache.Enabled {
		t.Fatal("content cache must default to enabled")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bindery.toml")
	content := `
[paths]
library_dir = "` + dir + `/library"
data_dir = "` + dir + `/data"
cache_dir = "` + dir + `/cache"
log_dir = "` + dir + `/logs"

[omnibus]
min_works = 3
title_keywords = [" Boxed Set ", ""]
inherit_authors = true

[omnibus.publishers]
wordsworth = ['wordsworth\s+editions']

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Omnibus.MinWorks != 3 {
		t.Fatalf("min_works not applied: %d", cfg.Omnibus.MinWorks)
	}
	if !cfg.Omnibus.InheritAuthors {
		t.Fatal("inherit_authors not applied")
	}
	if len(cfg.Omnibus.TitleKeywords) != 1 || cfg.Omnibus.TitleKeywords[0] != "boxed set" {
		t.Fatalf("keywords not normalized: %v", cfg.Omnibus.TitleKeywords)
	}
	if len(cfg.Omnibus.Publishers["wordsworth"]) != 1 {
		t.Fatalf("publisher patterns not parsed: %v", cfg.Omnibus.Publishers)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging fields not lowercased: %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir not absolute: %q", cfg.Paths.DataDir)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	content := `
[omnibus]
min_works = 1

[omnibus.publishers]
broken = ['(']

[logging]
format = "yaml"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, fragment := range []string{"min_works", "invalid pattern", "logging.format"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error missing %q: %v", fragment, err)
		}
	}
}

func TestEnsureDirectoriesAndPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(dir, "library")
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.CacheDir = filepath.Join(dir, "cache")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, sub := range []string{"library", "data", "cache", "logs"} {
		if _, err := os.Stat(filepath.Join(dir, sub)); err != nil {
			t.Fatalf("directory %s missing: %v", sub, err)
		}
	}
	if cfg.DatabasePath() != filepath.Join(dir, "data", "bindery.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
	if cfg.ScanLockPath() != filepath.Join(dir, "data", "scan.lock") {
		t.Fatalf("unexpected lock path %q", cfg.ScanLockPath())
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config must load cleanly: exists=%v err=%v", exists, err)
	}
}
