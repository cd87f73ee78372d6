package config

import (
	"path/filepath"
	"strings"
	"time"

	"storywriter/internal/story"
)

// Defaults applied by Normalize.
const (
	DefaultAddr              = "127.0.0.1:3000"
	DefaultMaxConcurrentRuns = 4
	DefaultScriptTimeout     = 30 * time.Minute
	DefaultLibraryPath       = ".storywriter/library.duckdb"
)

// Default returns a normalized config without a script.
func Default() Config {
	cfg := Config{Version: 1}
	Normalize(&cfg)
	return cfg
}

// Normalize fills in defaults for omitted fields.
func Normalize(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.MaxPages == 0 {
		cfg.Server.MaxPages = story.MaxPages
	}
	if cfg.Server.MaxConcurrentRuns == 0 {
		cfg.Server.MaxConcurrentRuns = DefaultMaxConcurrentRuns
	}
	if cfg.Script.Timeout == 0 {
		cfg.Script.Timeout = DefaultScriptTimeout
	}
	if strings.TrimSpace(cfg.Stories.Path) == "" {
		cfg.Stories.Path = story.DefaultPath
	}
	if strings.TrimSpace(cfg.Library.Path) == "" {
		cfg.Library.Path = DefaultLibraryPath
	}
	if strings.TrimSpace(cfg.Client.Endpoint) == "" {
		cfg.Client.Endpoint = story.DefaultEndpoint
	}
}

// ResolvePaths makes the script and library paths absolute relative to baseDir.
// The stories path is passed to the script verbatim.
func ResolvePaths(cfg *Config, baseDir string) {
	if baseDir == "" {
		return
	}
	cfg.Script.File = resolve(baseDir, cfg.Script.File)
	cfg.Library.Path = resolve(baseDir, cfg.Library.Path)
	if cfg.Script.Dir == "" {
		cfg.Script.Dir = baseDir
	} else {
		cfg.Script.Dir = resolve(baseDir, cfg.Script.Dir)
	}
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
