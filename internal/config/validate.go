package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"storywriter/internal/story"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation errors as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// Validate checks a normalized config for correctness and referenced files.
func Validate(cfg *Config) error {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{Field: field, Message: message})
	}

	if cfg.Version == 0 {
		add("version", "is required")
	} else if cfg.Version != 1 {
		add("version", fmt.Sprintf("unsupported version %d", cfg.Version))
	}

	if _, _, err := net.SplitHostPort(cfg.Server.Addr); err != nil {
		add("server.addr", fmt.Sprintf("invalid address %q", cfg.Server.Addr))
	}
	if cfg.Server.MaxPages < 1 || cfg.Server.MaxPages > story.MaxPages {
		add("server.max_pages", fmt.Sprintf("must be between 1 and %d", story.MaxPages))
	}
	if cfg.Server.MaxConcurrentRuns < 1 {
		add("server.max_concurrent_runs", "must be >= 1")
	}
	if base := strings.TrimSpace(cfg.Server.AssetsBaseURL); base != "" && !strings.HasPrefix(base, "/") {
		add("server.assets_base_url", "must start with /")
	}

	if strings.TrimSpace(cfg.Script.Command) == "" {
		add("script.command", "is required")
	}
	if cfg.Script.Timeout < 0 {
		add("script.timeout", "must be >= 0")
	}
	if file := cfg.Script.File; file != "" {
		checkFile(add, "script.file", file)
	}
	if dir := cfg.Script.Dir; dir != "" {
		if info, err := os.Stat(dir); err != nil {
			add("script.dir", fmt.Sprintf("directory not found: %s", dir))
		} else if !info.IsDir() {
			add("script.dir", fmt.Sprintf("not a directory: %s", dir))
		}
	}

	if strings.TrimSpace(cfg.Stories.Path) == "" {
		add("stories.path", "is required")
	}

	endpoint, err := url.Parse(cfg.Client.Endpoint)
	if err != nil || (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		add("client.endpoint", fmt.Sprintf("invalid endpoint %q", cfg.Client.Endpoint))
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func checkFile(add func(string, string), field, path string) {
	info, err := os.Stat(path)
	if err != nil {
		add(field, fmt.Sprintf("file not found: %s", path))
		return
	}
	if info.IsDir() {
		add(field, fmt.Sprintf("is a directory: %s", path))
	}
}
