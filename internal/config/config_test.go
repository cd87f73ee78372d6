package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storywriter/internal/story"
)

// writeConfig writes a config file and the script it references.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "scripts"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scripts", "story.sh"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoadAppliesDefaults verifies omitted fields receive defaults and paths resolve.
func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `version: 1
script:
  command: sh
  file: scripts/story.sh
  timeout: 90s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	baseDir := filepath.Dir(path)
	if cfg.Server.Addr != DefaultAddr || cfg.Server.MaxPages != story.MaxPages {
		t.Fatalf("unexpected server defaults %+v", cfg.Server)
	}
	if cfg.Server.MaxConcurrentRuns != DefaultMaxConcurrentRuns {
		t.Fatalf("unexpected run bound %d", cfg.Server.MaxConcurrentRuns)
	}
	if cfg.Script.Timeout != 90*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.Script.Timeout)
	}
	if cfg.Script.File != filepath.Join(baseDir, "scripts", "story.sh") || cfg.Script.Dir != baseDir {
		t.Fatalf("unexpected script paths %+v", cfg.Script)
	}
	if cfg.Library.Path != filepath.Join(baseDir, DefaultLibraryPath) {
		t.Fatalf("unexpected library path %q", cfg.Library.Path)
	}
	if cfg.Stories.Path != story.DefaultPath || cfg.Client.Endpoint != story.DefaultEndpoint {
		t.Fatalf("unexpected defaults %+v %+v", cfg.Stories, cfg.Client)
	}
}

// TestLoadRejectsUnknownFields verifies strict decoding.
func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "version: 1\nunknown: true\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

// TestParseRejectsMultipleDocuments verifies a single document is required.
func TestParseRejectsMultipleDocuments(t *testing.T) {
	if _, err := Parse([]byte("version: 1\n---\nversion: 1\n")); err == nil {
		t.Fatalf("expected error for multiple documents")
	}
	if _, err := Parse(nil); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

// TestValidateCollectsIssues verifies every problem is reported.
func TestValidateCollectsIssues(t *testing.T) {
	cfg := Config{
		Version: 2,
		Server:  ServerConfig{Addr: "nope", MaxPages: 11, MaxConcurrentRuns: -1, AssetsBaseURL: "static"},
		Script:  ScriptConfig{File: filepath.Join(t.TempDir(), "missing.sh"), Timeout: -time.Second},
		Client:  ClientConfig{Endpoint: "ftp://example.com"},
	}
	err := Validate(&cfg)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := map[string]bool{}
	for _, issue := range validation.Issues {
		fields[issue.Field] = true
	}
	for _, field := range []string{
		"version", "server.addr", "server.max_pages", "server.max_concurrent_runs",
		"server.assets_base_url", "script.command", "script.timeout", "script.file",
		"stories.path", "client.endpoint",
	} {
		if !fields[field] {
			t.Fatalf("expected issue for %s, got %v", field, validation.Issues)
		}
	}
}

// TestScaffoldWritesLoadableConfig verifies init output passes validation.
func TestScaffoldWritesLoadableConfig(t *testing.T) {
	path := ConfigPath(t.TempDir())
	if err := Scaffold(path, "out/stories"); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load scaffold: %v", err)
	}
	if cfg.Script.Command != "sh" || cfg.Stories.Path != "out/stories" {
		t.Fatalf("unexpected scaffold %+v", cfg)
	}
	if err := Scaffold(path, ""); err == nil {
		t.Fatalf("expected error when config exists")
	}
}

// TestScaffoldQuotesStoriesPath verifies awkward folder names survive a load.
func TestScaffoldQuotesStoriesPath(t *testing.T) {
	for _, storiesPath := range []string{
		"out/stories",
		`it's "my" stories: #1`,
		"back\\slash\ttab",
	} {
		path := ConfigPath(t.TempDir())
		if err := Scaffold(path, storiesPath); err != nil {
			t.Fatalf("scaffold %q: %v", storiesPath, err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("load scaffold for %q: %v", storiesPath, err)
		}
		if cfg.Stories.Path != storiesPath {
			t.Fatalf("expected stories path %q, got %q", storiesPath, cfg.Stories.Path)
		}
	}

	rendered, err := renderScaffoldConfig("out/stories")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"stories:\n  path: \"out/stories\"\n",
		"  file: \"" + ExampleScriptPath + "\"\n",
		"  endpoint: \"" + story.DefaultEndpoint + "\"\n",
	} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("expected %q in %s", want, rendered)
		}
	}
}

// TestFindConfigPathWalksUp verifies lookup from nested directories.
func TestFindConfigPathWalksUp(t *testing.T) {
	root := t.TempDir()
	path := ConfigPath(root)
	if err := os.WriteFile(path, []byte("version: 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	found, err := FindConfigPath(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want, _ := filepath.EvalSymlinks(path)
	got, _ := filepath.EvalSymlinks(found)
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if _, err := FindConfigPath(t.TempDir()); err == nil {
		t.Fatalf("expected error when no config exists")
	}
}
