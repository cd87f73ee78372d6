package cli

import (
	"os"
	"path/filepath"
	"testing"

	"storywriter/internal/config"
)

// scaffoldProject writes a config and example script into a temp dir.
func scaffoldProject(t *testing.T) string {
	t.Helper()
	path := config.ConfigPath(t.TempDir())
	if err := config.Scaffold(path, ""); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	return path
}

// chdir switches the working directory for the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// writeFile writes content under dir.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
