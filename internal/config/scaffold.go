package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storywriter/internal/story"
)

// ExampleScriptPath is the script written by Scaffold, relative to the config.
const ExampleScriptPath = "scripts/write-story.sh"

const exampleScript = `#!/bin/sh
# Example story script. Replace with the real generator; it receives
# --story <text> --pages <n> --path <dir> and prints one JSON frame per line.
story=""
pages=1
while [ $# -gt 0 ]; do
  case "$1" in
    --story) story="$2"; shift 2 ;;
    --pages) pages="$2"; shift 2 ;;
    --path) shift 2 ;;
    *) shift ;;
  esac
done
echo '{"type":"runStart"}'
echo '{"type":"callStart","tool":{"description":"outline"}}'
i=1
while [ "$i" -le "$pages" ]; do
  echo "{\"type\":\"callProgress\",\"output\":[{\"content\":\"Chapter $i...\"}]}"
  i=$((i + 1))
done
echo "Finished: $story"
echo '{"type":"runFinish"}'
`

// Scaffold writes a starter config and example script at configPath. An
// empty storiesPath selects the default stories folder.
func Scaffold(configPath, storiesPath string) error {
	if configPath == "" {
		return fmt.Errorf("config path is required")
	}
	if strings.TrimSpace(storiesPath) == "" {
		storiesPath = story.DefaultPath
	}
	if err := ensureAbsent(configPath); err != nil {
		return err
	}
	baseDir := filepath.Dir(configPath)
	scriptPath := filepath.Join(baseDir, ExampleScriptPath)
	if err := ensureAbsent(scriptPath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(scriptPath), 0o755); err != nil {
		return fmt.Errorf("create scripts dir: %w", err)
	}
	content, err := renderScaffoldConfig(storiesPath)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.WriteFile(scriptPath, []byte(exampleScript), 0o755); err != nil {
		return fmt.Errorf("write example script: %w", err)
	}
	return nil
}

func ensureAbsent(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("path %q is a directory", path)
		}
		return fmt.Errorf("file already exists at %q", path)
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat %q: %w", path, err)
	}
	return nil
}
