//go:build !windows

package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"storywriter/internal/frame"
	"storywriter/internal/story"
	"storywriter/internal/testutil"
)

// collector records payloads delivered by the launcher.
type collector struct {
	mu       sync.Mutex
	payloads []string
	failAt   int
}

func (c *collector) sink(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAt > 0 && len(c.payloads)+1 >= c.failAt {
		return errors.New("client gone")
	}
	c.payloads = append(c.payloads, string(payload))
	return nil
}

func (c *collector) frames(t *testing.T) []frame.Frame {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	frames := make([]frame.Frame, 0, len(c.payloads))
	for _, payload := range c.payloads {
		f, err := frame.Parse([]byte(payload))
		if err != nil {
			t.Fatalf("parse %q: %v", payload, err)
		}
		frames = append(frames, f)
	}
	return frames
}

// writeScript writes a shell script into a temp dir and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "story.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func newLauncher(t *testing.T, file string, timeout time.Duration) *Launcher {
	t.Helper()
	launcher, err := New(Config{Command: "sh", File: file, Timeout: timeout})
	if err != nil {
		t.Fatalf("new launcher: %v", err)
	}
	return launcher
}

var request = story.Request{Story: "a programmer saves the world", Pages: 3}

// TestRunRelaysFramesAndWrapsText verifies JSON lines pass through and text lines are wrapped.
func TestRunRelaysFramesAndWrapsText(t *testing.T) {
	file := writeScript(t, `echo '{"type":"callStart","tool":{"description":"outline"}}'
echo 'plain text line'
echo ''
echo '{"type":"runFinish","end":"later"}'`)
	var sink collector
	if err := newLauncher(t, file, 0).Run(testutil.Context(t, 0), request, sink.sink); err != nil {
		t.Fatalf("run: %v", err)
	}
	frames := sink.frames(t)
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d: %v", len(frames), sink.payloads)
	}
	if frames[0].ToolDescription() != "outline" {
		t.Fatalf("unexpected first frame %+v", frames[0])
	}
	if frames[1].Type != frame.TypeOutput || frames[1].Content != "plain text line" {
		t.Fatalf("unexpected wrapped frame %+v", frames[1])
	}
	if frames[2].Type != frame.TypeRunFinish || frames[2].End != "later" {
		t.Fatalf("expected the script's own runFinish, got %+v", frames[2])
	}
}

// TestRunPassesRequestArguments verifies the request reaches the script as flags.
func TestRunPassesRequestArguments(t *testing.T) {
	file := writeScript(t, `echo "$1=$2 $3=$4 $5=$6"`)
	var sink collector
	if err := newLauncher(t, file, 0).Run(testutil.Context(t, 0), request, sink.sink); err != nil {
		t.Fatalf("run: %v", err)
	}
	frames := sink.frames(t)
	want := "--story=a programmer saves the world --pages=3 --path=" + story.DefaultPath
	if len(frames) == 0 || frames[0].Content != want {
		t.Fatalf("unexpected arguments %+v", frames)
	}
}

// TestRunSynthesizesFinish verifies a runFinish frame closes every run.
func TestRunSynthesizesFinish(t *testing.T) {
	file := writeScript(t, `echo '{"type":"runStart"}'`)
	var sink collector
	if err := newLauncher(t, file, 0).Run(testutil.Context(t, 0), request, sink.sink); err != nil {
		t.Fatalf("run: %v", err)
	}
	frames := sink.frames(t)
	last := frames[len(frames)-1]
	if last.Type != frame.TypeRunFinish || last.Error != "" || last.End == "" {
		t.Fatalf("unexpected final frame %+v", last)
	}
}

// TestRunAcceptsScriptFinishWithStringOutput verifies the script's own
// runFinish is kept even when its output is a plain string.
func TestRunAcceptsScriptFinishWithStringOutput(t *testing.T) {
	file := writeScript(t, `echo '{"type":"runFinish","output":"story written","end":"2024-01-01"}'`)
	var sink collector
	if err := newLauncher(t, file, 0).Run(testutil.Context(t, 0), request, sink.sink); err != nil {
		t.Fatalf("run: %v", err)
	}
	frames := sink.frames(t)
	if len(frames) != 1 || frames[0].Type != frame.TypeRunFinish || frames[0].End != "2024-01-01" {
		t.Fatalf("expected only the script's runFinish, got %v", sink.payloads)
	}
}

// TestRunReportsExitStatus verifies failing scripts end with an error frame.
func TestRunReportsExitStatus(t *testing.T) {
	file := writeScript(t, `echo 'broken' >&2
exit 3`)
	var sink collector
	err := newLauncher(t, file, 0).Run(testutil.Context(t, 0), request, sink.sink)
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed, got %v", err)
	}
	frames := sink.frames(t)
	if len(frames) != 1 || frames[0].Type != frame.TypeRunFinish {
		t.Fatalf("unexpected frames %+v", frames)
	}
	if !strings.Contains(frames[0].Error, "exit status 3") {
		t.Fatalf("unexpected error %q", frames[0].Error)
	}
}

// TestRunTimeoutKillsProcessGroup verifies the timeout stops the script and its children.
func TestRunTimeoutKillsProcessGroup(t *testing.T) {
	file := writeScript(t, `echo '{"type":"runStart"}'
sleep 30 &
sleep 30`)
	var sink collector
	start := time.Now()
	err := newLauncher(t, file, 200*time.Millisecond).Run(testutil.Context(t, 10*time.Second), request, sink.sink)
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("script was not killed in time: %s", elapsed)
	}
	frames := sink.frames(t)
	last := frames[len(frames)-1]
	if !strings.Contains(last.Error, "timed out") {
		t.Fatalf("unexpected final frame %+v", last)
	}
}

// TestRunStopsWhenSinkFails verifies a failing sink ends the run.
func TestRunStopsWhenSinkFails(t *testing.T) {
	file := writeScript(t, `while true; do echo '{"type":"prompt","content":"again"}'; sleep 0.05; done`)
	sink := collector{failAt: 2}
	err := newLauncher(t, file, 0).Run(testutil.Context(t, 10*time.Second), request, sink.sink)
	if err == nil || !strings.Contains(err.Error(), "client gone") {
		t.Fatalf("expected sink error, got %v", err)
	}
}

// TestRunRejectsInvalidRequest verifies nothing is launched for bad input.
func TestRunRejectsInvalidRequest(t *testing.T) {
	var sink collector
	err := newLauncher(t, "unused.sh", 0).Run(testutil.Context(t, 0), story.Request{Story: " "}, sink.sink)
	if !errors.Is(err, story.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if len(sink.payloads) != 0 {
		t.Fatalf("expected no frames")
	}
}

// TestNewRequiresCommand verifies the command must be configured.
func TestNewRequiresCommand(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

// TestLinePayload verifies line classification.
func TestLinePayload(t *testing.T) {
	if _, ok := linePayload([]byte("   ")); ok {
		t.Fatalf("blank lines must be skipped")
	}
	payload, ok := linePayload([]byte(`{"type":"x"} `))
	if !ok || string(payload) != `{"type":"x"}` {
		t.Fatalf("unexpected payload %q", payload)
	}
	payload, ok = linePayload([]byte(`{not json`))
	if !ok || !strings.Contains(string(payload), `"content":"{not json"`) {
		t.Fatalf("unexpected wrapped payload %q", payload)
	}
}
