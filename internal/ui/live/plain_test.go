package live

import (
	"bytes"
	"strings"
	"testing"

	"storywriter/internal/frame"
	"storywriter/internal/story"
)

// TestPlainPrintsChanges verifies each change is printed once.
func TestPlainPrintsChanges(t *testing.T) {
	var out bytes.Buffer
	plain := NewPlain(&out)
	state := story.Begin(story.Request{Story: "s", Pages: 1})
	plain.OnState(state)
	for _, payload := range []string{
		`{"type":"callStart","tool":{"description":"outline"}}`,
		`{"type":"runStart","start":"now"}`,
		`{"type":"callProgress","output":[{"content":"Chapter 1..."}],"tool":{"description":"outline"}}`,
		`{"type":"callProgress","output":[{"content":"Chapter 1..."}],"tool":{"description":"outline"}}`,
		`{"type":"runFinish"}`,
	} {
		f, err := frame.Parse([]byte(payload))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		state = story.Reduce(state, f)
		plain.OnState(state)
	}
	want := strings.Join([]string{
		thinkingText,
		currentToolLabel + " outline",
		">> Run started at now",
		">> Chapter 1...",
		"Story generation finished.",
		"",
	}, "\n")
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", out.String(), want)
	}
}

// TestPlainPrintsFailure verifies failed runs are reported.
func TestPlainPrintsFailure(t *testing.T) {
	var out bytes.Buffer
	plain := NewPlain(&out)
	plain.OnState(story.Fail(story.Begin(story.Request{Story: "s", Pages: 1}), errStub("boom")))
	if !strings.Contains(out.String(), "Story generation failed: boom") {
		t.Fatalf("expected failure line, got %q", out.String())
	}
}
