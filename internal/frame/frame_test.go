package frame

import (
	"encoding/json"
	"errors"
	"testing"
)

// TestParseCallProgress verifies output and tool fields are decoded.
func TestParseCallProgress(t *testing.T) {
	f, err := Parse([]byte(` {"type":"callProgress","output":[{"content":"a"},{"content":"Chapter 1..."}],"tool":{"description":"writer"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Type != TypeCallProgress {
		t.Fatalf("expected callProgress, got %q", f.Type)
	}
	if got := f.LastOutput(); got != "Chapter 1..." {
		t.Fatalf("unexpected last output %q", got)
	}
	if got := f.ToolDescription(); got != "writer" {
		t.Fatalf("unexpected tool description %q", got)
	}
}

// TestParseCallProgressWithoutOutput verifies an empty output list is rejected.
func TestParseCallProgressWithoutOutput(t *testing.T) {
	for _, payload := range []string{
		`{"type":"callProgress"}`,
		`{"type":"callProgress","output":[]}`,
	} {
		if _, err := Parse([]byte(payload)); !errors.Is(err, ErrEmptyOutput) {
			t.Fatalf("%s: expected ErrEmptyOutput, got %v", payload, err)
		}
	}
}

// TestParseRejectsMalformedPayloads verifies invalid JSON and non-objects fail.
func TestParseRejectsMalformedPayloads(t *testing.T) {
	for _, payload := range []string{`{"type":`, `not json`, `[1,2]`, `"text"`, `null`, ``} {
		if _, err := Parse([]byte(payload)); err == nil {
			t.Fatalf("%q: expected parse error", payload)
		}
	}
	if _, err := Parse([]byte(`null`)); !errors.Is(err, ErrNotObject) {
		t.Fatalf("expected ErrNotObject for null, got %v", err)
	}
}

// TestParseKeepsUnknownFramesVerbatim verifies other frame types keep their payload.
func TestParseKeepsUnknownFramesVerbatim(t *testing.T) {
	payload := `{"type":"callChat","input":"hello","extra":{"nested":[1,2,3]}}`
	f, err := Parse([]byte(" " + payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Type != TypeCallChat {
		t.Fatalf("unexpected type %q", f.Type)
	}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != payload {
		t.Fatalf("expected verbatim payload, got %s", data)
	}
}

// TestParseToleratesOddFieldsInUnknownFrames verifies best-effort decoding of unrecognized frames.
func TestParseToleratesOddFieldsInUnknownFrames(t *testing.T) {
	f, err := Parse([]byte(`{"type":"custom","tool":"not-an-object","output":"x"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Type != "custom" {
		t.Fatalf("unexpected type %q", f.Type)
	}
	f, err = Parse([]byte(`{"kind":"no type field"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Type != "" {
		t.Fatalf("expected empty type, got %q", f.Type)
	}
}

// TestParseRunFinishWithForeignFields verifies runFinish frames carrying extra
// or differently shaped fields are still recognized.
func TestParseRunFinishWithForeignFields(t *testing.T) {
	for _, payload := range []string{
		`{"type":"runFinish","output":"done"}`,
		`{"type":"runFinish","output":"story written","end":"2024-01-01","tool":"writer","input":{"story":"x"}}`,
	} {
		f, err := Parse([]byte(payload))
		if err != nil {
			t.Fatalf("%s: parse: %v", payload, err)
		}
		if f.Type != TypeRunFinish {
			t.Fatalf("%s: expected runFinish, got %q", payload, f.Type)
		}
		if f.Error != "" || f.Tool != nil || len(f.Output) != 0 {
			t.Fatalf("%s: unexpected fields %+v", payload, f)
		}
	}
	f, err := Parse([]byte(`{"type":"runFinish","output":"done","error":"exit status 1"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Error != "exit status 1" {
		t.Fatalf("unexpected error field %q", f.Error)
	}
}

// TestParseRecognizedFramesReadOnlyNeededFields verifies odd shapes in
// callStart and callProgress frames only blank the affected field.
func TestParseRecognizedFramesReadOnlyNeededFields(t *testing.T) {
	f, err := Parse([]byte(`{"type":"callStart","tool":"outline","output":{"x":1}}`))
	if err != nil {
		t.Fatalf("parse callStart: %v", err)
	}
	if f.Type != TypeCallStart || f.ToolDescription() != "" {
		t.Fatalf("unexpected callStart %+v", f)
	}
	f, err = Parse([]byte(`{"type":"callProgress","output":["raw",{"content":"Chapter 2"}],"tool":{"description":7,"name":"w"},"end":5}`))
	if err != nil {
		t.Fatalf("parse callProgress: %v", err)
	}
	if f.LastOutput() != "Chapter 2" || f.ToolDescription() != "" || f.Tool.Name != "w" {
		t.Fatalf("unexpected callProgress %+v", f)
	}
	if _, err := Parse([]byte(`{"type":"callProgress","output":"not a list"}`)); !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput for non-list output, got %v", err)
	}
}

// TestMarshalWithoutRaw verifies constructed frames encode their fields.
func TestMarshalWithoutRaw(t *testing.T) {
	data, err := json.Marshal(Frame{Type: TypeRunFinish, Error: "exit status 1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"type":"runFinish","error":"exit status 1"}` {
		t.Fatalf("unexpected encoding %s", data)
	}
}
