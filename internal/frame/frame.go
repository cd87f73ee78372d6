package frame

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Frame types folded into run state by the reducer.
const (
	TypeCallProgress = "callProgress"
	TypeCallStart    = "callStart"
	TypeRunFinish    = "runFinish"
)

// Frame types that are only rendered in the event log.
const (
	TypeRunStart     = "runStart"
	TypeCallChat     = "callChat"
	TypeCallContinue = "callContinue"
	TypeCallSubCalls = "callSubCalls"
	TypeCallConfirm  = "callConfirm"
	TypeCallFinish   = "callFinish"
	TypePrompt       = "prompt"
	// TypeOutput wraps plain text lines emitted by the story script.
	TypeOutput = "output"
)

var (
	// ErrNotObject reports a payload that is valid JSON but not an object.
	ErrNotObject = errors.New("frame: payload is not a JSON object")
	// ErrEmptyOutput reports a callProgress frame without output entries.
	ErrEmptyOutput = errors.New("frame: callProgress frame has no output")
)

// Output is a single output entry of a progress frame.
type Output struct {
	Content string `json:"content"`
}

// Tool describes the tool a frame refers to.
type Tool struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Frame is one decoded server-sent event.
type Frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Start   string          `json:"start,omitempty"`
	End     string          `json:"end,omitempty"`
	Input   json.RawMessage `json:"input,omitempty"`
	Output  []Output        `json:"output,omitempty"`
	Tool    *Tool           `json:"tool,omitempty"`
	Content string          `json:"content,omitempty"`
	Error   string          `json:"error,omitempty"`

	// Raw holds the payload exactly as received.
	Raw json.RawMessage `json:"-"`
}

// Parse decodes a frame payload.
//
// Only the fields a frame's type needs are read, and each one on its own, so
// extra or differently shaped fields never reject a frame. A callProgress
// frame must carry at least one output entry.
func Parse(payload []byte) (Frame, error) {
	trimmed := bytes.TrimSpace(payload)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Frame{}, fmt.Errorf("frame: parse payload: %w", err)
	}
	if fields == nil {
		return Frame{}, ErrNotObject
	}

	var f Frame
	field(fields, "type", &f.Type)
	field(fields, "id", &f.ID)
	field(fields, "start", &f.Start)
	field(fields, "end", &f.End)
	field(fields, "content", &f.Content)
	field(fields, "error", &f.Error)
	f.Input = fields["input"]
	f.Tool = toolField(fields["tool"])
	f.Output = outputField(fields["output"])

	if f.Type == TypeCallProgress && len(f.Output) == 0 {
		return Frame{}, ErrEmptyOutput
	}
	f.Raw = append(json.RawMessage(nil), trimmed...)
	return f, nil
}

// field decodes fields[key] into dst and leaves dst unset when the value has
// another shape.
func field(fields map[string]json.RawMessage, key string, dst any) {
	value, ok := fields[key]
	if !ok {
		return
	}
	_ = json.Unmarshal(value, dst)
}

func toolField(raw json.RawMessage) *Tool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil
	}
	tool := &Tool{}
	field(fields, "name", &tool.Name)
	field(fields, "description", &tool.Description)
	return tool
}

// outputField keeps one entry per list element; elements that are not
// objects contribute an empty entry.
func outputField(raw json.RawMessage) []Output {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) == 0 {
		return nil
	}
	out := make([]Output, len(entries))
	for i, entry := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err == nil {
			field(fields, "content", &out[i].Content)
		}
	}
	return out
}

// MarshalJSON returns the received payload when there is one.
func (f Frame) MarshalJSON() ([]byte, error) {
	if len(f.Raw) > 0 {
		return f.Raw, nil
	}
	type plain Frame
	return json.Marshal(plain(f))
}

// ToolDescription returns the tool description or an empty string.
func (f Frame) ToolDescription() string {
	if f.Tool == nil {
		return ""
	}
	return f.Tool.Description
}

// LastOutput returns the content of the newest output entry.
func (f Frame) LastOutput() string {
	if len(f.Output) == 0 {
		return ""
	}
	return f.Output[len(f.Output)-1].Content
}
