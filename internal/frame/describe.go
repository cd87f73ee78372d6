package frame

import (
	"encoding/json"
	"strings"
)

// Describe renders a frame as a single human-readable log line.
func Describe(f Frame) string {
	switch f.Type {
	case TypeRunStart:
		return "Run started at " + orUnknown(f.Start)
	case TypeRunFinish:
		if f.Error != "" {
			return "Run failed: " + f.Error
		}
		return "Run finished at " + orUnknown(f.End)
	case TypeCallStart:
		return "Tool starting: " + orUnknown(f.ToolDescription())
	case TypeCallChat:
		return "Chat in progress with your input " + inputText(f.Input)
	case TypeCallProgress:
		return f.LastOutput()
	case TypeCallContinue:
		return "Call continues: " + orUnknown(f.ToolDescription())
	case TypeCallSubCalls:
		return "Sub-calls in progress for " + orUnknown(f.ToolDescription())
	case TypeCallConfirm:
		return "Waiting for confirmation of " + orUnknown(f.ToolDescription())
	case TypeCallFinish:
		return "Call finished: " + joinOutputs(f.Output)
	case TypePrompt:
		return "Prompt: " + orUnknown(f.Content)
	case TypeOutput:
		return f.Content
	}
	if f.Error != "" {
		return f.Type + ": " + f.Error
	}
	data, err := json.Marshal(f)
	if err != nil {
		return f.Type
	}
	return string(data)
}

// orUnknown substitutes a placeholder for empty values.
func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(unknown)"
	}
	return value
}

// inputText renders a raw input value, unquoting plain strings.
func inputText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "(none)"
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return orUnknown(text)
	}
	return string(raw)
}

// joinOutputs concatenates non-empty output contents.
func joinOutputs(outputs []Output) string {
	parts := make([]string, 0, len(outputs))
	for _, output := range outputs {
		if output.Content != "" {
			parts = append(parts, output.Content)
		}
	}
	if len(parts) == 0 {
		return "(no output)"
	}
	return strings.Join(parts, ", ")
}
