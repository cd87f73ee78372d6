package frame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Encode writes a JSON payload as one frame.
func Encode(w io.Writer, payload []byte) error {
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		return fmt.Errorf("frame: compact payload: %w", err)
	}
	var out bytes.Buffer
	out.Grow(len(Prefix) + compact.Len() + len(Delimiter))
	out.WriteString(Prefix)
	out.Write(compact.Bytes())
	out.WriteString(Delimiter)
	_, err := w.Write(out.Bytes())
	return err
}
