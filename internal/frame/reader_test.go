package frame

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// TestReaderReturnsPayloadsInOrder verifies payloads survive arbitrary chunking.
func TestReaderReturnsPayloadsInOrder(t *testing.T) {
	stream := "event: {\"i\":1}\n\nevent: {\"i\":2}\n\nevent: {\"i\":3}"
	reader := NewReader(iotest.OneByteReader(strings.NewReader(stream)))
	var got []string
	for {
		payload, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		got = append(got, strings.TrimSpace(string(payload)))
	}
	if strings.Join(got, ",") != `{"i":1},{"i":2},{"i":3}` {
		t.Fatalf("unexpected payloads %v", got)
	}
}

// TestReaderSurfacesReadErrors verifies decoded payloads precede the transport error.
func TestReaderSurfacesReadErrors(t *testing.T) {
	boom := errors.New("connection reset")
	src := io.MultiReader(strings.NewReader("event: {\"i\":1}\n\n"), iotest.ErrReader(boom))
	reader := NewReader(src)
	if _, err := reader.Next(); err != nil {
		t.Fatalf("expected first payload, got %v", err)
	}
	if _, err := reader.Next(); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if _, err := reader.Next(); !errors.Is(err, boom) {
		t.Fatalf("expected sticky transport error, got %v", err)
	}
}

// TestEncodeRoundTrip verifies encoded frames decode back to the same payload.
func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []byte("{\n  \"type\": \"callStart\"\n}")); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if buf.String() != "event: {\"type\":\"callStart\"}\n\n" {
		t.Fatalf("unexpected frame %q", buf.String())
	}
	if err := Encode(&buf, []byte(`{"type":"runFinish"}`)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	reader := NewReader(&buf)
	for _, want := range []string{TypeCallStart, TypeRunFinish} {
		payload, err := reader.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		f, err := Parse(payload)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if f.Type != want {
			t.Fatalf("expected %s, got %s", want, f.Type)
		}
	}
}

// TestEncodeRejectsInvalidJSON verifies payloads must be JSON.
func TestEncodeRejectsInvalidJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []byte("{oops")); err == nil {
		t.Fatalf("expected error")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}
}
