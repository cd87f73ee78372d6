package frame

import (
	"bytes"
	"unicode/utf8"
)

const (
	// Delimiter separates frames in the stream.
	Delimiter = "\n\n"
	// Prefix marks a frame line carrying a JSON payload.
	Prefix = "event: "

	marker = "event:"
)

var replacementChar = []byte(string(utf8.RuneError))

// Decoder turns stream bytes into discrete frame payloads.
type Decoder interface {
	// Decode consumes the next chunk and returns every payload it completes.
	Decode(chunk []byte) [][]byte
	// Flush returns payloads still buffered once the stream has ended.
	Flush() [][]byte
}

// TextDecoder is the Decoder for the event stream wire format.
//
// Bytes of a multi-byte character cut by a chunk boundary are held back until
// the rest arrives, and text after the last delimiter waits for the next chunk.
type TextDecoder struct {
	carry   []byte
	pending []byte
}

// NewDecoder returns an empty TextDecoder.
func NewDecoder() *TextDecoder {
	return &TextDecoder{}
}

// Decode implements Decoder.
func (d *TextDecoder) Decode(chunk []byte) [][]byte {
	d.pending = append(d.pending, d.decodeText(chunk)...)
	return d.split()
}

// Flush implements Decoder.
func (d *TextDecoder) Flush() [][]byte {
	if len(d.carry) > 0 {
		d.pending = append(d.pending, replacementChar...)
		d.carry = nil
	}
	payloads := d.split()
	if len(d.pending) > 0 {
		if payload, ok := payloadOf(d.pending); ok {
			payloads = append(payloads, payload)
		}
		d.pending = nil
	}
	return payloads
}

// decodeText returns the complete UTF-8 text of carry+chunk and keeps any
// incomplete trailing sequence for the next call.
func (d *TextDecoder) decodeText(chunk []byte) []byte {
	buf := make([]byte, 0, len(d.carry)+len(chunk))
	buf = append(buf, d.carry...)
	buf = append(buf, chunk...)
	cut := incompleteTail(buf)
	d.carry = append(d.carry[:0], buf[cut:]...)
	return bytes.ToValidUTF8(buf[:cut], replacementChar)
}

// split extracts every delimited segment from the pending text.
func (d *TextDecoder) split() [][]byte {
	var payloads [][]byte
	for {
		idx := bytes.Index(d.pending, []byte(Delimiter))
		if idx < 0 {
			break
		}
		segment := d.pending[:idx]
		if payload, ok := payloadOf(segment); ok {
			payloads = append(payloads, payload)
		}
		d.pending = d.pending[idx+len(Delimiter):]
	}
	if len(d.pending) == 0 {
		d.pending = nil
	} else {
		d.pending = append([]byte(nil), d.pending...)
	}
	return payloads
}

// payloadOf strips the event marker from a segment.
func payloadOf(segment []byte) ([]byte, bool) {
	segment = bytes.TrimLeft(segment, "\n")
	if !bytes.HasPrefix(segment, []byte(Prefix)) {
		return nil, false
	}
	return append([]byte(nil), segment[len(marker):]...), true
}

// incompleteTail returns the index where a truncated trailing UTF-8 sequence
// starts, or len(buf) when the buffer ends on a character boundary.
func incompleteTail(buf []byte) int {
	limit := len(buf) - utf8.UTFMax + 1
	if limit < 0 {
		limit = 0
	}
	for i := len(buf) - 1; i >= limit; i-- {
		if !utf8.RuneStart(buf[i]) {
			continue
		}
		if utf8.FullRune(buf[i:]) {
			return len(buf)
		}
		return i
	}
	return len(buf)
}
