package frame

import (
	"errors"
	"io"
)

const defaultChunkSize = 32 * 1024

// Reader pulls frame payloads out of a byte stream one chunk at a time.
type Reader struct {
	src   io.Reader
	dec   Decoder
	buf   []byte
	queue [][]byte
	err   error
}

// NewReader reads payloads from src using a TextDecoder.
func NewReader(src io.Reader) *Reader {
	return NewReaderWithDecoder(src, NewDecoder())
}

// NewReaderWithDecoder reads payloads from src using dec.
func NewReaderWithDecoder(src io.Reader, dec Decoder) *Reader {
	if dec == nil {
		dec = NewDecoder()
	}
	return &Reader{
		src: src,
		dec: dec,
		buf: make([]byte, defaultChunkSize),
	}
}

// Next returns the next payload in arrival order.
//
// It returns io.EOF once the stream has ended and every buffered payload was
// returned. Any other read error is returned after the payloads decoded before
// it.
func (r *Reader) Next() ([]byte, error) {
	for len(r.queue) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		n, err := r.src.Read(r.buf)
		if n > 0 {
			r.queue = append(r.queue, r.dec.Decode(r.buf[:n])...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.queue = append(r.queue, r.dec.Flush()...)
				r.err = io.EOF
			} else {
				r.err = err
			}
		}
	}
	payload := r.queue[0]
	r.queue = r.queue[1:]
	return payload, nil
}
