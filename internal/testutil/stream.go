package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// RecordedRequest captures a request received by a StreamServer.
type RecordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// StreamServer replays canned event-stream chunks to every POST it receives.
type StreamServer struct {
	URL string

	mu       sync.Mutex
	requests []RecordedRequest
}

// StreamOptions tunes the canned response.
type StreamOptions struct {
	Status int
	// Gap is slept between chunks so clients observe them separately.
	Gap time.Duration
	// Hang keeps the response open after the last chunk until the client leaves.
	Hang bool
}

// StartStreamServer serves chunks as a text/event-stream response.
func StartStreamServer(t testing.TB, opts StreamOptions, chunks ...string) *StreamServer {
	t.Helper()
	status := opts.Status
	if status == 0 {
		status = http.StatusOK
	}
	s := &StreamServer{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		s.mu.Unlock()

		if status < 200 || status >= 300 {
			http.Error(w, "script failed to launch", status)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		flusher, _ := w.(http.Flusher)
		for i, chunk := range chunks {
			if i > 0 && opts.Gap > 0 {
				time.Sleep(opts.Gap)
			}
			_, _ = io.WriteString(w, chunk)
			if flusher != nil {
				flusher.Flush()
			}
		}
		if opts.Hang {
			<-r.Context().Done()
		}
	}))
	t.Cleanup(server.Close)
	s.URL = server.URL
	return s
}

// Requests returns a copy of the requests received so far.
func (s *StreamServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}
