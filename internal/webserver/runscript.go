package webserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"pkt.systems/pslog"

	"storywriter/internal/frame"
	"storywriter/internal/logx"
)

const recordTimeout = 5 * time.Second

// handleRunScript launches the story script and streams its frames back as
// they arrive.
func (s *server) handleRunScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rejectMethod(w, http.MethodPost)
		return
	}
	log := loggerFor(r)
	req, err := s.decodeRequest(w, r)
	if err != nil {
		log.Warn("rejected story request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	if !s.runs.TryAcquire(1) {
		log.Warn("too many concurrent runs")
		http.Error(w, "too many stories in progress, try again later", http.StatusTooManyRequests)
		return
	}
	defer s.runs.Release(1)

	rec := recorder{library: s.library}
	if s.library != nil {
		run, err := s.library.CreateRun(r.Context(), req)
		if err != nil {
			s.fail(w, r, "record run", err)
			return
		}
		rec.runID = run.ID
		log = logx.WithRun(r.Context(), run.ID)
		w.Header().Set("X-Run-ID", run.ID)
	}
	ctx := logx.WithLogger(r.Context(), log)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	log.Info("story run started", "pages", req.Pages, "path", req.Path)

	stream := &frameStream{w: w, flusher: flusher, rec: &rec, ctx: ctx}
	runErr := s.runner.Run(ctx, req, stream.send)
	failure := ""
	if runErr != nil {
		failure = runErr.Error()
		if !stream.finished && r.Context().Err() == nil {
			payload, _ := json.Marshal(frame.Frame{
				Type:  frame.TypeRunFinish,
				End:   time.Now().UTC().Format(time.RFC3339),
				Error: failure,
			})
			_ = stream.send(payload)
		}
		log.Warn("story run failed", "error", runErr)
	} else {
		log.Info("story run finished", "frames", stream.count)
	}
	rec.finish(ctx, failure)
}

// frameStream writes frames to the response and records them.
type frameStream struct {
	mu       sync.Mutex
	w        http.ResponseWriter
	flusher  http.Flusher
	rec      *recorder
	ctx      context.Context
	count    int
	finished bool
}

func (s *frameStream) send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.append(s.ctx, payload)
	if err := frame.Encode(s.w, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	s.count++
	if f, err := frame.Parse(payload); err == nil && f.Type == frame.TypeRunFinish {
		s.finished = true
	}
	return nil
}

// recorder writes a run to the library when one is configured. Recording
// failures are logged and never interrupt the stream.
type recorder struct {
	library Library
	runID   string
}

func (r *recorder) append(ctx context.Context, payload []byte) {
	if r.library == nil || r.runID == "" {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := r.library.AppendEvent(recordCtx, r.runID, payload); err != nil {
		logx.Ctx(ctx).Warn("record frame failed", "error", err)
	}
}

func (r *recorder) finish(ctx context.Context, failure string) {
	if r.library == nil || r.runID == "" {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := r.library.FinishRun(recordCtx, r.runID, failure); err != nil {
		logx.Ctx(ctx).Warn("record run finish failed", "error", err)
	}
}

// loggerFor returns the request logger.
func loggerFor(r *http.Request) pslog.Logger {
	return logx.Ctx(r.Context())
}
