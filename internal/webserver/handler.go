package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"golang.org/x/sync/semaphore"

	"storywriter/internal/library"
	"storywriter/internal/script"
	"storywriter/internal/story"
)

const (
	// RunScriptPath is the endpoint the clients post story requests to.
	RunScriptPath = "/api/run-script"

	maxRequestBytes = 64 << 10
)

// Runner runs the story script for one request.
type Runner interface {
	Run(ctx context.Context, req story.Request, sink script.Sink) error
}

// Library records runs and serves them back.
type Library interface {
	CreateRun(ctx context.Context, req story.Request) (library.Run, error)
	AppendEvent(ctx context.Context, runID string, payload []byte) error
	FinishRun(ctx context.Context, runID string, failure string) error
	List(ctx context.Context, limit int) ([]library.Run, error)
	Get(ctx context.Context, id string) (library.Run, error)
}

// Config captures the settings for serving the story writer.
type Config struct {
	Addr              string
	AssetsBaseURL     string
	MaxPages          int
	MaxConcurrentRuns int
	// StoriesPath is suggested to the browser form as the output path.
	StoriesPath string
	Runner      Runner
	// Library is optional; without it runs are not recorded and the story
	// library routes are not mounted.
	Library Library
}

type server struct {
	runner   Runner
	library  Library
	runs     *semaphore.Weighted
	maxPages int
	assets   pageAssets
	path     string
}

// NewHandler builds the HTTP handler for the story writer.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Runner == nil {
		return nil, errors.New("webserver: runner is required")
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 || maxPages > story.MaxPages {
		maxPages = story.MaxPages
	}
	maxRuns := cfg.MaxConcurrentRuns
	if maxRuns <= 0 {
		maxRuns = 1
	}
	manifest, err := loadEmbeddedManifest()
	if err != nil {
		return nil, err
	}
	assets, err := newAssetResolver(cfg.AssetsBaseURL, manifest).pageAssets()
	if err != nil {
		return nil, err
	}
	assetsFS, err := embeddedAssetsFS()
	if err != nil {
		return nil, err
	}
	path := cfg.StoriesPath
	if path == "" {
		path = story.DefaultPath
	}
	s := &server{
		runner:   cfg.Runner,
		library:  cfg.Library,
		runs:     semaphore.NewWeighted(int64(maxRuns)),
		maxPages: maxPages,
		assets:   assets,
		path:     path,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", templ.Handler(indexPage(indexData{
		Assets:   assets,
		Endpoint: RunScriptPath,
		Path:     path,
		MaxPages: maxPages,
		Library:  cfg.Library != nil,
	})))
	mux.HandleFunc(RunScriptPath, s.handleRunScript)
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))
	mux.HandleFunc("GET /healthz", serveHealth)
	if cfg.Library != nil {
		mux.HandleFunc("GET /stories", s.handleLibraryPage)
		mux.HandleFunc("GET /api/stories", s.handleListStories)
		mux.HandleFunc("GET /api/stories/{id}", s.handleGetStory)
	}
	return withRequestLogging(mux), nil
}

func serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// decodeRequest reads and checks a story request body.
func (s *server) decodeRequest(w http.ResponseWriter, r *http.Request) (story.Request, error) {
	var req story.Request
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		return story.Request{}, fmt.Errorf("%w: decode body: %v", story.ErrInvalidRequest, err)
	}
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return story.Request{}, err
	}
	if req.Pages > s.maxPages {
		return story.Request{}, fmt.Errorf("%w: pages must be at most %d", story.ErrInvalidRequest, s.maxPages)
	}
	return req, nil
}

func (s *server) handleLibraryPage(w http.ResponseWriter, r *http.Request) {
	runs, err := s.library.List(r.Context(), library.DefaultLimit)
	if err != nil {
		s.fail(w, r, "list stories", err)
		return
	}
	templ.Handler(libraryPage(s.assets, runs)).ServeHTTP(w, r)
}

func (s *server) handleListStories(w http.ResponseWriter, r *http.Request) {
	limit := library.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	runs, err := s.library.List(r.Context(), limit)
	if err != nil {
		s.fail(w, r, "list stories", err)
		return
	}
	if runs == nil {
		runs = []library.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	run, err := s.library.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, library.ErrNotFound) {
		http.Error(w, "story not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.fail(w, r, "get story", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	loggerFor(r).Error("webserver: "+action+" failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// rejectMethod answers 405 for anything but allowed.
func rejectMethod(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}
