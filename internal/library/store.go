package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"storywriter/internal/frame"
	"storywriter/internal/story"
)

const (
	driverName = "duckdb"
	// DefaultLimit is the number of runs listed when no limit is given.
	DefaultLimit = 50
)

// ErrNotFound reports an unknown run id.
var ErrNotFound = errors.New("library: run not found")

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
)

// Run is one story generation recorded by the server.
type Run struct {
	ID         string     `json:"id"`
	Story      string     `json:"story"`
	Pages      int        `json:"pages"`
	Path       string     `json:"path"`
	Status     Status     `json:"status"`
	Error      string     `json:"error,omitempty"`
	Progress   string     `json:"progress,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Events     []Event    `json:"events,omitempty"`
}

// Event is one frame relayed during a run.
type Event struct {
	Seq        int64           `json:"seq"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Store persists runs and their frames in DuckDB.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the DuckDB database at path and applies the schema. An empty
// path opens an in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("library: open %q: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("library: ping %q: %w", path, err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an already initialized database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun records a new running story generation.
func (s *Store) CreateRun(ctx context.Context, req story.Request) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Story:     req.Story,
		Pages:     req.Pages,
		Path:      req.Path,
		Status:    StatusRunning,
		CreatedAt: s.now(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, story, pages, path, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.Story, run.Pages, run.Path, string(run.Status), run.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("library: create run: %w", err)
	}
	return run, nil
}

// AppendEvent records one frame payload for a run. Progress frames also
// update the run's latest progress text.
func (s *Store) AppendEvent(ctx context.Context, runID string, payload []byte) error {
	kind := "unknown"
	f, parseErr := frame.Parse(payload)
	if parseErr == nil && f.Type != "" {
		kind = f.Type
	}
	if !json.Valid(payload) {
		encoded, err := json.Marshal(string(payload))
		if err != nil {
			return fmt.Errorf("library: encode payload: %w", err)
		}
		payload = encoded
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO run_events (run_id, frame_type, payload, received_at) VALUES (?, ?, ?, ?)",
		runID, kind, string(payload), s.now()); err != nil {
		return fmt.Errorf("library: append event: %w", err)
	}
	if parseErr == nil && f.Type == frame.TypeCallProgress {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE runs SET progress = ? WHERE run_id = ?", f.LastOutput(), runID); err != nil {
			return fmt.Errorf("library: update progress: %w", err)
		}
	}
	return nil
}

// FinishRun marks a run as finished, or failed when failure is not empty.
func (s *Store) FinishRun(ctx context.Context, runID string, failure string) error {
	status := StatusFinished
	if failure != "" {
		status = StatusFailed
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE run_id = ?",
		string(status), failure, s.now(), runID)
	if err != nil {
		return fmt.Errorf("library: finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

// List returns the newest runs first, without their events.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY created_at DESC, run_id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("library: list runs: %w", err)
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("library: list runs: %w", err)
	}
	return runs, nil
}

// Get returns a run with its events in arrival order.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE run_id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}
	events, err := s.events(ctx, id)
	if err != nil {
		return Run{}, err
	}
	run.Events = events
	return run, nil
}

func (s *Store) events(ctx context.Context, runID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, frame_type, payload, received_at FROM run_events WHERE run_id = ? ORDER BY seq", runID)
	if err != nil {
		return nil, fmt.Errorf("library: list events: %w", err)
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		var event Event
		var payload string
		if err := rows.Scan(&event.Seq, &event.Type, &payload, &event.ReceivedAt); err != nil {
			return nil, fmt.Errorf("library: scan event: %w", err)
		}
		event.Payload = json.RawMessage(payload)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("library: list events: %w", err)
	}
	return events, nil
}
