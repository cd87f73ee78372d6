package script

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"storywriter/internal/frame"
	"storywriter/internal/logx"
	"storywriter/internal/story"
)

const (
	maxLineBytes = 1 << 20
	waitDelay    = 2 * time.Second
)

var (
	// ErrNotConfigured reports a launcher without a command.
	ErrNotConfigured = errors.New("script: command not configured")
	// ErrFailed reports a script that exited unsuccessfully.
	ErrFailed = errors.New("script: run failed")
)

// Config describes how the story script is launched.
type Config struct {
	Command string
	Args    []string
	File    string
	Dir     string
	Timeout time.Duration
}

// Sink receives each frame payload in the order the script produced it.
// Returning an error stops the script.
type Sink func(payload []byte) error

// Launcher runs the story script and relays its output as frames.
type Launcher struct {
	cfg Config
}

// New validates cfg and returns a launcher.
func New(cfg Config) (*Launcher, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("script: timeout must be >= 0")
	}
	return &Launcher{cfg: cfg}, nil
}

// Args returns the command line arguments used for req.
func (l *Launcher) Args(req story.Request) []string {
	args := append([]string(nil), l.cfg.Args...)
	if l.cfg.File != "" {
		args = append(args, l.cfg.File)
	}
	return append(args,
		"--story", req.Story,
		"--pages", strconv.Itoa(req.Pages),
		"--path", req.Path,
	)
}

// Run executes the script for req and feeds every frame to sink. A runFinish
// frame is always the last payload delivered, synthesized when the script did
// not send one. Run returns ErrFailed when the script exited unsuccessfully.
func (l *Launcher) Run(ctx context.Context, req story.Request, sink Sink) error {
	if sink == nil {
		return fmt.Errorf("script: sink is required")
	}
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return err
	}
	log := logx.Ctx(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if l.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, l.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, l.cfg.Command, l.Args(req)...)
	cmd.Dir = l.cfg.Dir
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("script: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("script: stderr pipe: %w", err)
	}
	started := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("script: start %s: %w", l.cfg.Command, err)
	}
	log.Info("script started", "pid", cmd.Process.Pid, "pages", req.Pages, "path", req.Path)

	relay := &relay{sink: sink}
	var group errgroup.Group
	group.Go(func() error {
		if err := relay.pump(stdout); err != nil {
			cancel()
			return err
		}
		return nil
	})
	group.Go(func() error {
		return logLines(stderr, func(line string) {
			log.Warn("script stderr", "line", line)
		})
	})
	pumpErr := group.Wait()
	waitErr := cmd.Wait()
	elapsed := time.Since(started)

	if pumpErr != nil && relay.sinkErr != nil {
		log.Warn("script output not delivered", "error", relay.sinkErr)
		return fmt.Errorf("script: deliver frame: %w", relay.sinkErr)
	}
	if pumpErr != nil {
		log.Warn("script output pump failed", "error", pumpErr)
	}

	failure := l.describeFailure(ctx, runCtx, waitErr)
	if failure == "" {
		log.Info("script finished", "elapsed", elapsed.String())
	} else {
		log.Error("script failed", "error", failure, "elapsed", elapsed.String())
	}
	if !relay.finished {
		if err := sink(finishPayload(failure)); err != nil {
			return fmt.Errorf("script: deliver frame: %w", err)
		}
	}
	if failure != "" {
		return fmt.Errorf("%w: %s", ErrFailed, failure)
	}
	return nil
}

// describeFailure explains why the script ended unsuccessfully, or returns ""
// when it succeeded.
func (l *Launcher) describeFailure(parent, runCtx context.Context, waitErr error) string {
	switch {
	case waitErr == nil:
		return ""
	case parent.Err() != nil:
		return "script cancelled"
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return "script timed out after " + l.cfg.Timeout.String()
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.Error()
	}
	return waitErr.Error()
}

// relay turns stdout lines into frame payloads.
type relay struct {
	sink     Sink
	sinkErr  error
	finished bool
}

// pump forwards every line of r to the sink.
func (r *relay) pump(src io.Reader) error {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		payload, ok := linePayload(scanner.Bytes())
		if !ok {
			continue
		}
		if f, err := frame.Parse(payload); err == nil && f.Type == frame.TypeRunFinish {
			r.finished = true
		}
		if err := r.sink(payload); err != nil {
			r.sinkErr = err
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("script: read stdout: %w", err)
	}
	return nil
}

// linePayload returns the frame payload for one stdout line. JSON objects are
// relayed as they are; other text is wrapped in an output frame.
func linePayload(line []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, false
	}
	if trimmed[0] == '{' && json.Valid(trimmed) {
		return append([]byte(nil), trimmed...), true
	}
	data, err := json.Marshal(frame.Frame{Type: frame.TypeOutput, Content: string(trimmed)})
	if err != nil {
		return nil, false
	}
	return data, true
}

// finishPayload builds the runFinish frame sent on behalf of the script.
func finishPayload(failure string) []byte {
	data, _ := json.Marshal(frame.Frame{
		Type:  frame.TypeRunFinish,
		End:   time.Now().UTC().Format(time.RFC3339),
		Error: failure,
	})
	return data
}

// logLines calls fn for each non-empty line of src.
func logLines(src io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			fn(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("script: read stderr: %w", err)
	}
	return nil
}
