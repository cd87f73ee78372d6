package live

import (
	"fmt"
	"io"
	"sync"

	"storywriter/internal/frame"
	"storywriter/internal/story"
)

// Plain writes run snapshots as plain lines, printing only what changed.
type Plain struct {
	mu   sync.Mutex
	out  io.Writer
	prev story.State
	seen bool
}

// NewPlain returns a plain observer writing to out.
func NewPlain(out io.Writer) *Plain {
	return &Plain{out: out}
}

// OnState implements story.Observer.
func (p *Plain) OnState(state story.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.prev
	if !p.seen {
		prev = story.State{}
		p.seen = true
	}
	p.prev = state

	if state.Started && !prev.Started {
		fmt.Fprintln(p.out, thinkingText)
	}
	if state.CurrentTool != "" && state.CurrentTool != prev.CurrentTool {
		fmt.Fprintln(p.out, currentToolLabel, state.CurrentTool)
	}
	for _, event := range newEvents(prev.Events, state.Events) {
		fmt.Fprintln(p.out, linePrefix, frame.Describe(event))
	}
	if state.Progress != "" && state.Progress != prev.Progress {
		fmt.Fprintln(p.out, linePrefix, state.Progress)
	}
	if state.Finished == story.FinishDone && prev.Finished != story.FinishDone {
		if state.Failure != "" {
			fmt.Fprintln(p.out, "Story generation failed:", state.Failure)
		} else {
			fmt.Fprintln(p.out, "Story generation finished.")
		}
	}
}

// newEvents returns the events appended since prev. A shorter or reset log is
// printed in full.
func newEvents(prev, next []frame.Frame) []frame.Frame {
	if len(next) < len(prev) {
		return next
	}
	return next[len(prev):]
}
