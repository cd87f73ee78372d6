package story

import (
	"strings"

	"storywriter/internal/frame"
)

// FinishState is the tri-state completion flag of a run.
type FinishState int

const (
	// FinishUnknown means no run has been attempted yet.
	FinishUnknown FinishState = iota
	// FinishPending means a run is in flight.
	FinishPending
	// FinishDone means the last run completed or failed.
	FinishDone
)

// String returns a label for the finish state.
func (s FinishState) String() string {
	switch s {
	case FinishPending:
		return "pending"
	case FinishDone:
		return "done"
	default:
		return "unknown"
	}
}

// State is one immutable snapshot of a run as shown to the user.
//
// Events shares its backing array with earlier snapshots of the same run;
// every snapshot only sees its own prefix.
type State struct {
	Story       string
	Pages       int
	Progress    string
	Started     bool
	Finished    FinishState
	CurrentTool string
	Events      []frame.Frame
	Failure     string
}

// CanStart reports whether a new run may be submitted from this state.
func (s State) CanStart() bool {
	return strings.TrimSpace(s.Story) != "" && s.Pages > 0 && !s.Started
}
