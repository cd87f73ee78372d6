package live

import "storywriter/internal/story"

// StateMsg delivers a run state snapshot to the model.
type StateMsg struct {
	State story.State

	run     int
	updates <-chan story.State
}

// runEndedMsg signals that the snapshot channel of a run was closed.
type runEndedMsg struct {
	run int
}

// SubmitFunc starts a run and returns its snapshots. The channel is closed
// when the run is over.
type SubmitFunc func(req story.Request) <-chan story.State
