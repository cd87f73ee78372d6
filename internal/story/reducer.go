package story

import "storywriter/internal/frame"

// Begin returns the state of a freshly submitted run.
func Begin(req Request) State {
	return State{
		Story:    req.Story,
		Pages:    req.Pages,
		Started:  true,
		Finished: FinishPending,
	}
}

// Reduce folds one frame into the run state.
func Reduce(state State, f frame.Frame) State {
	switch f.Type {
	case frame.TypeCallProgress:
		state.Progress = f.LastOutput()
		state.CurrentTool = f.ToolDescription()
	case frame.TypeCallStart:
		state.CurrentTool = f.ToolDescription()
	case frame.TypeRunFinish:
		state.Started = false
		state.Finished = FinishDone
		if f.Error != "" {
			state.Failure = f.Error
		}
	default:
		state.Events = append(state.Events, f)
	}
	return state
}

// Fail marks the run as ended by err.
func Fail(state State, err error) State {
	state.Started = false
	state.Finished = FinishDone
	if err != nil {
		state.Failure = err.Error()
	} else {
		state.Failure = "story generation failed"
	}
	return state
}
