package live

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"storywriter/internal/story"
)

const updateBuffer = 64

// Run starts the interactive UI on stdout and blocks until it exits. It
// returns the last run snapshot the UI saw.
func Run(ctx context.Context, stdout io.Writer, opts Options) (story.State, error) {
	if stdout == nil {
		stdout = os.Stdout
	}
	program := tea.NewProgram(NewModel(opts), tea.WithContext(ctx), tea.WithOutput(stdout), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return story.State{}, fmt.Errorf("live ui: %w", err)
	}
	model, ok := final.(Model)
	if !ok {
		return story.State{}, nil
	}
	return model.State(), nil
}

// Submitter adapts story.Run to a SubmitFunc. Snapshots are dropped once ctx
// is done so the run goroutine never outlives the UI.
func Submitter(ctx context.Context, starter story.Starter) SubmitFunc {
	return func(req story.Request) <-chan story.State {
		updates := make(chan story.State, updateBuffer)
		go func() {
			defer close(updates)
			_, _ = story.Run(ctx, starter, req, story.ObserverFunc(func(state story.State) {
				select {
				case updates <- state:
				case <-ctx.Done():
				}
			}))
		}()
		return updates
	}
}
