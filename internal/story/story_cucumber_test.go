//go:build cucumber

package story_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"github.com/cucumber/godog"

	"storywriter/internal/story"
	"storywriter/internal/testutil"
)

// TestStoryStreamFeatures runs the story stream feature scenarios.
func TestStoryStreamFeatures(t *testing.T) {
	featurePath := filepath.Join("..", "..", "features", "story-stream.feature")
	suite := godog.TestSuite{
		Name: "story-stream",
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			initializeStreamScenario(ctx, t)
		},
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{featurePath},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

type streamScenario struct {
	t       *testing.T
	request story.Request
	chunks  []string
	status  int
	server  *testutil.StreamServer
	state   story.State
	tools   []string
	err     error
}

func initializeStreamScenario(ctx *godog.ScenarioContext, t *testing.T) {
	s := &streamScenario{t: t}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*s = streamScenario{t: t}
		return ctx, nil
	})

	ctx.Step(`^the story "([^"]*)" with (\d+) pages$`, s.givenStory)
	ctx.Step(`^the server streams these frames:$`, s.givenFrames)
	ctx.Step(`^the server fails with status (\d+)$`, s.givenFailure)
	ctx.Step(`^I start the run$`, s.whenStart)
	ctx.Step(`^the request body is (.+)$`, s.thenBody)
	ctx.Step(`^the current tool was "([^"]*)"$`, s.thenToolSeen)
	ctx.Step(`^the progress is "([^"]*)"$`, s.thenProgress)
	ctx.Step(`^the run is finished$`, s.thenFinished)
	ctx.Step(`^the run failed$`, s.thenFailed)
	ctx.Step(`^the event log has (\d+) entries$`, s.thenEvents)
}

func (s *streamScenario) givenStory(text string, pages int) error {
	s.request = story.Request{Story: text, Pages: pages}
	return nil
}

func (s *streamScenario) givenFrames(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		s.chunks = append(s.chunks, "event: "+row.Cells[0].Value+"\n\n")
	}
	return nil
}

func (s *streamScenario) givenFailure(status int) error {
	s.status = status
	return nil
}

func (s *streamScenario) whenStart() error {
	s.server = testutil.StartStreamServer(s.t, testutil.StreamOptions{Status: s.status}, s.chunks...)
	client, err := story.NewClient(s.server.URL+"/api/run-script", nil)
	if err != nil {
		return err
	}
	s.state, s.err = story.Run(testutil.Context(s.t, 0), client, s.request, story.ObserverFunc(func(state story.State) {
		s.tools = append(s.tools, state.CurrentTool)
	}))
	return nil
}

func (s *streamScenario) thenBody(expected string) error {
	requests := s.server.Requests()
	if len(requests) != 1 {
		return fmt.Errorf("expected one request, got %d", len(requests))
	}
	var got, want any
	if err := json.Unmarshal(requests[0].Body, &got); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(expected), &want); err != nil {
		return err
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		return fmt.Errorf("expected body %v, got %v", want, got)
	}
	return nil
}

func (s *streamScenario) thenToolSeen(tool string) error {
	if !slices.Contains(s.tools, tool) {
		return fmt.Errorf("tool %q never current, saw %v", tool, s.tools)
	}
	return nil
}

func (s *streamScenario) thenProgress(progress string) error {
	if s.state.Progress != progress {
		return fmt.Errorf("expected progress %q, got %q", progress, s.state.Progress)
	}
	return nil
}

func (s *streamScenario) thenFinished() error {
	if s.state.Started || s.state.Finished != story.FinishDone {
		return fmt.Errorf("expected finished run, got started=%v finished=%s", s.state.Started, s.state.Finished)
	}
	return nil
}

func (s *streamScenario) thenFailed() error {
	if s.err == nil || s.state.Failure == "" {
		return fmt.Errorf("expected failure, got err=%v failure=%q", s.err, s.state.Failure)
	}
	return nil
}

func (s *streamScenario) thenEvents(count int) error {
	if len(s.state.Events) != count {
		return fmt.Errorf("expected %d events, got %d", count, len(s.state.Events))
	}
	return nil
}
