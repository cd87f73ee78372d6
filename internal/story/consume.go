package story

import (
	"context"
	"errors"
	"fmt"
	"io"

	"storywriter/internal/frame"
	"storywriter/internal/logx"
)

const maxLoggedPayload = 256

// Observer receives every state snapshot of a run in order.
type Observer interface {
	OnState(state State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(state State)

// OnState implements Observer.
func (f ObserverFunc) OnState(state State) {
	f(state)
}

// Run submits req, then folds the response stream into state until it ends.
func Run(ctx context.Context, starter Starter, req Request, observer Observer) (State, error) {
	log := logx.Ctx(ctx)
	state := Begin(req)
	notify(observer, state)

	body, err := starter.Start(ctx, req)
	if err != nil {
		state = Fail(state, err)
		notify(observer, state)
		log.Error("story generation failed to start", "err", err)
		return state, err
	}
	defer body.Close()
	log.Info("story generation started", "pages", req.Pages)
	return Consume(ctx, body, state, observer)
}

// Consume reads frames from body and reduces them into state.
//
// Malformed payloads are logged and skipped. The loop ends when body reports
// io.EOF; a run-finish frame does not stop it. Any other read error marks the
// run as finished with a failure and is returned.
func Consume(ctx context.Context, body io.Reader, state State, observer Observer) (State, error) {
	log := logx.Ctx(ctx)
	reader := frame.NewReader(body)
	for {
		payload, err := reader.Next()
		if errors.Is(err, io.EOF) {
			log.Debug("story stream ended", "events", len(state.Events), "finished", state.Finished.String())
			return state, nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			state = Fail(state, fmt.Errorf("stream interrupted: %w", err))
			notify(observer, state)
			log.Error("story stream failed", "err", err)
			return state, fmt.Errorf("story: read stream: %w", err)
		}
		f, err := frame.Parse(payload)
		if err != nil {
			log.Warn("skipping malformed frame", "err", err, "payload", clip(payload))
			continue
		}
		state = Reduce(state, f)
		notify(observer, state)
	}
}

// notify forwards a snapshot when an observer is set.
func notify(observer Observer, state State) {
	if observer != nil {
		observer.OnState(state)
	}
}

// clip bounds payloads written to the log.
func clip(payload []byte) string {
	if len(payload) <= maxLoggedPayload {
		return string(payload)
	}
	return string(payload[:maxLoggedPayload]) + "..."
}
