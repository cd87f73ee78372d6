package story

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultPath is where the story script writes finished stories.
	DefaultPath = "public/stories"
	// MaxPages is the largest page count offered by the page selector.
	MaxPages = 10
)

// ErrInvalidRequest reports a request that may not start a run.
var ErrInvalidRequest = errors.New("story: invalid request")

// Request is the body sent to the run-script endpoint.
type Request struct {
	Story string `json:"story"`
	Pages int    `json:"pages"`
	Path  string `json:"path"`
}

// Validate checks that a run may start with this request.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Story) == "" {
		return fmt.Errorf("%w: story is required", ErrInvalidRequest)
	}
	if r.Pages <= 0 {
		return fmt.Errorf("%w: pages must be a positive integer", ErrInvalidRequest)
	}
	return nil
}

// Normalized fills in the default output path.
func (r Request) Normalized() Request {
	if strings.TrimSpace(r.Path) == "" {
		r.Path = DefaultPath
	}
	return r
}
