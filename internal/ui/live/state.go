package live

import "storywriter/internal/story"

// focusArea identifies the form control receiving keys.
type focusArea int

const (
	focusPrompt focusArea = iota
	focusPages
)

// formState holds what the user entered before submitting.
type formState struct {
	pages int
	focus focusArea
}

// request builds the story request from the form and prompt text.
func (f formState) request(prompt, path string) story.Request {
	return story.Request{Story: prompt, Pages: f.pages, Path: path}
}

// selectPages clamps a page choice to the selector range.
func (f formState) selectPages(pages int) formState {
	switch {
	case pages < 1:
		pages = 1
	case pages > story.MaxPages:
		pages = story.MaxPages
	}
	f.pages = pages
	return f
}

// stepPages moves the selection by delta, starting from 1 when unset.
func (f formState) stepPages(delta int) formState {
	if f.pages == 0 {
		return f.selectPages(1)
	}
	return f.selectPages(f.pages + delta)
}

// withPages applies a prefilled page count when it is in range.
func (f formState) withPages(pages int) formState {
	if pages <= 0 {
		return f
	}
	return f.selectPages(pages)
}
