package live

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

const (
	promptPlaceholder = "Write a story about a programmer who saves the world"
	pagesPlaceholder  = "How many pages should the story be?"
	startLabel        = "Start generating!"
	waitingText       = "Waiting for the story to be generated......"
	thinkingText      = "--- [Let me think about how to write this story] ---"
	currentToolLabel  = "--- [Current Tool] ---"
	linePrefix        = ">>"
)

// formatPages renders the page selector value.
func formatPages(pages int) string {
	if pages <= 0 {
		return pagesPlaceholder
	}
	if pages == 1 {
		return "1 page"
	}
	return strconv.Itoa(pages) + " pages"
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// emphasize renders bold text when color is enabled.
func emphasize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(text)
}
