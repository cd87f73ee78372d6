package live

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"storywriter/internal/frame"
	"storywriter/internal/story"
)

// renderHeader renders the title line.
func renderHeader(noColor bool) string {
	return emphasize("Story Writer", noColor, lipgloss.Color("99"))
}

// renderPages renders the page selector line.
func renderPages(form formState, noColor bool) string {
	label := formatPages(form.pages)
	if form.pages > 0 {
		label = "‹ " + label + " ›"
	}
	line := "Pages: " + label
	if form.focus == focusPages {
		return emphasize(line, noColor, lipgloss.Color("141"))
	}
	return stylize(line, noColor, lipgloss.Color("246"))
}

// renderStart renders the start action, dimmed while it is disabled.
func renderStart(enabled bool, noColor bool) string {
	line := "[ " + startLabel + " ]  ctrl+s"
	if !enabled {
		return stylize(line, noColor, lipgloss.Color("240"))
	}
	return emphasize(line, noColor, lipgloss.Color("135"))
}

// renderOutput renders the output box content, oldest line first and the
// latest progress at the bottom.
func renderOutput(state story.State, spin string, noColor bool) string {
	var lines []string
	if state.Started {
		thinking := thinkingText
		if spin != "" {
			thinking = spin + " " + thinking
		}
		lines = append(lines, stylize(thinking, noColor, lipgloss.Color("141")))
	}
	for _, event := range state.Events {
		lines = append(lines, linePrefix+" "+frame.Describe(event))
	}
	if state.CurrentTool != "" {
		lines = append(lines, "", stylize(currentToolLabel+" "+state.CurrentTool, noColor, lipgloss.Color("39")), "")
	}
	if state.Finished == story.FinishUnknown {
		lines = append(lines, stylize(waitingText, noColor, lipgloss.Color("244")), "")
	}
	lines = append(lines, linePrefix+" "+state.Progress)
	if state.Failure != "" {
		lines = append(lines, stylize("Story generation failed: "+state.Failure, noColor, lipgloss.Color("196")))
	}
	return strings.Join(lines, "\n")
}

// renderFooter renders key hints.
func renderFooter(noColor bool) string {
	return stylize("tab: switch field • ←/→ or 1-9,0: pages • ctrl+s: start • esc: quit", noColor, lipgloss.Color("240"))
}
