package webserver

import (
	"strconv"

	"storywriter/internal/library"
)

const (
	storyPlaceholder = "Write a story about a programmer who saves the world"
	pagesPlaceholder = "How many pages should the story be?"
)

// indexData feeds the story writer page.
type indexData struct {
	Assets   pageAssets
	Endpoint string
	Path     string
	MaxPages int
	Library  bool
}

func pageLabel(pages int) string {
	if pages == 1 {
		return "1 page"
	}
	return strconv.Itoa(pages) + " pages"
}

// runStatus is the status column of the library table.
func runStatus(run library.Run) string {
	status := string(run.Status)
	if run.Error != "" {
		status += ": " + run.Error
	}
	return status
}
