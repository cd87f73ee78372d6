package webserver

import (
	"strings"
	"testing"
	"time"

	"storywriter/internal/library"
	"storywriter/internal/testutil"
)

func renderComponent(t *testing.T, render func(b *strings.Builder) error) string {
	t.Helper()
	var b strings.Builder
	if err := render(&b); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

// TestIndexPageEscapesAttributes verifies form attributes are escaped and the
// selector lists every page count.
func TestIndexPageEscapesAttributes(t *testing.T) {
	assets := pageAssets{Script: "/assets/app.js", Style: "/assets/style.css"}
	html := renderComponent(t, func(b *strings.Builder) error {
		return indexPage(indexData{
			Assets:   assets,
			Endpoint: `/api/run-script"><script>`,
			Path:     "public/stories",
			MaxPages: 2,
		}).Render(testutil.Context(t, 0), b)
	})
	for _, want := range []string{
		`<!doctype html>`,
		`<link rel="stylesheet" href="/assets/style.css">`,
		`data-endpoint="/api/run-script&#34;&gt;&lt;script&gt;"`,
		`<option value="1">1 page</option>`,
		`<option value="2">2 pages</option>`,
		`<button id="start" type="submit" disabled>Start generating!</button>`,
		`<script src="/assets/app.js"></script>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %s", want, html)
		}
	}
	if strings.Contains(html, `href="/stories"`) {
		t.Fatalf("library link must be hidden without a library")
	}
}

// TestLibraryPageRendersRuns verifies runs link to their event log.
func TestLibraryPageRendersRuns(t *testing.T) {
	assets := pageAssets{Script: "/assets/app.js", Style: "/assets/style.css"}
	empty := renderComponent(t, func(b *strings.Builder) error {
		return libraryPage(assets, nil).Render(testutil.Context(t, 0), b)
	})
	if !strings.Contains(empty, "<p>No stories yet.</p>") {
		t.Fatalf("expected empty notice, got %s", empty)
	}

	runs := []library.Run{{
		ID:        "run-1",
		Story:     "a tale",
		Pages:     3,
		Status:    library.StatusFailed,
		Error:     "exit status 1",
		Progress:  "Chapter 1...",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	html := renderComponent(t, func(b *strings.Builder) error {
		return libraryPage(assets, runs).Render(testutil.Context(t, 0), b)
	})
	for _, want := range []string{
		`<td>2026-01-02 03:04:05</td>`,
		`<a href="/api/stories/run-1">a tale</a>`,
		`<td>3</td>`,
		`<td>failed: exit status 1</td>`,
		`<td>Chapter 1...</td>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %s", want, html)
		}
	}
}
