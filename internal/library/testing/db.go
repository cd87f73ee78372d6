package librarytesting

import (
	"testing"
	"time"

	"storywriter/internal/library"
	"storywriter/internal/testutil"
)

const defaultTimeout = 5 * time.Second

// Open opens an in-memory story library and closes it when the test ends.
func Open(t testing.TB) *library.Store {
	t.Helper()
	ctx := testutil.Context(t, defaultTimeout)
	store, err := library.Open(ctx, "")
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
