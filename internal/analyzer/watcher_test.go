package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Watcher:
// - A change to a matching file triggers a rerun that sees the new content
// - Changes to non-matching files do not trigger reruns
// - Stop is idempotent and ends the event loop

func TestWatcher_RerunsOnChange(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs": "#[typelink]\nstruct First { x: u8 }\n",
	})

	a := newTestAnalyzer(t, root, nil)
	results := make(chan *Result, 4)
	w, err := NewWatcher(a, 50*time.Millisecond, func(r *Result, err error) {
		if err == nil {
			results <- r
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "more.rs"),
		[]byte("#[typelink]\nstruct Second { y: u8 }\n"), 0644))

	select {
	case r := <-results:
		assert.True(t, r.Natures.Contains("First"))
		assert.True(t, r.Natures.Contains("Second"))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rerun")
	}
}

func TestWatcher_IgnoresNonMatchingFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{"lib.rs": ""})

	a := newTestAnalyzer(t, root, nil)
	results := make(chan *Result, 1)
	w, err := NewWatcher(a, 20*time.Millisecond, func(r *Result, err error) { results <- r })
	require.NoError(t, err)

	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("hi"), 0644))

	select {
	case <-results:
		t.Fatal("unexpected rerun for a non-source file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(t, t.TempDir(), nil)
	w, err := NewWatcher(a, DefaultDebounce, nil)
	require.NoError(t, err)

	w.Start(context.Background())
	w.Stop()
	w.Stop()

	select {
	case <-w.Done():
	default:
		t.Fatal("event loop still running after Stop")
	}
}
