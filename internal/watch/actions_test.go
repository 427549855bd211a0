package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lithos/internal/site"
)

func testClassifier(t *testing.T) (*Classifier, site.Paths) {
	t.Helper()
	paths := site.ResolvePaths(t.TempDir())
	return NewClassifier(paths), paths
}

func TestReduceClassifiesByArea(t *testing.T) {
	c, paths := testClassifier(t)

	got := c.Reduce([]fsnotify.Event{
		{Name: filepath.Join(paths.Templates, "base.html"), Op: fsnotify.Write},
		{Name: filepath.Join(paths.ThemeAssets, "style.css"), Op: fsnotify.Create},
		{Name: filepath.Join(paths.Content, "posts", "a.md"), Op: fsnotify.Write},
	})

	require.True(t, got.ReloadTemplates)
	require.True(t, got.ReloadAssets)
	require.Equal(t, []string{filepath.Join(paths.Content, "posts", "a.md")}, got.Rebuild)
	require.Empty(t, got.Cleanup)
}

func TestReduceDeduplicatesRebuilds(t *testing.T) {
	c, paths := testClassifier(t)
	doc := filepath.Join(paths.Content, "index.md")

	got := c.Reduce([]fsnotify.Event{
		{Name: doc, Op: fsnotify.Create},
		{Name: doc, Op: fsnotify.Write},
		{Name: doc, Op: fsnotify.Write},
	})

	require.Equal(t, []string{doc}, got.Rebuild)
}

func TestReduceRemoveBecomesCleanup(t *testing.T) {
	c, paths := testClassifier(t)
	doc := filepath.Join(paths.Content, "gone.md")

	got := c.Reduce([]fsnotify.Event{
		{Name: doc, Op: fsnotify.Write},
		{Name: doc, Op: fsnotify.Remove},
	})

	require.Empty(t, got.Rebuild)
	require.Equal(t, []string{doc}, got.Cleanup)
}

func TestReduceReplaceByRenameStaysRebuild(t *testing.T) {
	// Editors that save via rename emit a Remove/Rename for a file that
	// still exists afterwards.
	c, paths := testClassifier(t)
	doc := filepath.Join(paths.Content, "kept.md")
	require.NoError(t, os.MkdirAll(paths.Content, 0o755))
	require.NoError(t, os.WriteFile(doc, []byte("body"), 0o644))

	got := c.Reduce([]fsnotify.Event{
		{Name: doc, Op: fsnotify.Rename},
	})

	require.Equal(t, []string{doc}, got.Rebuild)
	require.Empty(t, got.Cleanup)
}

func TestReduceIgnoresNoise(t *testing.T) {
	c, paths := testClassifier(t)

	got := c.Reduce([]fsnotify.Event{
		{Name: filepath.Join(paths.Content, ".hidden.md"), Op: fsnotify.Write},
		{Name: filepath.Join(paths.Content, "a.md~"), Op: fsnotify.Write},
		{Name: filepath.Join(paths.Content, "a.md.swp"), Op: fsnotify.Write},
		{Name: filepath.Join(paths.Content, "notes.txt"), Op: fsnotify.Write},
		{Name: filepath.Join(paths.Content, "a.md"), Op: fsnotify.Chmod},
		{Name: filepath.Join(paths.Root, "unrelated", "x.md"), Op: fsnotify.Write},
	})

	require.True(t, got.Empty())
}
