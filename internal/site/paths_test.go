package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePaths_JoinsWellKnownSubdirectories(t *testing.T) {
	p := ResolvePaths("/srv/blog")

	require.Equal(t, "/srv/blog", p.Root)
	require.Equal(t, filepath.Join("/srv/blog", "content"), p.Content)
	require.Equal(t, filepath.Join("/srv/blog", "assets"), p.Assets)
	require.Equal(t, filepath.Join("/srv/blog", "templates"), p.Templates)
	require.Equal(t, filepath.Join("/srv/blog", "theme", "assets"), p.ThemeAssets)
	require.Equal(t, filepath.Join("/srv/blog", "theme", "templates"), p.ThemeTemplates)
	require.Equal(t, filepath.Join("/srv/blog", ".build"), p.Build)
	require.Equal(t, filepath.Join("/srv/blog", "public"), p.Public)
}

func TestFindRootFrom_FindsConfigInParentDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("title: x\n"), 0o644))
	nested := filepath.Join(root, "content", "posts")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindRootFrom(nested)
	require.NoError(t, err)

	// Resolve symlinks so the comparison survives /tmp -> /private/tmp setups.
	wantRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	require.Equal(t, wantRoot, gotRoot)
}

func TestFindRootFrom_NoConfig_ReturnsErrNotASite(t *testing.T) {
	dir := t.TempDir()

	_, err := FindRootFrom(dir)
	require.ErrorIs(t, err, ErrNotASite)
}
