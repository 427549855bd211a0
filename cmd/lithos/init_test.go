package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lithos/internal/config"
	"git.home.luguber.info/inful/lithos/internal/site"
)

func TestRunInitScaffoldsLoadableSite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mysite")
	require.NoError(t, runInit(dir))

	for _, rel := range []string{
		site.ConfigFileName,
		"content/index.md",
		"content/posts/index.md",
		"templates/default.html",
		"assets/style.css",
	} {
		require.FileExists(t, filepath.Join(dir, filepath.FromSlash(rel)))
	}

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "mysite", cfg.Title)

	root, err := site.FindRootFrom(filepath.Join(dir, "content"))
	require.NoError(t, err)
	require.Equal(t, dir, root)
}

func TestRunInitRefusesExistingPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "taken"), 0o755))

	require.Error(t, runInit(filepath.Join(dir, "taken")))
}
