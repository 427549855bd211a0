package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lithos/internal/config"
	"git.home.luguber.info/inful/lithos/internal/site"
)

func testState(t *testing.T) (*State, site.Paths) {
	t.Helper()
	paths := site.ResolvePaths(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(paths.Content, "posts"), 0o755))

	writeDoc(t, paths, "index.md", `---
title: Home
---
# Welcome

[about](/about/)
`)
	writeDoc(t, paths, filepath.Join("posts", "first.md"), `---
title: First
date: 2025-01-02
categories: [news]
---
First post.
`)
	writeDoc(t, paths, filepath.Join("posts", "secret.md"), `---
title: Secret
draft: true
---
Not yet.
`)

	cfg := &config.Site{RootURL: "http://localhost:3030", Title: "Test Site", Language: "en"}
	state, err := NewState(Config{
		Paths:     paths,
		Site:      cfg,
		RoutesURL: "http://localhost:3030",
	})
	require.NoError(t, err)
	return state, paths
}

func writeDoc(t *testing.T, paths site.Paths, rel, content string) {
	t.Helper()
	full := filepath.Join(paths.Content, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestServeDocumentBySlugAndIndex(t *testing.T) {
	state, _ := testState(t)
	h := state.Handler()

	rr := get(t, h, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Welcome")
	require.Contains(t, rr.Header().Get("Content-Type"), "text/html")

	rr = get(t, h, "/posts/first/")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "First post.")
}

func TestServeInjectsReloadScript(t *testing.T) {
	state, _ := testState(t)

	rr := get(t, state.Handler(), "/")
	require.Contains(t, rr.Body.String(), reloadScriptTag)
}

func TestServeUnknownPathIs404(t *testing.T) {
	state, _ := testState(t)

	rr := get(t, state.Handler(), "/no/such/page/")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServeDraftHiddenUnlessEnabled(t *testing.T) {
	state, paths := testState(t)

	rr := get(t, state.Handler(), "/posts/secret/")
	require.Equal(t, http.StatusNotFound, rr.Code)

	drafts, err := NewState(Config{
		Paths:     paths,
		Site:      state.cfg,
		RoutesURL: state.routesURL,
		Drafts:    true,
	})
	require.NoError(t, err)
	rr = get(t, drafts.Handler(), "/posts/secret/")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Not yet.")
}

func TestServeAssetSiteShadowsTheme(t *testing.T) {
	state, paths := testState(t)
	require.NoError(t, os.MkdirAll(paths.Assets, 0o755))
	require.NoError(t, os.MkdirAll(paths.ThemeAssets, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(paths.ThemeAssets, "style.css"), []byte("theme{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(paths.ThemeAssets, "extra.css"), []byte("extra{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(paths.Assets, "style.css"), []byte("site{}"), 0o644))

	h := state.Handler()
	rr := get(t, h, "/assets/style.css")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "site{}", rr.Body.String())

	rr = get(t, h, "/assets/extra.css")
	require.Equal(t, "extra{}", rr.Body.String())

	rr = get(t, h, "/assets/missing.css")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServeAssetRejectsTraversal(t *testing.T) {
	state, paths := testState(t)
	require.NoError(t, os.WriteFile(filepath.Join(paths.Root, "lithos.yaml"), []byte("title: secret"), 0o644))

	// ServeMux normalizes ".." away with a redirect, so the handler's own
	// guard must be exercised with the raw path a client can send over a
	// direct connection.
	for _, target := range []string{"/assets/../lithos.yaml", "/assets/..", "/assets/."} {
		rr := httptest.NewRecorder()
		state.handleAsset(rr, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusNotFound, rr.Code, target)
	}

	// Through the full handler the normalized redirect still dead-ends.
	rr := get(t, state.Handler(), "/assets/../lithos.yaml")
	require.Equal(t, http.StatusMovedPermanently, rr.Code)
	require.Equal(t, http.StatusNotFound, get(t, state.Handler(), rr.Header().Get("Location")).Code)
}

func TestServeCategories(t *testing.T) {
	state, _ := testState(t)
	h := state.Handler()

	rr := get(t, h, "/categories")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "news")

	rr = get(t, h, "/categories/news/")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "First")

	rr = get(t, h, "/categories/nope/")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServeRewritesRootRelativeLinks(t *testing.T) {
	state, _ := testState(t)

	rr := get(t, state.Handler(), "/")
	require.Contains(t, rr.Body.String(), `href="http://localhost:3030/about/"`)
}

func TestInjectReloadScriptWithoutBodyTag(t *testing.T) {
	out := injectReloadScript([]byte("<p>bare fragment</p>"))
	require.Contains(t, string(out), reloadScriptTag)
}
