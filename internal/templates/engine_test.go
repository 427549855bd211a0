package templates

import (
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lithos/internal/meta"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_EmbeddedDefaultLayoutAlwaysPresent(t *testing.T) {
	e, err := Load("", "")
	require.NoError(t, err)
	require.True(t, e.Has("default.html"))

	out, err := e.Render("default.html", map[string]any{
		"Config":   map[string]any{"Language": "en", "Title": "Site"},
		"Metadata": meta.Map{"title": "Page"},
		"Content":  htmltemplate.HTML("<p>hi</p>"),
	})
	require.NoError(t, err)
	require.Contains(t, out, "<p>hi</p>")
	require.Contains(t, out, "Page")
}

func TestLoad_SiteTemplateOverridesTheme(t *testing.T) {
	theme := filepath.Join(t.TempDir(), "theme")
	siteDir := filepath.Join(t.TempDir(), "templates")
	writeTemplate(t, theme, "post.html", "theme version")
	writeTemplate(t, siteDir, "post.html", "site version")

	e, err := Load(siteDir, theme)
	require.NoError(t, err)

	out, err := e.Render("post.html", nil)
	require.NoError(t, err)
	require.Equal(t, "site version", out)
}

func TestLoad_ThemeOnlyTemplateStillAvailable(t *testing.T) {
	theme := t.TempDir()
	writeTemplate(t, theme, "category.html", "category: {{ .Category }}")

	e, err := Load(filepath.Join(t.TempDir(), "missing"), theme)
	require.NoError(t, err)

	out, err := e.Render("category.html", map[string]any{"Category": "go"})
	require.NoError(t, err)
	require.Equal(t, "category: go", out)
}

func TestRender_XMLTemplateSkipsHTMLEscaping(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "rss.xml", "<rss><title>{{ .Title }}</title></rss>")

	e, err := Load(dir, "")
	require.NoError(t, err)

	out, err := e.Render("rss.xml", map[string]any{"Title": "a & b"})
	require.NoError(t, err)
	require.Equal(t, "<rss><title>a & b</title></rss>", out)
}

func TestRender_UnknownTemplate_ReturnsError(t *testing.T) {
	e, err := Load("", "")
	require.NoError(t, err)

	_, err = e.Render("nope.html", nil)
	require.Error(t, err)
}

func TestShared_ReplaceSwapsInstance(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "page.html", "v1")
	e1, err := Load(dir, "")
	require.NoError(t, err)

	shared := NewShared(e1)
	out, err := shared.Render("page.html", nil)
	require.NoError(t, err)
	require.Equal(t, "v1", out)

	writeTemplate(t, dir, "page.html", "v2")
	e2, err := Load(dir, "")
	require.NoError(t, err)
	shared.Replace(e2)

	out, err = shared.Render("page.html", nil)
	require.NoError(t, err)
	require.Equal(t, "v2", out)
}
