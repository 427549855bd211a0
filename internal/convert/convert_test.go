package convert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvert_RendersMarkdownToHTML(t *testing.T) {
	html, _, err := Convert([]byte("# Hello\n\nSome *text*.\n"), "")
	require.NoError(t, err)
	require.Contains(t, string(html), "<h1")
	require.Contains(t, string(html), "Hello")
	require.Contains(t, string(html), "<em>text</em>")
}

func TestConvert_ExtractsTableOfContents(t *testing.T) {
	src := []byte("# Top\n\n## Section One\n\ntext\n\n## Section Two\n")

	_, toc, err := Convert(src, "")
	require.NoError(t, err)
	require.Len(t, toc, 3)
	require.Equal(t, 1, toc[0].Level)
	require.Equal(t, "Top", toc[0].Text)
	require.Equal(t, 2, toc[1].Level)
	require.Equal(t, "Section One", toc[1].Text)
	require.NotEmpty(t, toc[1].ID)
}

func TestConvert_AbsolutizesRootRelativeLinks(t *testing.T) {
	src := []byte("[about](/about/) and ![logo](/assets/logo.png)\n")

	html, _, err := Convert(src, "https://example.org")
	require.NoError(t, err)
	require.Contains(t, string(html), `href="https://example.org/about/"`)
	require.Contains(t, string(html), `src="https://example.org/assets/logo.png"`)
}

func TestRewriteRootRelative_LeavesProtocolRelativeAndAbsoluteAlone(t *testing.T) {
	in := []byte(`<a href="//cdn.example.com/x">x</a><a href="https://other/">y</a><a href="/local">z</a>`)

	out := RewriteRootRelative(in, "https://example.org/")
	require.Contains(t, string(out), `href="//cdn.example.com/x"`)
	require.Contains(t, string(out), `href="https://other/"`)
	require.Contains(t, string(out), `href="https://example.org/local"`)
}

func TestRewriteRootRelative_IgnoresAttributeLikeText(t *testing.T) {
	in := []byte(`<p>write href="/docs" in your markup</p><code>src="/img.png"</code>`)

	out := RewriteRootRelative(in, "https://example.org")
	require.Equal(t, string(in), string(out))
}

func TestRewriteRootRelative_UnchangedInputIsByteIdentical(t *testing.T) {
	in := []byte("<!DOCTYPE html>\n<html><head><script>var s = \"/app.js\";</script></head>\n" +
		"<body><a href=\"https://other/\">x</a><!-- keep --></body></html>\n")

	out := RewriteRootRelative(in, "https://example.org")
	require.Equal(t, in, out)
}

func TestRewriteRootRelative_SingleQuotedAttribute(t *testing.T) {
	out := RewriteRootRelative([]byte(`<img src='/logo.png' alt='logo'>`), "https://example.org")
	require.Contains(t, string(out), "https://example.org/logo.png")
}

func TestExtractMeta_SplitsFrontmatterFromBody(t *testing.T) {
	src := []byte("---\ntitle: Post\ndraft: true\n---\n# Body\n")

	m, body, err := ExtractMeta(src)
	require.NoError(t, err)
	require.Equal(t, "Post", m.String("title", ""))
	require.True(t, m.Draft())
	require.Equal(t, "# Body\n", string(body))
}

func TestTOCValue_ProducesWalkableTree(t *testing.T) {
	v := TOCValue([]Heading{{Level: 2, Text: "One", ID: "one"}})
	require.Len(t, v, 1)
	entry, ok := v[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "One", entry["text"])
}
