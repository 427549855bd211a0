package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ndraft: true\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Hello\ndraft: true\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\nbody\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("body\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\ntitle: Hello\nbody without close\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.False(t, had)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\ntitle: Hello\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Hello\n"), fm)
	require.Empty(t, body)
}

func TestSplit_CRLFDelimiters(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\ntitle: Hello\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Hello\r\n"), fm)
	require.Equal(t, []byte("body\r\n"), body)
}

func TestParse_DecodesScalarsArraysAndTables(t *testing.T) {
	m, err := Parse([]byte("title: Hello\ndraft: false\ncategories: [go, web]\nextra:\n  key: value\n"))
	require.NoError(t, err)
	require.Equal(t, "Hello", m.String("title", ""))
	require.False(t, m.Draft())
	require.Equal(t, []string{"go", "web"}, m.Strings("categories"))
	require.Equal(t, "value", m.Table("extra").String("key", ""))
}

func TestParse_EmptyInput_ReturnsEmptyMap(t *testing.T) {
	m, err := Parse(nil)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Empty(t, m)
}

func TestParse_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := Parse([]byte("title: [unclosed\n"))
	require.Error(t, err)
}
