// Package convert turns markup documents into HTML plus a table of
// contents and a metadata map. It is the engine's single entry point to
// the underlying Goldmark converter; conversion failures affect only the
// document that produced them.
package convert

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/lithos/internal/frontmatter"
	"git.home.luguber.info/inful/lithos/internal/meta"
)

// Ext is the document source extension handled by the converter.
const Ext = ".md"

// Heading is one table-of-contents entry.
type Heading struct {
	Level int    `yaml:"level"`
	Text  string `yaml:"text"`
	ID    string `yaml:"id"`
}

func newConverter() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
}

// Convert renders a document body (frontmatter already removed) to HTML
// and extracts its table of contents. Root-relative link and image
// destinations in the output are absolutized against rootURL so that
// authored absolute links survive both production and preview rewriting.
func Convert(body []byte, rootURL string) ([]byte, []Heading, error) {
	md := newConverter()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, body, root); err != nil {
		return nil, nil, fmt.Errorf("render markdown: %w", err)
	}

	toc := extractTOC(root, body)
	out := RewriteRootRelative(buf.Bytes(), rootURL)
	return out, toc, nil
}

// ExtractMeta splits off the document's frontmatter and decodes it,
// returning the metadata map and the remaining body.
func ExtractMeta(src []byte) (meta.Map, []byte, error) {
	fm, body, _, err := frontmatter.Split(src)
	if err != nil {
		return nil, nil, err
	}
	m, err := frontmatter.Parse(fm)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return m, body, nil
}

// TOCValue converts headings into the metadata tree representation so the
// schema validator and templates can walk them like any other field.
func TOCValue(toc []Heading) []any {
	out := make([]any, 0, len(toc))
	for _, h := range toc {
		out = append(out, map[string]any{
			"level": h.Level,
			"text":  h.Text,
			"id":    h.ID,
		})
	}
	return out
}

func extractTOC(root gmast.Node, source []byte) []Heading {
	var toc []Heading
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		id := ""
		if v, found := h.AttributeString("id"); found {
			if b, ok := v.([]byte); ok {
				id = string(b)
			}
		}
		toc = append(toc, Heading{Level: h.Level, Text: headingText(h, source), ID: id})
		return gmast.WalkSkipChildren, nil
	})
	return toc
}

func headingText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(source))
		default:
			sb.WriteString(headingText(c, source))
		}
	}
	return sb.String()
}
