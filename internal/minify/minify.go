// Package minify wraps the tdewolff minifier behind the narrow contract
// the build pipeline needs: bytes in, bytes of a known content type out.
package minify

import (
	"path/filepath"
	"regexp"
	"strings"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/tdewolff/minify/v2/xml"
)

var m = func() *tdminify.M {
	m := tdminify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{KeepDocumentTags: true, KeepEndTags: true})
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	m.AddFuncRegexp(regexp.MustCompile("[/+]json$"), json.Minify)
	m.AddFuncRegexp(regexp.MustCompile("[/+]xml$"), xml.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}()

// extTypes maps asset extensions to minifiable media types.
var extTypes = map[string]string{
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".xml":  "text/xml",
	".svg":  "image/svg+xml",
	".html": "text/html",
}

// Bytes minifies in according to mediatype. Unknown media types are
// returned unchanged.
func Bytes(mediatype string, in []byte) ([]byte, error) {
	out, err := m.Bytes(mediatype, in)
	if err == tdminify.ErrNotExist {
		return in, nil
	}
	return out, err
}

// HTML minifies a rendered page.
func HTML(in []byte) ([]byte, error) { return Bytes("text/html", in) }

// TypeForPath returns the minifiable media type for an asset path, or ""
// when the file should be copied verbatim. Pre-minified files
// (name.min.ext) are never re-minified.
func TypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	mt, ok := extTypes[ext]
	if !ok {
		return ""
	}
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	if strings.HasSuffix(strings.ToLower(stem), ".min") {
		return ""
	}
	return mt
}
