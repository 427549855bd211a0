package convert

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// linkAttrs are the attributes whose root-relative values get absolutized.
var linkAttrs = map[string]bool{
	"href": true,
	"src":  true,
}

// RewriteRootRelative prefixes root-relative link and asset references in
// rendered HTML with rootURL. Protocol-relative destinations (//host/...)
// are left alone. Only tags carrying a rewritten attribute are re-rendered;
// every other token passes through byte-for-byte, so a page that needs no
// rewriting comes out identical to its input.
func RewriteRootRelative(page []byte, rootURL string) []byte {
	if rootURL == "" {
		return page
	}
	root := strings.TrimSuffix(rootURL, "/")

	var out bytes.Buffer
	out.Grow(len(page) + 64)

	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			out.Write(z.Raw())
			return out.Bytes()
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(z.Raw())
			continue
		}

		// Token() invalidates Raw()'s backing slice, so keep a copy for
		// the unchanged case.
		raw := append([]byte(nil), z.Raw()...)
		token := z.Token()
		changed := false
		for i, attr := range token.Attr {
			if linkAttrs[attr.Key] && rootRelative(attr.Val) {
				token.Attr[i].Val = root + attr.Val
				changed = true
			}
		}
		if !changed {
			out.Write(raw)
			continue
		}
		out.WriteString(token.String())
	}
}

func rootRelative(val string) bool {
	return strings.HasPrefix(val, "/") && !strings.HasPrefix(val, "//")
}
