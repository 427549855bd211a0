// Package frontmatter splits YAML frontmatter from document bodies.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/lithos/internal/meta"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but never closed it.
var ErrMissingClosingDelimiter = errors.New("frontmatter opening delimiter found but closing delimiter is missing")

// Split separates `---` delimited YAML frontmatter from the document body.
// If the document does not start with a delimiter, had is false and body is
// the full input. Both \n and \r\n delimiter lines are accepted.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Empty frontmatter block.
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// Allow a closing delimiter at EOF without a trailing newline.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(rest, tail) {
			return rest[:len(rest)-len(tail)+len(nl)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

// Parse decodes raw frontmatter (without delimiters) into a metadata map.
// Empty input yields an empty, non-nil map.
func Parse(fm []byte) (meta.Map, error) {
	if len(fm) == 0 {
		return meta.Map{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return meta.Map(fields), nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
