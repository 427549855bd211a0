// Package meta provides typed accessors over the free-form metadata map
// attached to every document. Documents carry arbitrary author-defined
// fields, so the map is string-keyed with YAML-decoded values; accessors
// return a zero value or caller default instead of panicking.
package meta

import (
	"fmt"
	"time"
)

// Map is one document's metadata as decoded from YAML frontmatter.
type Map map[string]any

// String returns the string value of key, or def if absent or not a string.
func (m Map) String(key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

// Bool returns the boolean value of key, or def if absent or not a bool.
func (m Map) Bool(key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

// Strings returns the entries of an array-valued key coerced to strings.
// Non-string entries are stringified; a missing or scalar value yields nil.
func (m Map) Strings(key string) []string {
	arr, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		} else {
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// Table returns a nested map value, or nil when absent.
func (m Map) Table(key string) Map {
	switch v := m[key].(type) {
	case map[string]any:
		return Map(v)
	case Map:
		return v
	default:
		return nil
	}
}

// Draft reports whether the document is flagged as a draft.
// Content is not a draft by default.
func (m Map) Draft() bool { return m.Bool("draft", false) }

// Layout returns the template name used to render the document,
// falling back to "default".
func (m Map) Layout() string { return m.String("layout", "default") }

// dateLayouts are the accepted formats for the date field, tried in order.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// Date parses the document's date field. Documents without a parseable
// date sort as the Unix epoch, i.e. last in a descending listing.
func (m Map) Date() time.Time {
	raw := m.String("date", "")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// Clone returns a shallow copy. Render contexts receive clones because
// rendering runs concurrently.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
