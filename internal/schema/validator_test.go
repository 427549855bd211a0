package schema

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lithos/internal/meta"
)

func intp(n int) *int { return &n }

func TestValidate_MissingRequiredField(t *testing.T) {
	merged := Merged{Required: []string{"title", "date"}}

	violations := Validate(meta.Map{"title": "x"}, merged)
	require.Len(t, violations, 1)
	require.Equal(t, MissingField, violations[0].Kind)
	require.Equal(t, "date", violations[0].Field)
}

func TestValidate_StringConstraints(t *testing.T) {
	merged := Merged{Fields: map[string]Field{
		"title": {Type: "string", MaxLength: intp(5)},
		"slug":  {Type: "string", Pattern: `^[a-z-]+$`},
	}}

	violations := Validate(meta.Map{"title": "too long title", "slug": "Bad Slug"}, merged)
	require.Len(t, violations, 2)
}

func TestValidate_TypeMismatch(t *testing.T) {
	merged := Merged{Fields: map[string]Field{"draft": {Type: "boolean"}}}

	violations := Validate(meta.Map{"draft": "yes"}, merged)
	require.Len(t, violations, 1)
	require.Equal(t, TypeMismatch, violations[0].Kind)
	require.Equal(t, "draft", violations[0].Field)
}

func TestValidate_ArrayConstraints(t *testing.T) {
	merged := Merged{Fields: map[string]Field{
		"categories": {Type: "array", MinItems: intp(1), MaxItems: intp(2), MustContain: []any{"go"}},
	}}

	require.Empty(t, Validate(meta.Map{"categories": []any{"go", "web"}}, merged))
	require.Len(t, Validate(meta.Map{"categories": []any{"web"}}, merged), 1)
	require.Len(t, Validate(meta.Map{"categories": []any{"go", "a", "b"}}, merged), 1)
	require.Len(t, Validate(meta.Map{"categories": []any{}}, merged), 1)
}

func TestValidate_ConditionalRule(t *testing.T) {
	merged := Merged{Rules: []Rule{{
		If:   map[string]any{"layout": "post"},
		Then: RuleAction{Required: []string{"date"}},
	}}}

	require.Empty(t, Validate(meta.Map{"layout": "page"}, merged))
	// Condition field absent -> rule condition violation.
	vs := Validate(meta.Map{}, merged)
	require.Len(t, vs, 1)
	require.Equal(t, RuleCondition, vs[0].Kind)
	// Condition met, requirement missing.
	vs = Validate(meta.Map{"layout": "post"}, merged)
	require.Len(t, vs, 1)
	require.Equal(t, MissingField, vs[0].Kind)
	// Condition met, requirement satisfied.
	require.Empty(t, Validate(meta.Map{"layout": "post", "date": "2024-01-01"}, merged))
}

func TestResolvePathAndMerge_SpecificOverridesGlobal(t *testing.T) {
	raw := `
required: [title]
fields:
  title: {type: string, max_length: 100}
paths:
  posts:
    required: [date]
    fields:
      title: {type: string, max_length: 10}
`
	var root Content
	require.NoError(t, yaml.Unmarshal([]byte(raw), &root))

	merged := MergeHierarchy(root.ResolvePath("posts/hello"))
	require.ElementsMatch(t, []string{"title", "date"}, merged.Required)
	require.Equal(t, 10, *merged.Fields["title"].MaxLength)

	topOnly := MergeHierarchy(root.ResolvePath("about"))
	require.Equal(t, []string{"title"}, topOnly.Required)
	require.Equal(t, 100, *topOnly.Fields["title"].MaxLength)
}

func TestValidate_ObjectSchema(t *testing.T) {
	merged := Merged{Fields: map[string]Field{
		"author": {Type: "object", Schema: map[string]Field{
			"name": {Type: "string"},
		}},
	}}

	require.Empty(t, Validate(meta.Map{"author": map[string]any{"name": "Ada"}}, merged))
	vs := Validate(meta.Map{"author": map[string]any{"name": 42}}, merged)
	require.Len(t, vs, 1)
}
