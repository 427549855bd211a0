package schema

import (
	"fmt"
	"reflect"
	"regexp"

	"git.home.luguber.info/inful/lithos/internal/meta"
)

// Validate checks metadata against a merged schema and returns every
// violation found. An empty result means the document passed.
func Validate(metadata meta.Map, merged Merged) []Violation {
	var violations []Violation

	for _, field := range merged.Required {
		if _, ok := metadata[field]; !ok {
			violations = append(violations, Violation{Kind: MissingField, Field: field})
		}
	}

	for field, value := range metadata {
		def, ok := merged.Fields[field]
		if !ok {
			continue
		}
		if v, bad := def.check(value); bad {
			v.Field = field
			violations = append(violations, v)
		}
	}

	for _, rule := range merged.Rules {
		applies, v := rule.applies(metadata)
		if v != nil {
			violations = append(violations, *v)
			continue
		}
		if !applies {
			continue
		}
		for _, field := range rule.Then.Required {
			if _, ok := metadata[field]; !ok {
				violations = append(violations, Violation{Kind: MissingField, Field: field})
			}
		}
		for field, def := range rule.Then.Fields {
			value, ok := metadata[field]
			if !ok {
				continue
			}
			if v, bad := def.check(value); bad {
				v.Field = field
				violations = append(violations, v)
			}
		}
	}

	return violations
}

func (f Field) check(value any) (Violation, bool) {
	switch f.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return f.mismatch(value), true
		}
		if f.MaxLength != nil && len(s) > *f.MaxLength {
			return Violation{Kind: Constraint, Message: fmt.Sprintf("exceeds max length %d", *f.MaxLength)}, true
		}
		if f.Pattern != "" {
			re, err := regexp.Compile(f.Pattern)
			if err != nil {
				return Violation{Kind: Constraint, Message: fmt.Sprintf("invalid pattern %q: %v", f.Pattern, err)}, true
			}
			if !re.MatchString(s) {
				return Violation{Kind: Constraint, Message: fmt.Sprintf("does not match pattern %q", f.Pattern)}, true
			}
		}
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return f.mismatch(value), true
		}
		for _, required := range f.MustContain {
			if !containsValue(arr, required) {
				return Violation{Kind: Constraint, Message: fmt.Sprintf("missing required value %v", required)}, true
			}
		}
		if f.MinItems != nil && len(arr) < *f.MinItems {
			return Violation{Kind: Constraint, Message: fmt.Sprintf("must contain at least %d item(s)", *f.MinItems)}, true
		}
		if f.MaxItems != nil && len(arr) > *f.MaxItems {
			return Violation{Kind: Constraint, Message: fmt.Sprintf("must contain at most %d item(s)", *f.MaxItems)}, true
		}
		if f.Items != nil {
			for _, item := range arr {
				if v, bad := f.Items.check(item); bad {
					return v, true
				}
			}
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return f.mismatch(value), true
		}
	case "object":
		table, ok := value.(map[string]any)
		if !ok {
			return f.mismatch(value), true
		}
		for field, def := range f.Schema {
			nested, ok := table[field]
			if !ok {
				continue
			}
			if v, bad := def.check(nested); bad {
				v.Field = field
				return v, true
			}
		}
	}
	return Violation{}, false
}

func (f Field) mismatch(value any) Violation {
	return Violation{
		Kind:    TypeMismatch,
		Message: fmt.Sprintf("expected %s, got %T", f.Type, value),
	}
}

func (r Rule) applies(metadata meta.Map) (bool, *Violation) {
	for field, expected := range r.If {
		actual, ok := metadata[field]
		if !ok {
			return false, &Violation{
				Kind:    RuleCondition,
				Message: fmt.Sprintf("missing condition field %q", field),
			}
		}
		if !reflect.DeepEqual(actual, expected) {
			return false, nil
		}
	}
	return true, nil
}

func containsValue(arr []any, want any) bool {
	for _, v := range arr {
		if reflect.DeepEqual(v, want) {
			return true
		}
	}
	return false
}
