// Package schema validates document metadata against the optional
// content schema declared in the site configuration. Schemas nest per
// content path; validation merges the hierarchy global → specific and
// collects violations instead of failing fast.
package schema

import (
	"fmt"
	"strings"
)

// Content is one schema node. Path children apply to documents below the
// matching content subdirectory.
type Content struct {
	Required []string            `yaml:"required"`
	Fields   map[string]Field    `yaml:"fields"`
	Rules    []Rule              `yaml:"rules"`
	Paths    map[string]*Content `yaml:"paths"`
}

// Field constrains one metadata field. Type selects which of the other
// members are meaningful.
type Field struct {
	Type        string           `yaml:"type"` // string, array, boolean, object
	MaxLength   *int             `yaml:"max_length"`
	Pattern     string           `yaml:"pattern"`
	Items       *Field           `yaml:"items"`
	MinItems    *int             `yaml:"min_items"`
	MaxItems    *int             `yaml:"max_items"`
	MustContain []any            `yaml:"must_contain"`
	Schema      map[string]Field `yaml:"schema"`
}

// Rule is a conditional requirement: when every condition field equals its
// expected value, the then-clause applies.
type Rule struct {
	If   map[string]any `yaml:"if"`
	Then RuleAction     `yaml:"then"`
}

// RuleAction is what a matched rule demands.
type RuleAction struct {
	Required []string         `yaml:"required"`
	Fields   map[string]Field `yaml:"fields"`
}

// Merged is the flattened requirement set for one document.
type Merged struct {
	Required []string
	Fields   map[string]Field
	Rules    []Rule
}

// ResolvePath returns the schema nodes along content path components,
// outermost first. Missing components simply end the descent.
func (c *Content) ResolvePath(contentPath string) []*Content {
	nodes := []*Content{c}
	current := c
	for _, component := range strings.Split(contentPath, "/") {
		if component == "" {
			continue
		}
		child, ok := current.Paths[component]
		if !ok {
			break
		}
		nodes = append(nodes, child)
		current = child
	}
	return nodes
}

// MergeHierarchy flattens nodes into one requirement set. Later (more
// specific) nodes override field definitions; required lists union.
func MergeHierarchy(nodes []*Content) Merged {
	merged := Merged{Fields: map[string]Field{}}
	for _, node := range nodes {
		for _, f := range node.Required {
			if !contains(merged.Required, f) {
				merged.Required = append(merged.Required, f)
			}
		}
		for k, v := range node.Fields {
			merged.Fields[k] = v
		}
		merged.Rules = append(merged.Rules, node.Rules...)
	}
	return merged
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ViolationKind classifies a violation.
type ViolationKind string

const (
	MissingField  ViolationKind = "missing_field"
	TypeMismatch  ViolationKind = "type_mismatch"
	Constraint    ViolationKind = "constraint"
	RuleCondition ViolationKind = "rule_condition"
)

// Violation is one validation failure. Violations are collected, never
// returned as errors, so a single bad field cannot abort a batch.
type Violation struct {
	Kind    ViolationKind
	Field   string
	Message string
}

func (v Violation) String() string {
	switch v.Kind {
	case MissingField:
		return fmt.Sprintf("missing field %q", v.Field)
	case RuleCondition:
		return fmt.Sprintf("rule condition failed: %s", v.Message)
	default:
		return fmt.Sprintf("field %q: %s", v.Field, v.Message)
	}
}

// FormatViolations renders the violations of one document for the
// aggregated build report.
func FormatViolations(docPath string, violations []Violation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "validation failed for %s\n", docPath)
	for _, v := range violations {
		fmt.Fprintf(&sb, "  - %s\n", v)
	}
	return sb.String()
}
