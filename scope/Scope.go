// Package scope implements hierarchical names for the nodes that
// objectives and approximators add to computational graphs.
//
// A Scope is passed explicitly through construction. Objectives name
// their placeholders within their own Scope, and target approximators
// are built in a child Scope of the objective that owns them, so that
// two copies of the same architecture never share a name.
package scope

import "strings"

// Separator separates the components of a Scope
const Separator = "/"

// Scope is a hierarchical name, for example
// "agent/value_gradient_objective/target/value_fn"
type Scope struct {
	parts []string
}

// New returns a new Scope built from the argument components. Empty
// components are ignored, and components containing Separator are
// split.
func New(parts ...string) Scope {
	var s Scope
	return s.Child(parts...)
}

// Parse returns the Scope represented by a string
func Parse(name string) Scope {
	return New(name)
}

// Child returns a new Scope nested inside s
func (s Scope) Child(parts ...string) Scope {
	child := make([]string, len(s.parts), len(s.parts)+len(parts))
	copy(child, s.parts)

	for _, part := range parts {
		for _, p := range strings.Split(part, Separator) {
			if p != "" {
				child = append(child, p)
			}
		}
	}
	return Scope{parts: child}
}

// Name returns the fully qualified name of a node called name within s
func (s Scope) Name(name string) string {
	if len(s.parts) == 0 {
		return name
	}
	return s.String() + Separator + name
}

// Base returns the last component of s
func (s Scope) Base() string {
	if len(s.parts) == 0 {
		return ""
	}
	return s.parts[len(s.parts)-1]
}

// IsRoot returns whether s has no components
func (s Scope) IsRoot() bool {
	return len(s.parts) == 0
}

// String implements the fmt.Stringer interface
func (s Scope) String() string {
	return strings.Join(s.parts, Separator)
}
