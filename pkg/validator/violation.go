package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/msto63/beanval/pkg/groups"
	"github.com/msto63/beanval/pkg/metadata"
	"github.com/msto63/beanval/pkg/path"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Violation describes one failed constraint.
type Violation struct {
	RootBean        interface{}
	RootType        reflect.Type
	LeafBean        interface{}
	InvalidValue    interface{}
	Message         string
	MessageTemplate string
	Path            *path.Path
	Constraint      *metadata.ConstraintDescriptor
	Group           groups.Group
}

// Reason returns the kind of the violated constraint, e.g. "mandatory".
func (v Violation) Reason() string {
	if v.Constraint == nil {
		return ""
	}
	return v.Constraint.Kind
}

func (v Violation) String() string {
	p := v.Path.String()
	if p == "" {
		return v.Message
	}
	return p + ": " + v.Message
}

// Violations is the result of a validation call.
type Violations []Violation

// Valid reports whether there are no violations.
func (vs Violations) Valid() bool {
	return len(vs) == 0
}

// ByPath returns the violations whose path renders as p.
func (vs Violations) ByPath(p string) Violations {
	var out Violations
	for _, v := range vs {
		if v.Path.String() == p {
			out = append(out, v)
		}
	}
	return out
}

// Reasons returns the constraint kinds in violation order.
func (vs Violations) Reasons() []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Reason()
	}
	return out
}

// Err returns nil for no violations and otherwise an error with code
// CodeValidationFailed listing them.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	lines := make([]string, len(vs))
	for i, v := range vs {
		lines[i] = v.String()
	}
	return bverror.New(fmt.Sprintf("%d constraint violation(s): %s", len(vs), strings.Join(lines, "; "))).
		WithCode(bverror.CodeValidationFailed).
		WithDetail("violations", len(vs))
}

// listener collects violations during one call.
type listener struct {
	violations Violations
}

func (l *listener) add(v Violation) {
	l.violations = append(l.violations, v)
}

func (l *listener) count() int {
	return len(l.violations)
}
