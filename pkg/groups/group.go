// ============================================================================
// beanval - Bean Validation Engine
// ============================================================================
//
// Package:     groups
// Description: Validation groups, group sequences and evaluation plans
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package groups models validation groups and resolves requested groups
// into ordered evaluation plans.
package groups

import (
	"reflect"
)

// DefaultMarker is the marker interface behind the Default group.
type DefaultMarker interface {
	isDefaultGroup()
}

// Default is the implicit group used when a caller requests no groups.
var Default = Group{typ: reflect.TypeOf((*DefaultMarker)(nil)).Elem(), name: "Default"}

// Group identifies a validation group. Groups are comparable and can be used
// as map keys. The zero Group is invalid.
type Group struct {
	typ  reflect.Type
	name string
}

// Of returns the group for the marker interface T.
//
//	type Insert interface{}
//	var InsertGroup = groups.Of[Insert]()
func Of[T any]() Group {
	return ForType(reflect.TypeOf((*T)(nil)).Elem())
}

// ForType returns the group identified by t. Only interface types are
// markers; struct types yield the group a bean uses to refer to its own
// Default constraints inside a redefined default sequence.
func ForType(t reflect.Type) Group {
	if t == nil {
		return Group{}
	}
	if t == Default.typ {
		return Default
	}
	return Group{typ: t, name: t.Name()}
}

// Named returns a group identified only by name, as declared in mapping files.
func Named(name string) Group {
	if name == Default.name {
		return Default
	}
	return Group{name: name}
}

// Name returns the group's short name.
func (g Group) Name() string {
	return g.name
}

// Type returns the marker type, or nil for named groups.
func (g Group) Type() reflect.Type {
	return g.typ
}

// IsZero reports whether g is the zero Group.
func (g Group) IsZero() bool {
	return g.typ == nil && g.name == ""
}

// IsMarker reports whether g may be requested for validation: it is either
// backed by an interface type or declared by name.
func (g Group) IsMarker() bool {
	if g.typ == nil {
		return g.name != ""
	}
	return g.typ.Kind() == reflect.Interface
}

// String returns the qualified name of the group.
func (g Group) String() string {
	if g.typ == nil {
		return g.name
	}
	if g == Default {
		return Default.name
	}
	if pkg := g.typ.PkgPath(); pkg != "" {
		return pkg + "." + g.typ.Name()
	}
	return g.typ.String()
}

// key returns a string unique per group, used for singleflight.
func (g Group) key() string {
	if g.typ == nil {
		return "name:" + g.name
	}
	return "type:" + g.String()
}

// Step is one entry of a Plan: either a single independent group or a
// sequence whose members are evaluated in order until one of them reports
// violations.
type Step struct {
	Group    Group
	Sequence []Group
}

// IsSequence reports whether the step is a short-circuiting sequence.
func (s Step) IsSequence() bool {
	return s.Sequence != nil
}

// Groups returns the groups of the step in evaluation order.
func (s Step) Groups() []Group {
	if s.Sequence != nil {
		return s.Sequence
	}
	return []Group{s.Group}
}

// Plan is the ordered evaluation plan computed from a set of requested
// groups. Plans are immutable once returned by a Resolver.
type Plan struct {
	Steps []Step
}

var defaultPlan = &Plan{Steps: []Step{{Group: Default}}}

// DefaultPlan returns the process-wide plan used when no groups, or only
// Default, are requested.
func DefaultPlan() *Plan {
	return defaultPlan
}

// IsDefault reports whether p is the default plan.
func (p *Plan) IsDefault() bool {
	return p == defaultPlan
}

// Groups returns every group of the plan in evaluation order.
func (p *Plan) Groups() []Group {
	var out []Group
	for _, step := range p.Steps {
		out = append(out, step.Groups()...)
	}
	return out
}

// String renders the plan as "A, B, [C -> D]".
func (p *Plan) String() string {
	var b []byte
	for i, step := range p.Steps {
		if i > 0 {
			b = append(b, ", "...)
		}
		if !step.IsSequence() {
			b = append(b, step.Group.String()...)
			continue
		}
		b = append(b, '[')
		for j, g := range step.Sequence {
			if j > 0 {
				b = append(b, " -> "...)
			}
			b = append(b, g.String()...)
		}
		b = append(b, ']')
	}
	return string(b)
}
