// ============================================================================
// beanval - Bean Validation Engine
// ============================================================================
//
// Package:     constraints
// Description: Constraint contract, kind registry and built-in catalog
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package constraints defines the single-method Constraint contract, a
// registry of constraint kinds and the built-in catalog.
package constraints

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Context is the read-only view a constraint gets of the value's position.
type Context interface {
	// Bean returns the object owning the property, or nil when a value is
	// validated without an instance.
	Bean() interface{}
	// PropertyName returns the name of the property being validated, or ""
	// for class-level constraints.
	PropertyName() string
}

// Constraint decides whether a value is valid. Returning an error means the
// constraint could not be evaluated, which aborts the validation call.
type Constraint interface {
	Evaluate(value interface{}, ctx Context) (bool, error)
}

// Func adapts a function to Constraint.
type Func func(value interface{}, ctx Context) (bool, error)

// Evaluate calls f.
func (f Func) Evaluate(value interface{}, ctx Context) (bool, error) {
	return f(value, ctx)
}

// Factory builds a constraint from named parameters.
type Factory func(params map[string]interface{}) (Constraint, error)

// Definition describes a constraint kind.
type Definition struct {
	// Kind is the identifier used in tags and mapping files, e.g. "maxValue".
	Kind string
	// Params names the positional arguments of a tag rule, e.g. {"min", "max"}.
	Params []string
	// RawParams passes the whole argument text as the first parameter
	// instead of splitting it on commas.
	RawParams bool
	// Message is the default message template with {param} placeholders.
	Message string
	// New builds a constraint instance.
	New Factory
}

// MessageKey returns the catalog key of kind's default message, the form
// used in message templates as "{constraint.maxValue}".
func MessageKey(kind string) string {
	return "constraint." + kind
}

// Registry maps constraint kinds to definitions. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry returns a registry holding the built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	for _, def := range builtins() {
		r.defs[def.Kind] = def
	}
	return r
}

// Register adds or replaces a kind.
func (r *Registry) Register(def Definition) error {
	if strings.TrimSpace(def.Kind) == "" || def.New == nil {
		return bverror.New("constraint definition needs a kind and a factory").
			WithCode(bverror.CodeInvalidConstraint).
			WithOperation("constraints.Register").
			WithDetail("kind", def.Kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Kind] = def
	return nil
}

// Lookup returns the definition of kind.
func (r *Registry) Lookup(kind string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[kind]
	return def, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.defs))
	for k := range r.defs {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Messages returns the default message template of every kind keyed by
// MessageKey.
func (r *Registry) Messages() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.defs))
	for kind, def := range r.defs {
		if def.Message != "" {
			out[MessageKey(kind)] = def.Message
		}
	}
	return out
}

// Build creates a constraint of kind from named parameters.
func (r *Registry) Build(kind string, params map[string]interface{}) (Constraint, Definition, error) {
	def, ok := r.Lookup(kind)
	if !ok {
		return nil, Definition{}, bverror.New(fmt.Sprintf("unknown constraint kind %q", kind)).
			WithCode(bverror.CodeUnknownConstraint).
			WithOperation("constraints.Build").
			WithDetail("kind", kind)
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	c, err := def.New(params)
	if err != nil {
		return nil, def, bverror.Wrap(err, fmt.Sprintf("invalid parameters for constraint %q", kind)).
			WithCode(bverror.CodeInvalidConstraint).
			WithOperation("constraints.Build").
			WithDetail("kind", kind)
	}
	return c, def, nil
}

// BuildRule creates a constraint from a parsed tag rule, naming its
// positional arguments after the definition's Params. It returns the named
// parameters for message interpolation.
func (r *Registry) BuildRule(rule Rule) (Constraint, map[string]interface{}, error) {
	def, ok := r.Lookup(rule.Kind)
	if !ok {
		return nil, nil, bverror.New(fmt.Sprintf("unknown constraint kind %q", rule.Kind)).
			WithCode(bverror.CodeUnknownConstraint).
			WithOperation("constraints.BuildRule").
			WithDetail("kind", rule.Kind)
	}

	args := rule.Args
	if def.RawParams && rule.Raw != "" {
		args = []string{rule.Raw}
	}
	if len(args) > len(def.Params) {
		return nil, nil, bverror.New(fmt.Sprintf("constraint %q takes at most %d arguments, got %d", rule.Kind, len(def.Params), len(args))).
			WithCode(bverror.CodeInvalidConstraint).
			WithOperation("constraints.BuildRule").
			WithDetail("kind", rule.Kind)
	}

	params := make(map[string]interface{}, len(args))
	for i, arg := range args {
		params[def.Params[i]] = arg
	}
	c, _, err := r.Build(rule.Kind, params)
	if err != nil {
		return nil, nil, err
	}
	return c, params, nil
}
