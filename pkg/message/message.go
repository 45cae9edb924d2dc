// ============================================================================
// beanval - Bean Validation Engine
// ============================================================================
//
// Package:     message
// Description: Violation message interpolation
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package message turns constraint message templates into violation
// messages. Templates contain {name} placeholders naming a constraint
// parameter, the built-in names "value" and "property", or a message key
// such as {constraint.maxValue}. A backslash escapes a brace.
package message

import (
	"fmt"
	"strings"

	"github.com/msto63/beanval/foundation/core/i18n"
)

// maxDepth bounds how often a resolved message key is expanded again.
const maxDepth = 4

// Context carries what an interpolator may refer to.
type Context struct {
	Kind     string
	Params   map[string]interface{}
	Value    interface{}
	Property string
	Locale   string
}

// data returns the template data for catalog rendering.
func (c Context) data() map[string]interface{} {
	d := make(map[string]interface{}, len(c.Params)+2)
	for k, v := range c.Params {
		d[k] = v
	}
	d["value"] = c.Value
	d["property"] = c.Property
	return d
}

// lookupParam resolves parameter and built-in names.
func (c Context) lookupParam(name string) (string, bool) {
	if v, ok := c.Params[name]; ok {
		return fmt.Sprint(v), true
	}
	switch name {
	case "value":
		return fmt.Sprint(c.Value), true
	case "property":
		return c.Property, true
	}
	return "", false
}

// Interpolator renders a message template.
type Interpolator interface {
	Interpolate(template string, ctx Context) string
}

type identity struct{}

func (identity) Interpolate(template string, _ Context) string { return template }

// Identity returns templates unchanged.
var Identity Interpolator = identity{}

// Template resolves placeholders from the constraint parameters and message
// keys from a fixed set of messages.
type Template struct {
	messages map[string]string
}

// NewTemplate creates an interpolator over messages keyed like
// "constraint.maxValue", usually constraints.Registry.Messages().
func NewTemplate(messages map[string]string) *Template {
	m := make(map[string]string, len(messages))
	for k, v := range messages {
		m[k] = v
	}
	return &Template{messages: m}
}

// Interpolate implements Interpolator.
func (t *Template) Interpolate(template string, ctx Context) string {
	return t.expand(template, ctx, 0)
}

func (t *Template) expand(template string, ctx Context, depth int) string {
	return replace(template, func(name string) (string, bool) {
		if s, ok := ctx.lookupParam(name); ok {
			return s, true
		}
		if msg, ok := t.messages[name]; ok && depth < maxDepth {
			return t.expand(msg, ctx, depth+1), true
		}
		return "", false
	})
}

// Catalog resolves message keys through an i18n catalog in the context's
// locale, falling back to a Template for keys the catalog lacks.
type Catalog struct {
	manager  *i18n.Manager
	fallback *Template
}

// NewCatalog creates a catalog interpolator. fallback may be nil.
func NewCatalog(manager *i18n.Manager, fallback *Template) *Catalog {
	if fallback == nil {
		fallback = NewTemplate(nil)
	}
	return &Catalog{manager: manager, fallback: fallback}
}

// Interpolate implements Interpolator.
func (c *Catalog) Interpolate(template string, ctx Context) string {
	locale := ctx.Locale
	if locale == "" {
		locale = c.manager.GetCurrentLocale()
	}
	return replace(template, func(name string) (string, bool) {
		if s, ok := ctx.lookupParam(name); ok {
			return s, true
		}
		if msg, err := c.manager.TryTIn(locale, name, ctx.data()); err == nil {
			return msg, true
		}
		if msg, ok := c.fallback.messages[name]; ok {
			return c.fallback.expand(msg, ctx, 1), true
		}
		return "", false
	})
}

// replace substitutes every {name} for which resolve reports true and
// leaves the others in place.
func replace(template string, resolve func(name string) (string, bool)) string {
	if !strings.ContainsAny(template, "{\\") {
		return template
	}

	var b strings.Builder
	for i := 0; i < len(template); i++ {
		ch := template[i]
		switch {
		case ch == '\\' && i+1 < len(template) && (template[i+1] == '{' || template[i+1] == '}'):
			b.WriteByte(template[i+1])
			i++
		case ch == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				b.WriteString(template[i:])
				return b.String()
			}
			name := template[i+1 : i+1+end]
			if s, ok := resolve(strings.TrimSpace(name)); ok {
				b.WriteString(s)
			} else {
				b.WriteString(template[i : i+2+end])
			}
			i += end + 1
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
