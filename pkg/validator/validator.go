package validator

import (
	"fmt"
	"reflect"

	"github.com/msto63/beanval/pkg/groups"
	"github.com/msto63/beanval/pkg/metadata"
	"github.com/msto63/beanval/pkg/path"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Validator evaluates constraints over object graphs. It is safe for
// concurrent use; each call keeps its own state.
type Validator struct {
	opts Options
}

// New creates a validator, filling unset options with defaults.
func New(opts Options) *Validator {
	return &Validator{opts: opts.withDefaults()}
}

// Provider returns the metadata provider in use.
func (v *Validator) Provider() metadata.Provider {
	return v.opts.Provider
}

// Groups returns the group resolver in use.
func (v *Validator) Groups() *groups.Resolver {
	return v.opts.Groups
}

// Validate validates root and everything reachable from it through cascaded
// properties for the requested groups, Default when none are given.
func (v *Validator) Validate(root interface{}, gs ...groups.Group) (Violations, error) {
	meta, err := v.rootMeta(root, "Validate")
	if err != nil {
		return nil, err
	}
	return v.ValidateBean(root, meta, gs...)
}

// ValidateBean is Validate with explicitly supplied metadata, as needed for
// documents described by mapping files.
func (v *Validator) ValidateBean(root interface{}, meta *metadata.MetaBean, gs ...groups.Group) (Violations, error) {
	c := v.newCall("Validate", root, rootTypeOf(root, meta), meta)
	plan, err := v.opts.Groups.ComputeGroups(gs...)
	if err == nil {
		err = c.runPlan(plan, c.validateBean)
	}
	return c.finish(err)
}

// ValidateProperty validates one property of root, addressed by a path
// such as "address.lines[1]", together with the graph it cascades to.
// Intermediate nodes are navigated without validating them; a node the
// resolver reports unreachable ends navigation with no violations. When the
// last node carries an index or key, the addressed element is validated as
// a bean. Violation paths are relative to root.
func (v *Validator) ValidateProperty(root interface{}, property string, gs ...groups.Group) (Violations, error) {
	meta, err := v.rootMeta(root, "ValidateProperty")
	if err != nil {
		return nil, err
	}
	c := v.newCall("ValidateProperty", root, rootTypeOf(root, meta), meta)
	return c.finish(c.validatePropertyPath(property, gs))
}

// ValidateValue validates value as if it were the property of a bean of
// type rootType, without an instance and without cascading.
func (v *Validator) ValidateValue(rootType reflect.Type, property string, value interface{}, gs ...groups.Group) (Violations, error) {
	meta, err := v.opts.Provider.MetaBeanFor(rootType)
	if err != nil {
		return nil, err
	}
	return v.ValidateValueOf(meta, property, value, gs...)
}

// ValidateValueOf is ValidateValue with explicitly supplied metadata.
func (v *Validator) ValidateValueOf(meta *metadata.MetaBean, property string, value interface{}, gs ...groups.Group) (Violations, error) {
	c := v.newCall("ValidateValue", nil, meta.Type, meta)
	return c.finish(c.validateValue(property, value, gs))
}

func (v *Validator) rootMeta(root interface{}, op string) (*metadata.MetaBean, error) {
	if root == nil || (reflect.ValueOf(root).Kind() == reflect.Ptr && reflect.ValueOf(root).IsNil()) {
		return nil, bverror.New("cannot validate a nil object").
			WithCode(bverror.CodeInvalidInput).
			WithOperation("validator." + op)
	}
	return v.opts.Provider.MetaBeanFor(reflect.TypeOf(root))
}

func rootTypeOf(root interface{}, meta *metadata.MetaBean) reflect.Type {
	if meta.Type != nil {
		return meta.Type
	}
	return reflect.TypeOf(root)
}

func (c *call) validatePropertyPath(property string, gs []groups.Group) error {
	p, err := parseProperty(property)
	if err != nil {
		return err
	}
	plan, err := c.v.opts.Groups.ComputeGroups(gs...)
	if err != nil {
		return err
	}

	nodes := p.Nodes()
	for _, n := range nodes[:len(nodes)-1] {
		prop, err := c.lookup(n)
		if err != nil {
			return err
		}
		node := c.ctx.enterProperty(prop)
		if ok, err := c.reachable(prop, node); err != nil || !ok {
			return err
		}
		value, err := c.element(node, n)
		if err != nil || value == nil {
			return err
		}
		meta, err := c.metaFor(value, prop.TargetBean)
		if err != nil {
			return err
		}
		if meta == nil {
			return invalidProperty(property, fmt.Sprintf("%s holds %T, not a bean", c.ctx.path, value))
		}
		c.ctx.MoveDown(value, meta)
	}

	last := nodes[len(nodes)-1]
	prop, err := c.lookup(last)
	if err != nil {
		return err
	}

	if addressesElement(last) {
		node := c.ctx.enterProperty(prop)
		if ok, err := c.traversable(prop, node); err != nil || !ok {
			return err
		}
		elem, err := c.element(node, last)
		if err != nil || elem == nil {
			return err
		}
		return c.runPlan(plan, func(g groups.Group) error {
			return c.cascadeBean(elem, prop, prop.ConvertGroup(g))
		})
	}

	meta := c.ctx.meta
	return c.runPlan(plan, func(g groups.Group) error {
		return c.forEachGroup(meta, g, func(g groups.Group) error {
			return c.validateProperty(prop, g, cascadeGroupOf(meta, g))
		})
	})
}

func (c *call) validateValue(property string, value interface{}, gs []groups.Group) error {
	p, err := parseProperty(property)
	if err != nil {
		return err
	}
	plan, err := c.v.opts.Groups.ComputeGroups(gs...)
	if err != nil {
		return err
	}

	nodes := p.Nodes()
	for _, n := range nodes[:len(nodes)-1] {
		prop, err := c.lookup(n)
		if err != nil {
			return err
		}
		node := c.ctx.enterProperty(prop)
		copyElement(node, n)
		meta, err := c.staticMeta(prop, n)
		if err != nil {
			return err
		}
		c.ctx.MoveDown(nil, meta)
	}

	last := nodes[len(nodes)-1]
	if addressesElement(last) {
		return invalidProperty(property, "a value cannot be validated for a container element")
	}
	prop, err := c.lookup(last)
	if err != nil {
		return err
	}
	c.ctx.enterProperty(prop)
	c.ctx.SetPropertyValue(value)

	meta := c.ctx.meta
	return c.runPlan(plan, func(g groups.Group) error {
		return c.forEachGroup(meta, g, func(g groups.Group) error {
			return c.evaluateProperty(prop, g)
		})
	})
}

func parseProperty(property string) (*path.Path, error) {
	p, err := path.Parse(property)
	if err != nil {
		return nil, err
	}
	if p.IsRoot() {
		return nil, invalidProperty(property, "empty property path")
	}
	return p, nil
}

// lookup resolves the property named by n on the current bean.
func (c *call) lookup(n *path.Node) (*metadata.MetaProperty, error) {
	name, _ := n.Name()
	prop, ok := c.ctx.meta.Property(name)
	if !ok {
		return nil, bverror.New(fmt.Sprintf("bean %s has no property %q", c.ctx.meta.ID, name)).
			WithCode(bverror.CodeUnknownProperty).
			WithOperation("validator." + c.operation).
			WithDetail("property", name)
	}
	return prop, nil
}

// element returns the value of the entered property, or the element n
// addresses by index or key. Missing elements yield nil.
func (c *call) element(node, n *path.Node) (interface{}, error) {
	value, err := c.ctx.PropertyValue()
	if err != nil {
		return nil, c.accessError(err)
	}
	if !n.IsInIterable() {
		return value, nil
	}
	copyElement(node, n)

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, nil
	}

	if i, ok := n.Index(); ok {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if i >= rv.Len() {
				return nil, nil
			}
			return valueOf(rv.Index(i)), nil
		case reflect.Map:
			return mapEntry(rv, reflect.ValueOf(i), n)
		}
		return nil, invalidProperty(n.String(), fmt.Sprintf("%T cannot be indexed", value))
	}
	if key, ok := n.Key(); ok && rv.Kind() == reflect.Map {
		return mapEntry(rv, reflect.ValueOf(key), n)
	}
	return nil, invalidProperty(n.String(), fmt.Sprintf("%T cannot be addressed by %s", value, n))
}

func mapEntry(m, key reflect.Value, n *path.Node) (interface{}, error) {
	kt := m.Type().Key()
	if !key.Type().ConvertibleTo(kt) || (key.Kind() == reflect.String) != (kt.Kind() == reflect.String) {
		return nil, invalidProperty(n.String(), fmt.Sprintf("key %v does not fit %s", key, m.Type()))
	}
	return valueOf(m.MapIndex(key.Convert(kt))), nil
}

// staticMeta resolves the metadata of the bean a property leads to from its
// declared type, for validation without instances.
func (c *call) staticMeta(prop *metadata.MetaProperty, n *path.Node) (*metadata.MetaBean, error) {
	if prop.TargetBean != "" {
		return c.metaFor(struct{}{}, prop.TargetBean)
	}
	t := prop.Accessor.Type()
	if t == nil {
		return nil, invalidProperty(n.String(), "the type of "+prop.Name+" is unknown")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if n.IsInIterable() {
		switch t.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			t = t.Elem()
			for t.Kind() == reflect.Ptr {
				t = t.Elem()
			}
		}
	}
	return c.v.opts.Provider.MetaBeanFor(t)
}

func addressesElement(n *path.Node) bool {
	_, hasIndex := n.Index()
	_, hasKey := n.Key()
	return hasIndex || hasKey
}

// copyElement transfers the index or key of n to node.
func copyElement(node, n *path.Node) {
	if i, ok := n.Index(); ok {
		node.SetIndex(i)
	} else if k, ok := n.Key(); ok {
		node.SetKey(k)
	} else if n.IsInIterable() {
		node.SetInIterable(true)
	}
}

func invalidProperty(property, reason string) error {
	return bverror.New(fmt.Sprintf("invalid property path %q: %s", property, reason)).
		WithCode(bverror.CodeInvalidPath).
		WithDetail("path", property)
}
