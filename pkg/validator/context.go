// ============================================================================
// beanval - Bean Validation Engine
// ============================================================================
//
// Package:     validator
// Description: Group-aware constraint evaluation over object graphs
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package validator walks object graphs and evaluates the constraints a
// metadata.Provider declares for them, group by group, collecting
// violations with the property path at which they occurred.
//
//	v := validator.New(validator.Options{})
//	violations, err := v.Validate(order)
//	if err != nil {
//		// configuration or constraint evaluation problem
//	}
//	for _, violation := range violations {
//		fmt.Println(violation)
//	}
package validator

import (
	"reflect"

	"github.com/msto63/beanval/pkg/metadata"
	"github.com/msto63/beanval/pkg/path"
)

// unknownValue marks a property value that has not been read yet.
var unknownValue = &struct{ name string }{"unknown"}

type frame struct {
	bean     interface{}
	meta     *metadata.MetaBean
	property *metadata.MetaProperty
	value    interface{}
}

// Context is the mutable state of one validation call: the bean and
// property being validated, the current path and the collected violations.
// It is passed to constraints as their constraints.Context and must not be
// retained after Evaluate returns.
type Context struct {
	root     interface{}
	rootType reflect.Type
	locale   string

	bean     interface{}
	meta     *metadata.MetaBean
	property *metadata.MetaProperty
	value    interface{}

	path     *path.Path
	stack    []frame
	listener *listener
}

func newContext(root interface{}, rootType reflect.Type, meta *metadata.MetaBean, locale string) *Context {
	return &Context{
		root:     root,
		rootType: rootType,
		locale:   locale,
		bean:     root,
		meta:     meta,
		value:    unknownValue,
		path:     path.Root(),
		listener: &listener{},
	}
}

// Root returns the object passed to the validation call.
func (c *Context) Root() interface{} { return c.root }

// RootType returns the type the validation call was made for.
func (c *Context) RootType() reflect.Type { return c.rootType }

// Bean returns the bean owning the current property.
func (c *Context) Bean() interface{} { return c.bean }

// Meta returns the metadata of the current bean.
func (c *Context) Meta() *metadata.MetaBean { return c.meta }

// Property returns the current property, nil for class-level constraints.
func (c *Context) Property() *metadata.MetaProperty { return c.property }

// PropertyName returns the current property's name or "".
func (c *Context) PropertyName() string {
	if c.property == nil {
		return ""
	}
	return c.property.Name
}

// Path returns a copy of the current path.
func (c *Context) Path() *path.Path { return c.path.Copy() }

// PropertyValue returns the current property's value. The value is read
// through the property's accessor once and cached until UnknownValue.
// Without a property it returns the bean itself.
func (c *Context) PropertyValue() (interface{}, error) {
	if c.value != unknownValue {
		return c.value, nil
	}
	if c.property == nil {
		return c.bean, nil
	}
	v, err := c.property.Accessor.Get(c.bean)
	if err != nil {
		return nil, err
	}
	c.value = v
	return v, nil
}

// SetPropertyValue sets the cached property value, as when a value is
// validated without an owning bean.
func (c *Context) SetPropertyValue(v interface{}) {
	c.value = v
}

// UnknownValue drops the cached property value.
func (c *Context) UnknownValue() {
	c.value = unknownValue
}

// MoveDown makes bean the current bean for a cascaded descent. It must be
// paired with MoveUp.
func (c *Context) MoveDown(bean interface{}, meta *metadata.MetaBean) {
	c.stack = append(c.stack, frame{bean: c.bean, meta: c.meta, property: c.property, value: c.value})
	c.bean = bean
	c.meta = meta
	c.property = nil
	c.value = unknownValue
}

// MoveUp restores the bean and property that were current before MoveDown.
func (c *Context) MoveUp() {
	f := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.bean, c.meta, c.property, c.value = f.bean, f.meta, f.property, f.value
}

// enterProperty appends p's node to the path and makes p current.
func (c *Context) enterProperty(p *metadata.MetaProperty) *path.Node {
	c.property = p
	c.value = unknownValue
	return c.path.AddProperty(p.Name)
}

// leaveProperty undoes enterProperty.
func (c *Context) leaveProperty() {
	c.path.RemoveLeaf()
	c.property = nil
	c.value = unknownValue
}

// pathToBean returns the path of the current bean while a property is
// entered.
func (c *Context) pathToBean() *path.Path {
	if p := c.path.WithoutLeaf(); p != nil {
		return p
	}
	return path.Root()
}
