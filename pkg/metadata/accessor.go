package metadata

import (
	"fmt"
	"reflect"

	"github.com/msto63/beanval/pkg/traversable"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Accessor reads one property value from a bean. Accessors are resolved once
// when the metamodel is built. Nil pointers and nil interfaces are returned
// as untyped nil.
type Accessor interface {
	Get(bean interface{}) (interface{}, error)
	Name() string
	// Type is the declared type of the value, nil when unknown.
	Type() reflect.Type
	Kind() traversable.ElementKind
}

// FieldAccessor reads a struct field, possibly promoted from embedded structs.
type FieldAccessor struct {
	name  string
	index []int
	typ   reflect.Type
}

// NewFieldAccessor returns an accessor for the struct field f.
func NewFieldAccessor(name string, f reflect.StructField) *FieldAccessor {
	return &FieldAccessor{name: name, index: f.Index, typ: f.Type}
}

func (a *FieldAccessor) Name() string                  { return a.name }
func (a *FieldAccessor) Type() reflect.Type            { return a.typ }
func (a *FieldAccessor) Kind() traversable.ElementKind { return traversable.KindField }

// Get returns the field value. A nil embedded pointer on the way yields nil.
func (a *FieldAccessor) Get(bean interface{}) (interface{}, error) {
	rv, err := structValue(bean, a.name)
	if err != nil {
		return nil, err
	}
	fv, err := rv.FieldByIndexErr(a.index)
	if err != nil {
		return nil, nil
	}
	return normalize(fv), nil
}

// MethodAccessor calls a getter: a method without arguments returning the
// value, optionally followed by an error.
type MethodAccessor struct {
	name   string
	method string
	typ    reflect.Type
}

// NewMethodAccessor returns an accessor calling method on the bean.
func NewMethodAccessor(name string, m reflect.Method) (*MethodAccessor, error) {
	mt := m.Type
	// m comes from a type's method set, so In(0) is the receiver.
	okOut := mt.NumOut() == 1 || (mt.NumOut() == 2 && mt.Out(1) == errorType)
	if mt.NumIn() != 1 || !okOut {
		return nil, bverror.New(fmt.Sprintf("method %s is not a getter", m.Name)).
			WithCode(bverror.CodeMetadata).
			WithDetail("property", name)
	}
	return &MethodAccessor{name: name, method: m.Name, typ: mt.Out(0)}, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func (a *MethodAccessor) Name() string                  { return a.name }
func (a *MethodAccessor) Type() reflect.Type            { return a.typ }
func (a *MethodAccessor) Kind() traversable.ElementKind { return traversable.KindMethod }

// Get calls the getter on bean. Getters declared on the pointer receiver
// are found when bean is a pointer.
func (a *MethodAccessor) Get(bean interface{}) (interface{}, error) {
	if bean == nil {
		return nil, nilBean(a.name)
	}
	rv := reflect.ValueOf(bean)
	m := rv.MethodByName(a.method)
	if !m.IsValid() && rv.Kind() != reflect.Ptr {
		pv := reflect.New(rv.Type())
		pv.Elem().Set(rv)
		m = pv.MethodByName(a.method)
	}
	if !m.IsValid() {
		return nil, bverror.New(fmt.Sprintf("%T has no method %s", bean, a.method)).
			WithCode(bverror.CodeUnknownProperty).
			WithDetail("property", a.name)
	}
	out := m.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, bverror.Wrap(out[1].Interface().(error), "getter "+a.method+" failed").
			WithCode(bverror.CodeMetadata).
			WithDetail("property", a.name)
	}
	return normalize(out[0]), nil
}

// MapKeyAccessor reads an entry of a map keyed by strings.
type MapKeyAccessor struct {
	key string
}

// NewMapKeyAccessor returns an accessor for key.
func NewMapKeyAccessor(key string) *MapKeyAccessor {
	return &MapKeyAccessor{key: key}
}

func (a *MapKeyAccessor) Name() string                  { return a.key }
func (a *MapKeyAccessor) Type() reflect.Type            { return nil }
func (a *MapKeyAccessor) Kind() traversable.ElementKind { return traversable.KindMapKey }

// Get returns the entry or nil when it is absent.
func (a *MapKeyAccessor) Get(bean interface{}) (interface{}, error) {
	if m, ok := bean.(map[string]interface{}); ok {
		return m[a.key], nil
	}
	rv := reflect.ValueOf(bean)
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, bverror.New(fmt.Sprintf("cannot read key %q from %T", a.key, bean)).
			WithCode(bverror.CodeInvalidInput).
			WithDetail("property", a.key)
	}
	v := rv.MapIndex(reflect.ValueOf(a.key).Convert(rv.Type().Key()))
	if !v.IsValid() {
		return nil, nil
	}
	return normalize(v), nil
}

func structValue(bean interface{}, name string) (reflect.Value, error) {
	rv := reflect.ValueOf(bean)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, nilBean(name)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, bverror.New(fmt.Sprintf("cannot read field %s from %T", name, bean)).
			WithCode(bverror.CodeInvalidInput).
			WithDetail("property", name)
	}
	return rv, nil
}

func nilBean(name string) error {
	return bverror.New("cannot read property of a nil bean").
		WithCode(bverror.CodeInvalidInput).
		WithDetail("property", name)
}

func normalize(v reflect.Value) interface{} {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		if v.Kind() == reflect.Interface {
			return normalize(v.Elem())
		}
	}
	return v.Interface()
}
