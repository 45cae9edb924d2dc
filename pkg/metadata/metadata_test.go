package metadata

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msto63/beanval/pkg/constraints"
	"github.com/msto63/beanval/pkg/groups"
	"github.com/msto63/beanval/pkg/traversable"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

type (
	Insert  interface{}
	Update  interface{}
	Audited interface{ audited() }
)

type Auditing struct {
	CreatedBy string `validate:"mandatory"`
}

func (Auditing) audited() {}

type Address struct {
	City string `validate:"mandatory"`
}

type Customer struct {
	Auditing
	Name     string            `json:"name" validate:"mandatory;maxLength:20"`
	Age      int               `validate:"minValue:18" groups:"Insert,Update"`
	Address  *Address          `valid:"cascade" convert:"Default->Insert"`
	Tags     map[string]string `valid:"cascade,map"`
	Ignored  string            `validate:"-"`
	internal string
}

func (c *Customer) Nickname() string { return "n-" + c.Name }

func (Customer) GetterProperties() []GetterProperty {
	return []GetterProperty{{Method: "Nickname", Name: "nickname", Rules: "maxLength:4"}}
}

func (Customer) BeanConstraints() []ClassConstraint {
	return []ClassConstraint{{Kind: "notEmpty"}}
}

type Sequenced struct {
	A string `validate:"mandatory"`
}

func (Sequenced) DefaultSequence() []groups.Group {
	return []groups.Group{groups.ForType(reflect.TypeOf(Sequenced{})), groups.Of[Insert]()}
}

type BadSequence struct{}

func (BadSequence) DefaultSequence() []groups.Group {
	return []groups.Group{groups.Of[Insert]()}
}

func newProvider(t *testing.T) *TagProvider {
	t.Helper()
	gr := groups.NewRegistry()
	require.NoError(t, gr.Register(groups.Of[Insert]()))
	require.NoError(t, gr.Register(groups.Of[Update]()))
	return NewTagProvider(nil, gr)
}

func TestTagProviderBuildsProperties(t *testing.T) {
	p := newProvider(t)
	mb, err := p.MetaBeanFor(reflect.TypeOf(&Customer{}))
	require.NoError(t, err)

	var names []string
	for _, prop := range mb.Properties {
		names = append(names, prop.Name)
	}
	assert.Equal(t, []string{"CreatedBy", "name", "Age", "Address", "Tags", "nickname"}, names)
	assert.Equal(t, groups.ForType(reflect.TypeOf(Customer{})), mb.Group)

	name, ok := mb.Property("name")
	require.True(t, ok)
	require.Len(t, name.Constraints, 2)
	assert.Equal(t, "maxLength", name.Constraints[1].Kind)
	assert.Equal(t, map[string]interface{}{"max": "20"}, name.Constraints[1].Params)
	assert.Equal(t, "{constraint.maxLength}", name.Constraints[1].Message)
	assert.Equal(t, []groups.Group{groups.Default}, name.Constraints[0].Groups)
	assert.Equal(t, traversable.KindField, name.Accessor.Kind())

	age, _ := mb.Property("Age")
	assert.Equal(t, []groups.Group{groups.Of[Insert](), groups.Of[Update]()}, age.Constraints[0].Groups)

	addr, _ := mb.Property("Address")
	assert.True(t, addr.Cascade)
	assert.Equal(t, ContainerAuto, addr.Container)
	assert.Equal(t, groups.Of[Insert](), addr.ConvertGroup(groups.Default))
	assert.Equal(t, groups.Of[Update](), addr.ConvertGroup(groups.Of[Update]()))

	tags, _ := mb.Property("Tags")
	assert.Equal(t, ContainerMap, tags.Container)

	_, ok = mb.Property("Ignored")
	assert.False(t, ok)
	_, ok = mb.Property("internal")
	assert.False(t, ok)

	require.Len(t, mb.Constraints, 1)
	assert.Equal(t, "notEmpty", mb.Constraints[0].Kind)
}

func TestTagProviderCachesPerType(t *testing.T) {
	p := newProvider(t)

	var wg sync.WaitGroup
	results := make([]*MetaBean, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mb, err := p.MetaBeanFor(reflect.TypeOf(Customer{}))
			assert.NoError(t, err)
			results[i] = mb
		}(i)
	}
	wg.Wait()

	for _, mb := range results {
		assert.Same(t, results[0], mb)
	}
	assert.Equal(t, 1, p.Len())
}

func TestTagProviderRejectsBadDeclarations(t *testing.T) {
	p := newProvider(t)

	type unknownGroup struct {
		A string `validate:"mandatory" groups:"Nope"`
	}
	_, err := p.MetaBeanFor(reflect.TypeOf(unknownGroup{}))
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidGroup))

	type unknownKind struct {
		A string `validate:"frobnicate"`
	}
	_, err = p.MetaBeanFor(reflect.TypeOf(unknownKind{}))
	assert.True(t, bverror.HasCode(err, bverror.CodeUnknownConstraint))

	type convertWithoutCascade struct {
		A *Address `convert:"Default->Insert"`
	}
	_, err = p.MetaBeanFor(reflect.TypeOf(convertWithoutCascade{}))
	assert.True(t, bverror.HasCode(err, bverror.CodeMetadata))

	_, err = p.MetaBeanFor(reflect.TypeOf(42))
	assert.True(t, bverror.HasCode(err, bverror.CodeMetadata))

	_, err = p.MetaBeanFor(reflect.TypeOf(BadSequence{}))
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidSequence))
}

func TestDefaultSequenceRedefinition(t *testing.T) {
	p := newProvider(t)
	mb, err := p.MetaBeanFor(reflect.TypeOf(Sequenced{}))
	require.NoError(t, err)

	assert.True(t, mb.HasDefaultSequence())
	assert.Equal(t, mb.Group, mb.DefaultSequence[0])
}

func TestImplicitGrouping(t *testing.T) {
	p := newProvider(t)
	mb, err := p.MetaBeanFor(reflect.TypeOf(Customer{}))
	require.NoError(t, err)

	createdBy, _ := mb.Property("CreatedBy")
	d := createdBy.Constraints[0]
	assert.Equal(t, reflect.TypeOf(Auditing{}), d.DeclaringType)
	assert.True(t, d.ImplicitlyIn(groups.Of[Audited]()), "promoted from a type implementing the group")
	assert.True(t, d.ImplicitlyIn(mb.Group), "host group")
	assert.False(t, d.ImplicitlyIn(groups.Of[Insert]()))
	assert.False(t, d.ImplicitlyIn(groups.Default), "explicit, not implicit")
	assert.True(t, d.AppliesTo(groups.Default))

	name, _ := mb.Property("name")
	assert.False(t, name.Constraints[0].ImplicitlyIn(groups.Of[Audited]()))

	age, _ := mb.Property("Age")
	assert.False(t, age.Constraints[0].ImplicitlyIn(mb.Group), "only Default constraints are implicit")
}

func TestAccessors(t *testing.T) {
	p := newProvider(t)
	mb, err := p.MetaBeanFor(reflect.TypeOf(Customer{}))
	require.NoError(t, err)

	c := &Customer{Name: "Ada", Auditing: Auditing{CreatedBy: "me"}}

	name, _ := mb.Property("name")
	v, err := name.Accessor.Get(c)
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)

	createdBy, _ := mb.Property("CreatedBy")
	v, err = createdBy.Accessor.Get(*c)
	require.NoError(t, err)
	assert.Equal(t, "me", v)

	addr, _ := mb.Property("Address")
	v, err = addr.Accessor.Get(c)
	require.NoError(t, err)
	assert.Nil(t, v, "nil pointer normalizes to nil")

	nick, _ := mb.Property("nickname")
	assert.Equal(t, traversable.KindMethod, nick.Accessor.Kind())
	v, err = nick.Accessor.Get(*c)
	require.NoError(t, err)
	assert.Equal(t, "n-Ada", v)

	_, err = name.Accessor.Get((*Customer)(nil))
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidInput))
}

type failingGetter struct{}

func (failingGetter) Value() (int, error) { return 0, errors.New("broken") }

func TestMethodAccessorPropagatesGetterErrors(t *testing.T) {
	m, _ := reflect.TypeOf(failingGetter{}).MethodByName("Value")
	acc, err := NewMethodAccessor("value", m)
	require.NoError(t, err)

	_, err = acc.Get(failingGetter{})
	assert.True(t, bverror.HasCode(err, bverror.CodeMetadata))
	assert.Equal(t, reflect.TypeOf(0), acc.Type())
}

func TestMapKeyAccessor(t *testing.T) {
	acc := NewMapKeyAccessor("city")
	v, err := acc.Get(map[string]interface{}{"city": "Bonn"})
	require.NoError(t, err)
	assert.Equal(t, "Bonn", v)

	v, err = acc.Get(map[string]string{"zip": "1"})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = acc.Get(42)
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidInput))
}

func TestBeansProvider(t *testing.T) {
	tags := newProvider(t)
	beans := NewBeans(tags)

	doc := NewMetaBean("address", nil, groups.Named("address"))
	c, _, err := constraints.NewRegistry().Build("mandatory", nil)
	require.NoError(t, err)
	require.NoError(t, doc.AddProperty(&MetaProperty{
		Name:        "city",
		Accessor:    NewMapKeyAccessor("city"),
		Constraints: []*ConstraintDescriptor{NewDescriptor("mandatory", c, nil, "")},
	}))
	require.NoError(t, beans.Add(doc))
	assert.Error(t, beans.Add(doc))

	got, err := beans.MetaBeanByID("address")
	require.NoError(t, err)
	assert.Same(t, doc, got)

	_, err = beans.MetaBeanByID("nope")
	assert.True(t, bverror.HasCode(err, bverror.CodeNotFound))

	mb, err := beans.MetaBeanFor(reflect.TypeOf(Address{}))
	require.NoError(t, err)
	assert.Equal(t, "metadata.Address", mb.ID)
	assert.Equal(t, []string{"address"}, beans.IDs())

	err = doc.AddProperty(&MetaProperty{Name: "city"})
	assert.True(t, bverror.HasCode(err, bverror.CodeMetadata))
}

func TestParseContainerKind(t *testing.T) {
	for _, k := range []ContainerKind{ContainerAuto, ContainerNone, ContainerList, ContainerMap} {
		got, err := ParseContainerKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseContainerKind("tree")
	assert.Error(t, err)
}
