package validator

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msto63/beanval/pkg/groups"
	"github.com/msto63/beanval/pkg/path"
	"github.com/msto63/beanval/pkg/traversable"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

type Contact struct {
	Email string `validate:"email"`
}

type PostalAddress struct {
	Lines []string `validate:"size:1,2"`
	City  string   `validate:"mandatory"`
}

type Client struct {
	Name     string                    `validate:"mandatory"`
	Address  *PostalAddress            `valid:"cascade"`
	Contacts []*Contact                `valid:"cascade"`
	Branches map[string]*PostalAddress `valid:"cascade"`
}

func sampleClient() *Client {
	return &Client{
		Address:  &PostalAddress{Lines: []string{"a", "b", "c"}},
		Contacts: []*Contact{{Email: "ok@example.org"}, {Email: "broken"}},
		Branches: map[string]*PostalAddress{"bonn": {Lines: []string{"x"}}},
	}
}

func TestValidatePropertyValidatesThePropertyAndItsCascade(t *testing.T) {
	v := newFixture(t).validator()
	c := sampleClient()

	vs, err := v.ValidateProperty(c, "Name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name"}, paths(vs))

	vs, err = v.ValidateProperty(c, "Address")
	require.NoError(t, err)
	assert.Equal(t, []string{"Address.Lines", "Address.City"}, paths(vs))
	assert.Same(t, c.Address, vs[0].LeafBean)

	vs, err = v.ValidateProperty(c, "Contacts")
	require.NoError(t, err)
	assert.Equal(t, []string{"Contacts[1].Email"}, paths(vs))
}

func TestValidatePropertyCascadeFollowsConversion(t *testing.T) {
	v := newFixture(t).validator()

	vs, err := v.ValidateProperty(&Parent{C: &Child{}}, "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"C.X"}, paths(vs))
}

func TestValidatePropertyHonorsReachability(t *testing.T) {
	var asked []string
	v := newFixture(t).validator(func(o *Options) {
		o.Resolver = traversable.Func(func(_ interface{}, node *path.Node, _ reflect.Type, _ *path.Path, _ traversable.ElementKind) (bool, error) {
			name, _ := node.Name()
			asked = append(asked, name)
			return name != "Address", nil
		})
	})
	c := sampleClient()

	vs, err := v.ValidateProperty(c, "Address.City")
	require.NoError(t, err)
	assert.Empty(t, vs)
	assert.Equal(t, []string{"Address"}, asked)

	vs, err = v.ValidateProperty(c, "Branches[bonn].City")
	require.NoError(t, err)
	assert.Equal(t, []string{"Branches[bonn].City"}, paths(vs))
}

func TestValidatePropertyNavigatesNestedPaths(t *testing.T) {
	v := newFixture(t).validator()
	c := sampleClient()

	vs, err := v.ValidateProperty(c, "Address.City")
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "Address.City", vs[0].Path.String())
	assert.Same(t, c, vs[0].RootBean)
	assert.Same(t, c.Address, vs[0].LeafBean)

	vs, err = v.ValidateProperty(c, "Address.Lines")
	require.NoError(t, err)
	assert.Equal(t, []string{"size"}, vs.Reasons())

	vs, err = v.ValidateProperty(c, "Branches[bonn].City")
	require.NoError(t, err)
	assert.Equal(t, []string{"Branches[bonn].City"}, paths(vs))
}

func TestValidatePropertyOnElement(t *testing.T) {
	v := newFixture(t).validator()
	c := sampleClient()

	vs, err := v.ValidateProperty(c, "Contacts[1]")
	require.NoError(t, err)
	assert.Equal(t, []string{"Contacts[1].Email"}, paths(vs))

	vs, err = v.ValidateProperty(c, "Contacts[0]")
	require.NoError(t, err)
	assert.Empty(t, vs)

	vs, err = v.ValidateProperty(c, "Contacts[7]")
	require.NoError(t, err)
	assert.Empty(t, vs, "missing elements have nothing to validate")

	vs, err = v.ValidateProperty(c, "Branches[bonn]")
	require.NoError(t, err)
	assert.Equal(t, []string{"Branches[bonn].City"}, paths(vs))
}

func TestValidatePropertyErrors(t *testing.T) {
	v := newFixture(t).validator()
	c := sampleClient()

	_, err := v.ValidateProperty(c, "Nope")
	assert.True(t, bverror.HasCode(err, bverror.CodeUnknownProperty))

	_, err = v.ValidateProperty(c, "Address.Nope")
	assert.True(t, bverror.HasCode(err, bverror.CodeUnknownProperty))

	_, err = v.ValidateProperty(c, "foo[")
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidPath))

	_, err = v.ValidateProperty(c, "")
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidPath))

	_, err = v.ValidateProperty(c, "Name[0]")
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidPath))

	_, err = v.ValidateProperty(c, "Contacts[x].Email")
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidPath))
}

func TestValidatePropertyWithNilIntermediate(t *testing.T) {
	v := newFixture(t).validator()

	vs, err := v.ValidateProperty(&Client{}, "Address.City")
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestValidateValue(t *testing.T) {
	v := newFixture(t).validator()
	clientType := reflect.TypeOf(Client{})

	vs, err := v.ValidateValue(clientType, "Name", "")
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Nil(t, vs[0].RootBean)
	assert.Nil(t, vs[0].LeafBean)
	assert.Equal(t, "", vs[0].InvalidValue)
	assert.Equal(t, clientType, vs[0].RootType)

	vs, err = v.ValidateValue(clientType, "Name", "Ada")
	require.NoError(t, err)
	assert.Empty(t, vs)

	vs, err = v.ValidateValue(clientType, "Contacts[].Email", "nope")
	require.NoError(t, err)
	assert.Equal(t, []string{"Contacts[].Email"}, paths(vs))

	vs, err = v.ValidateValue(clientType, "Address", &PostalAddress{}, groups.Default)
	require.NoError(t, err)
	assert.Empty(t, vs, "values are not cascaded")

	_, err = v.ValidateValue(clientType, "Contacts[0]", &Contact{})
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidPath))

	_, err = v.ValidateValue(clientType, "Missing", 1)
	assert.True(t, bverror.HasCode(err, bverror.CodeUnknownProperty))
}

func TestValidateValueHonorsRedefinedDefault(t *testing.T) {
	v := newFixture(t).validator()

	vs, err := v.ValidateValue(reflect.TypeOf(Account{}), "Balance", -5)
	require.NoError(t, err)
	assert.Equal(t, []string{"minValue"}, vs.Reasons(), "Strict runs because the own group found nothing")
}
