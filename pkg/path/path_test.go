package path

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

func TestParseRoundTripWithIndices(t *testing.T) {
	const text = "order[3].deliveryAddress.addressline[1]"

	p, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, text, p.String())

	nodes := p.Nodes()
	require.Len(t, nodes, 3)

	name, _ := nodes[0].Name()
	idx, ok := nodes[0].Index()
	assert.Equal(t, "order", name)
	assert.True(t, ok)
	assert.Equal(t, 3, idx)

	name, _ = nodes[1].Name()
	_, ok = nodes[1].Index()
	assert.Equal(t, "deliveryAddress", name)
	assert.False(t, ok)
	assert.False(t, nodes[1].IsInIterable())

	name, _ = nodes[2].Name()
	idx, ok = nodes[2].Index()
	assert.Equal(t, "addressline", name)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestParseMapKey(t *testing.T) {
	p, err := Parse("order[foo].deliveryAddress")
	require.NoError(t, err)

	first := p.Nodes()[0]
	key, ok := first.Key()
	assert.True(t, ok)
	assert.Equal(t, "foo", key)
	_, ok = first.Index()
	assert.False(t, ok)
	assert.Equal(t, "order[foo].deliveryAddress", p.String())
}

func TestParseLeadingZeroIsKey(t *testing.T) {
	for _, text := range []string{"a[01]", "a[007].b"} {
		p, err := Parse(text)
		require.NoError(t, err, text)
		assert.Equal(t, text, p.String())

		first := p.Nodes()[0]
		_, ok := first.Index()
		assert.False(t, ok, text)
		_, ok = first.Key()
		assert.True(t, ok, text)
	}

	p, err := Parse("a[0]")
	require.NoError(t, err)
	idx, ok := p.Nodes()[0].Index()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestParseEmptyBrackets(t *testing.T) {
	p, err := Parse("lines[].text")
	require.NoError(t, err)

	first := p.Nodes()[0]
	assert.True(t, first.IsInIterable())
	_, hasIndex := first.Index()
	_, hasKey := first.Key()
	assert.False(t, hasIndex)
	assert.False(t, hasKey)
	assert.Equal(t, "lines[].text", p.String())
}

func TestParseRejectsMalformedInput(t *testing.T) {
	for _, text := range []string{"foo[.bar", "f[1]oo.bar", "foo.bar.", ".foo.bar", "foo..bar", "a]b", "[0]"} {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPath))
			assert.True(t, bverror.HasCode(err, bverror.CodeInvalidPath))
		})
	}
	assert.Panics(t, func() { MustParse("foo.") })
}

func TestRootPath(t *testing.T) {
	parsed, err := Parse("")
	require.NoError(t, err)

	assert.True(t, parsed.Equal(Root()))
	assert.True(t, parsed.Equal(New("")))
	assert.True(t, parsed.IsRoot())
	require.Equal(t, 1, parsed.Len())
	_, hasName := parsed.Leaf().Name()
	assert.False(t, hasName)
	assert.Equal(t, "", parsed.String())
}

func TestAddAndRemoveAroundRoot(t *testing.T) {
	p := Root()
	p.AddProperty("address")
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, "address", p.String())

	p.AddProperty("city")
	assert.Equal(t, "address.city", p.String())

	removed := p.RemoveLeaf()
	name, _ := removed.Name()
	assert.Equal(t, "city", name)

	p.RemoveLeaf()
	assert.True(t, p.IsRoot())
	assert.Equal(t, "", p.String())
}

func TestWithoutLeaf(t *testing.T) {
	p := MustParse("a.b[2].c")

	parent := p.WithoutLeaf()
	require.NotNil(t, parent)
	assert.Equal(t, "a.b[2]", parent.String())
	assert.Equal(t, "a.b[2].c", p.String())

	assert.Nil(t, New("a").WithoutLeaf())
	assert.Nil(t, Root().WithoutLeaf())
}

func TestCopyIsIndependent(t *testing.T) {
	p := MustParse("items[0].name")
	c := p.Copy()

	c.Nodes()[0].SetIndex(7)
	c.AddProperty("extra")

	assert.Equal(t, "items[0].name", p.String())
	assert.Equal(t, "items[7].name.extra", c.String())
}

func TestIsSubPathOf(t *testing.T) {
	p := MustParse("order[3].deliveryAddress.city")

	assert.True(t, p.IsSubPathOf(MustParse("order[3]")))
	assert.True(t, p.IsSubPathOf(MustParse("order[3].deliveryAddress")))
	assert.True(t, p.IsSubPathOf(p.Copy()))
	assert.True(t, p.IsSubPathOf(Root()))
	assert.False(t, p.IsSubPathOf(MustParse("order[4]")))
	assert.False(t, p.IsSubPathOf(MustParse("order")))
	assert.False(t, MustParse("order[3]").IsSubPathOf(p))
	assert.False(t, p.IsSubPathOf(nil))
}

func TestIndexAndKeyAreExclusive(t *testing.T) {
	n := NewNode("items")

	n.SetIndex(2)
	n.SetKey("k")
	_, hasIndex := n.Index()
	key, hasKey := n.Key()
	assert.False(t, hasIndex)
	assert.True(t, hasKey)
	assert.Equal(t, "k", key)

	n.SetIndex(4)
	_, hasKey = n.Key()
	assert.False(t, hasKey)
	assert.Equal(t, "items[4]", n.String())

	n.SetInIterable(false)
	assert.Equal(t, "items", n.String())
}

func TestNodeEquality(t *testing.T) {
	a := NewNode("x")
	b := NewNode("x")
	assert.True(t, a.Equal(b))

	a.SetKey(1)
	assert.False(t, a.Equal(b))
	b.SetKey(1)
	assert.True(t, a.Equal(b))

	b.SetKey("1")
	assert.False(t, a.Equal(b))

	assert.False(t, a.Equal(&Node{}))
	assert.True(t, (&Node{}).Equal(&Node{}))
}

func TestMarshalText(t *testing.T) {
	text, err := MustParse("a[k].b").MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "a[k].b", string(text))
}
