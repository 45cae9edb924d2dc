package path

import (
	"fmt"
	"strconv"
	"strings"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// ErrInvalidPath matches every error returned by Parse for malformed input:
//
//	if errors.Is(err, path.ErrInvalidPath) { ... }
var ErrInvalidPath = bverror.New("invalid property path").WithCode(bverror.CodeInvalidPath)

// Path is an ordered list of nodes from the validated root to a value. A
// root path has exactly one node and that node has no name.
type Path struct {
	nodes []*Node
}

// Root returns a new root path.
func Root() *Path {
	return &Path{nodes: []*Node{{}}}
}

// New returns a path with a single property node. An empty name yields the
// root path.
func New(name string) *Path {
	if name == "" {
		return Root()
	}
	return &Path{nodes: []*Node{NewNode(name)}}
}

// Nodes returns the nodes of the path. The slice is a copy but the nodes
// are shared.
func (p *Path) Nodes() []*Node {
	return append([]*Node(nil), p.nodes...)
}

// Len returns the number of nodes.
func (p *Path) Len() int {
	return len(p.nodes)
}

// IsRoot reports whether p is a root path.
func (p *Path) IsRoot() bool {
	return len(p.nodes) == 1 && p.nodes[0].name == nil
}

// AddProperty appends a property node. On a root path the root node is
// replaced.
func (p *Path) AddProperty(name string) *Node {
	n := NewNode(name)
	p.AddNode(n)
	return n
}

// AddNode appends n. On a root path the root node is replaced.
func (p *Path) AddNode(n *Node) {
	if p.IsRoot() {
		p.nodes[0] = n
		return
	}
	p.nodes = append(p.nodes, n)
}

// Leaf returns the last node.
func (p *Path) Leaf() *Node {
	if len(p.nodes) == 0 {
		return nil
	}
	return p.nodes[len(p.nodes)-1]
}

// RemoveLeaf drops the last node and returns it. Removing the only node of
// a non-root path turns p back into a root path.
func (p *Path) RemoveLeaf() *Node {
	leaf := p.Leaf()
	switch {
	case len(p.nodes) > 1:
		p.nodes = p.nodes[:len(p.nodes)-1]
	case len(p.nodes) == 1 && !p.IsRoot():
		p.nodes[0] = &Node{}
	}
	return leaf
}

// WithoutLeaf returns a copy of p without its last node, or nil when p has
// at most one node.
func (p *Path) WithoutLeaf() *Path {
	if len(p.nodes) <= 1 {
		return nil
	}
	c := p.Copy()
	c.nodes = c.nodes[:len(c.nodes)-1]
	return c
}

// IsSubPathOf reports whether other is a prefix of p, node by node. Every
// path is a sub path of the root path.
func (p *Path) IsSubPathOf(other *Path) bool {
	if other == nil {
		return false
	}
	if other.IsRoot() {
		return true
	}
	if len(other.nodes) > len(p.nodes) {
		return false
	}
	for i, n := range other.nodes {
		if !n.Equal(p.nodes[i]) {
			return false
		}
	}
	return true
}

// Copy returns a deep copy of p.
func (p *Path) Copy() *Path {
	c := &Path{nodes: make([]*Node, len(p.nodes))}
	for i, n := range p.nodes {
		c.nodes[i] = n.Copy()
	}
	return c
}

// Equal reports whether p and other have structurally equal nodes.
func (p *Path) Equal(other *Path) bool {
	if p == nil || other == nil {
		return p == other
	}
	if len(p.nodes) != len(other.nodes) {
		return false
	}
	for i, n := range p.nodes {
		if !n.Equal(other.nodes[i]) {
			return false
		}
	}
	return true
}

// String renders p in the grammar accepted by Parse.
func (p *Path) String() string {
	var b strings.Builder
	for _, n := range p.nodes {
		if n.name != nil {
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(*n.name)
		}
		b.WriteString(n.bracket())
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p *Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Parse reads a path of the form name[index].name2[key].name3. Bracket
// content that is a non-negative integer becomes an index, other content a
// string key and empty brackets mark an in-iterable node without either.
// The empty string yields the root path.
func Parse(text string) (*Path, error) {
	if text == "" {
		return Root(), nil
	}

	p := &Path{}
	pos := 0
	for {
		start := pos
		for pos < len(text) && text[pos] != '.' && text[pos] != '[' && text[pos] != ']' {
			pos++
		}
		if pos == start {
			return nil, invalid(text, pos, "expected a property name")
		}
		node := NewNode(text[start:pos])

		if pos < len(text) && text[pos] == '[' {
			end := strings.IndexByte(text[pos+1:], ']')
			if end < 0 {
				return nil, invalid(text, pos, "unterminated '['")
			}
			content := text[pos+1 : pos+1+end]
			switch {
			case content == "":
				node.SetInIterable(true)
			case isIndex(content):
				i, _ := strconv.Atoi(content)
				node.SetIndex(i)
			default:
				node.SetKey(content)
			}
			pos += end + 2
		}
		p.nodes = append(p.nodes, node)

		if pos == len(text) {
			return p, nil
		}
		if text[pos] != '.' {
			return nil, invalid(text, pos, fmt.Sprintf("unexpected %q", text[pos]))
		}
		pos++
		if pos == len(text) {
			return nil, invalid(text, pos, "trailing '.'")
		}
	}
}

// MustParse is like Parse but panics on malformed input.
func MustParse(text string) *Path {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

// isIndex reports whether s is a canonical decimal index. Leading zeros
// make s a key so that String reproduces the parsed text.
func isIndex(s string) bool {
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func invalid(text string, pos int, reason string) error {
	return bverror.New(fmt.Sprintf("invalid property path %q: %s at position %d", text, reason, pos)).
		WithCode(bverror.CodeInvalidPath).
		WithOperation("path.Parse").
		WithDetail("path", text).
		WithDetail("position", pos)
}
