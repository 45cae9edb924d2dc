// ============================================================================
// beanval - Bean Validation Engine
// ============================================================================
//
// Package:     path
// Description: Property paths locating values inside a validated object graph
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package path describes where in an object graph a value lives, as a chain
// of property nodes with optional container indices or map keys.
package path

import (
	"fmt"
	"reflect"
	"strconv"
)

// Node is one segment of a Path. A node without a name only appears as the
// single node of a root path.
type Node struct {
	name       *string
	inIterable bool
	index      *int
	key        interface{}
	hasKey     bool
}

// NewNode returns a property node.
func NewNode(name string) *Node {
	return &Node{name: &name}
}

// Name returns the property name and whether the node has one.
func (n *Node) Name() (string, bool) {
	if n.name == nil {
		return "", false
	}
	return *n.name, true
}

// IsInIterable reports whether the node addresses an element of a container.
func (n *Node) IsInIterable() bool {
	return n.inIterable
}

// SetInIterable marks the node as addressing a container element without
// naming which one.
func (n *Node) SetInIterable(in bool) {
	n.inIterable = in
	if !in {
		n.index = nil
		n.key, n.hasKey = nil, false
	}
}

// Index returns the container index and whether one is set.
func (n *Node) Index() (int, bool) {
	if n.index == nil {
		return 0, false
	}
	return *n.index, true
}

// SetIndex sets the container index. It clears any key and marks the node
// as in-iterable.
func (n *Node) SetIndex(i int) {
	n.index = &i
	n.key, n.hasKey = nil, false
	n.inIterable = true
}

// Key returns the map key and whether one is set.
func (n *Node) Key() (interface{}, bool) {
	return n.key, n.hasKey
}

// SetKey sets the map key. It clears any index and marks the node as
// in-iterable. Keys must be comparable.
func (n *Node) SetKey(key interface{}) {
	n.key, n.hasKey = key, true
	n.index = nil
	n.inIterable = true
}

// Equal reports structural equality over name, in-iterable flag, index and key.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if (n.name == nil) != (other.name == nil) || (n.name != nil && *n.name != *other.name) {
		return false
	}
	if n.inIterable != other.inIterable {
		return false
	}
	if (n.index == nil) != (other.index == nil) || (n.index != nil && *n.index != *other.index) {
		return false
	}
	if n.hasKey != other.hasKey {
		return false
	}
	return !n.hasKey || keysEqual(n.key, other.key)
}

func keysEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

// Copy returns an independent copy of the node.
func (n *Node) Copy() *Node {
	c := &Node{inIterable: n.inIterable, key: n.key, hasKey: n.hasKey}
	if n.name != nil {
		name := *n.name
		c.name = &name
	}
	if n.index != nil {
		i := *n.index
		c.index = &i
	}
	return c
}

// String renders the node as it appears inside a path string.
func (n *Node) String() string {
	if n.name == nil {
		return n.bracket()
	}
	return *n.name + n.bracket()
}

func (n *Node) bracket() string {
	if !n.inIterable {
		return ""
	}
	switch {
	case n.index != nil:
		return "[" + strconv.Itoa(*n.index) + "]"
	case n.hasKey:
		return "[" + fmt.Sprint(n.key) + "]"
	default:
		return "[]"
	}
}
