package traversable

import (
	"fmt"
	"reflect"

	"github.com/msto63/beanval/pkg/path"
)

// Cache memoizes a delegate Resolver for one validation call. The two
// answers of an entry are computed independently, each at most once.
//
// A Cache is not safe for concurrent use and must not be shared between
// validation calls.
type Cache struct {
	delegate Resolver
	entries  map[cacheKey]*cacheEntry

	hits   int
	misses int
}

type cacheKey struct {
	obj      interface{}
	node     nodeKey
	rootType reflect.Type
	path     string
	kind     ElementKind
}

type nodeKey struct {
	name       string
	hasName    bool
	inIterable bool
	index      int
	hasIndex   bool
	key        interface{}
	hasKey     bool
}

type cacheEntry struct {
	reachable  *bool
	cascadable *bool
}

// NewCache wraps delegate.
func NewCache(delegate Resolver) *Cache {
	return &Cache{delegate: delegate, entries: make(map[cacheKey]*cacheEntry)}
}

// NeedsCaching reports false: a cache is not cached again.
func (c *Cache) NeedsCaching() bool { return false }

// IsReachable returns the memoized answer, asking the delegate on a miss.
// Delegate errors are returned unchanged and not cached.
func (c *Cache) IsReachable(obj interface{}, node *path.Node, rootType reflect.Type, pathToObj *path.Path, kind ElementKind) (bool, error) {
	e := c.entry(obj, node, rootType, pathToObj, kind)
	if e.reachable != nil {
		c.hits++
		return *e.reachable, nil
	}
	c.misses++
	ok, err := c.delegate.IsReachable(obj, node, rootType, pathToObj, kind)
	if err != nil {
		return false, err
	}
	e.reachable = &ok
	return ok, nil
}

// IsCascadable returns the memoized answer, asking the delegate on a miss.
func (c *Cache) IsCascadable(obj interface{}, node *path.Node, rootType reflect.Type, pathToObj *path.Path, kind ElementKind) (bool, error) {
	e := c.entry(obj, node, rootType, pathToObj, kind)
	if e.cascadable != nil {
		c.hits++
		return *e.cascadable, nil
	}
	c.misses++
	ok, err := c.delegate.IsCascadable(obj, node, rootType, pathToObj, kind)
	if err != nil {
		return false, err
	}
	e.cascadable = &ok
	return ok, nil
}

// Stats returns the number of answers served from the cache and the number
// of delegate calls.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// Len returns the number of distinct tuples seen.
func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) entry(obj interface{}, node *path.Node, rootType reflect.Type, pathToObj *path.Path, kind ElementKind) *cacheEntry {
	key := cacheKey{
		obj:      identity(obj),
		node:     keyOf(node),
		rootType: rootType,
		kind:     kind,
	}
	if pathToObj != nil {
		key.path = pathToObj.String()
	}

	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	return e
}

type pointerIdentity struct {
	typ reflect.Type
	ptr uintptr
}

// identity returns a comparable stand-in for obj: the pointer for reference
// kinds, the value itself when comparable, and its printed form otherwise.
func identity(obj interface{}) interface{} {
	if obj == nil {
		return nil
	}
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return pointerIdentity{typ: v.Type(), ptr: v.Pointer()}
	}
	if v.Comparable() {
		return obj
	}
	return fmt.Sprintf("%T:%#v", obj, obj)
}

func keyOf(n *path.Node) nodeKey {
	if n == nil {
		return nodeKey{}
	}
	k := nodeKey{inIterable: n.IsInIterable()}
	k.name, k.hasName = n.Name()
	k.index, k.hasIndex = n.Index()
	k.key, k.hasKey = n.Key()
	return k
}
