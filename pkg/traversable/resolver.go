// ============================================================================
// beanval - Bean Validation Engine
// ============================================================================
//
// Package:     traversable
// Description: Reachability and cascade decisions with a per-call memo cache
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package traversable decides whether the walker may read and cascade into
// an associated property, and memoizes those decisions for one validation
// call.
package traversable

import (
	"reflect"

	"github.com/msto63/beanval/pkg/path"
)

// ElementKind describes how a property value is read.
type ElementKind int

const (
	// KindField is a struct field.
	KindField ElementKind = iota
	// KindMethod is a getter method.
	KindMethod
	// KindMapKey is an entry of a map backed bean.
	KindMapKey
)

// String returns the kind name.
func (k ElementKind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	case KindMapKey:
		return "mapkey"
	default:
		return "unknown"
	}
}

// Resolver decides whether a property of obj may be read and whether the
// walker may cascade into it. node is the property node, pathToObj the path
// from the root to obj.
type Resolver interface {
	IsReachable(obj interface{}, node *path.Node, rootType reflect.Type, pathToObj *path.Path, kind ElementKind) (bool, error)
	IsCascadable(obj interface{}, node *path.Node, rootType reflect.Type, pathToObj *path.Path, kind ElementKind) (bool, error)
}

// CachingHint is implemented by resolvers that know whether memoizing their
// answers is worthwhile.
type CachingHint interface {
	NeedsCaching() bool
}

type always struct{}

// Always reports every property as reachable and cascadable.
var Always Resolver = always{}

func (always) IsReachable(interface{}, *path.Node, reflect.Type, *path.Path, ElementKind) (bool, error) {
	return true, nil
}

func (always) IsCascadable(interface{}, *path.Node, reflect.Type, *path.Path, ElementKind) (bool, error) {
	return true, nil
}

func (always) NeedsCaching() bool { return false }

// Func adapts a single decision function to a Resolver used for both
// questions.
type Func func(obj interface{}, node *path.Node, rootType reflect.Type, pathToObj *path.Path, kind ElementKind) (bool, error)

// IsReachable calls f.
func (f Func) IsReachable(obj interface{}, node *path.Node, rootType reflect.Type, pathToObj *path.Path, kind ElementKind) (bool, error) {
	return f(obj, node, rootType, pathToObj, kind)
}

// IsCascadable calls f.
func (f Func) IsCascadable(obj interface{}, node *path.Node, rootType reflect.Type, pathToObj *path.Path, kind ElementKind) (bool, error) {
	return f(obj, node, rootType, pathToObj, kind)
}

// Cached returns r wrapped in a fresh Cache, or r itself when it reports
// through CachingHint that caching is unnecessary. A nil r means Always.
func Cached(r Resolver) Resolver {
	if r == nil {
		return Always
	}
	if hint, ok := r.(CachingHint); ok && !hint.NeedsCaching() {
		return r
	}
	return NewCache(r)
}
