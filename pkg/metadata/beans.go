package metadata

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Beans is a provider over explicitly registered metamodels. Types it does
// not know are delegated to an optional fallback provider.
type Beans struct {
	mu       sync.RWMutex
	byID     map[string]*MetaBean
	byType   map[reflect.Type]*MetaBean
	fallback Provider
}

// NewBeans creates an empty set delegating unknown types to fallback, which
// may be nil.
func NewBeans(fallback Provider) *Beans {
	return &Beans{
		byID:     make(map[string]*MetaBean),
		byType:   make(map[reflect.Type]*MetaBean),
		fallback: fallback,
	}
}

// Add registers mb under its ID and, when set, its type.
func (b *Beans) Add(mb *MetaBean) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.byID[mb.ID]; ok {
		return bverror.New(fmt.Sprintf("bean %q is already defined", mb.ID)).
			WithCode(bverror.CodeMetadata).
			WithDetail("bean", mb.ID)
	}
	b.byID[mb.ID] = mb
	if mb.Type != nil {
		b.byType[mb.Type] = mb
	}
	return nil
}

// MetaBeanByID returns the bean registered as id.
func (b *Beans) MetaBeanByID(id string) (*MetaBean, error) {
	b.mu.RLock()
	mb, ok := b.byID[id]
	b.mu.RUnlock()
	if ok {
		return mb, nil
	}
	if idp, ok := b.fallback.(IDProvider); ok {
		return idp.MetaBeanByID(id)
	}
	return nil, bverror.New(fmt.Sprintf("unknown bean %q", id)).
		WithCode(bverror.CodeNotFound).
		WithOperation("metadata.MetaBeanByID").
		WithDetail("bean", id)
}

// MetaBeanFor returns the bean registered for t or asks the fallback.
func (b *Beans) MetaBeanFor(t reflect.Type) (*MetaBean, error) {
	b.mu.RLock()
	mb, ok := b.byType[t]
	b.mu.RUnlock()
	if ok {
		return mb, nil
	}
	if b.fallback != nil {
		return b.fallback.MetaBeanFor(t)
	}
	return nil, bverror.New(fmt.Sprintf("no metadata for type %v", t)).
		WithCode(bverror.CodeMetadata).
		WithOperation("metadata.MetaBeanFor")
}

// IDs returns the registered bean ids, sorted.
func (b *Beans) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.byID))
	for id := range b.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
