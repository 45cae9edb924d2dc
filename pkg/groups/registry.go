package groups

import (
	"fmt"
	"sync"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Registry holds group declarations: the sequence a group stands for and
// the groups it extends. Go interfaces cannot be inspected for the
// interfaces they embed, so inheritance is declared here explicitly.
type Registry struct {
	mu        sync.RWMutex
	sequences map[Group][]Group
	extends   map[Group][]Group
	names     map[string]Group
}

// NewRegistry creates a registry that knows the Default group.
func NewRegistry() *Registry {
	r := &Registry{
		sequences: make(map[Group][]Group),
		extends:   make(map[Group][]Group),
		names:     make(map[string]Group),
	}
	r.names[Default.name] = Default
	return r
}

// Register makes g resolvable by name through Lookup.
func (r *Registry) Register(g Group) error {
	if err := checkMarker(g, "groups.Register"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.names[g.name]; ok && existing != g {
		return bverror.New(fmt.Sprintf("group name %q is already registered for %s", g.name, existing)).
			WithCode(bverror.CodeInvalidGroup).
			WithOperation("groups.Register")
	}
	r.names[g.name] = g
	return nil
}

// Lookup returns the group registered under name.
func (r *Registry) Lookup(name string) (Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.names[name]
	return g, ok
}

// DefineSequence declares that requesting g means validating members in
// order, stopping at the first member that reports violations. Members may
// themselves be sequences. Default cannot be redefined here; beans redefine
// it through their metadata.
func (r *Registry) DefineSequence(g Group, members ...Group) error {
	if err := checkMarker(g, "groups.DefineSequence"); err != nil {
		return err
	}
	if g == Default {
		return bverror.New("the Default group sequence is defined per bean").
			WithCode(bverror.CodeInvalidSequence).
			WithOperation("groups.DefineSequence")
	}
	if len(members) == 0 {
		return bverror.New(fmt.Sprintf("group sequence %s has no members", g)).
			WithCode(bverror.CodeInvalidSequence).
			WithOperation("groups.DefineSequence")
	}
	for _, m := range members {
		if err := checkMarker(m, "groups.DefineSequence"); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequences[g] = append([]Group(nil), members...)
	r.names[g.name] = g
	return nil
}

// DefineExtends declares that g inherits parents. Requesting g also
// validates the parents as independent groups.
func (r *Registry) DefineExtends(g Group, parents ...Group) error {
	if err := checkMarker(g, "groups.DefineExtends"); err != nil {
		return err
	}
	for _, p := range parents {
		if err := checkMarker(p, "groups.DefineExtends"); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.extends[g] = append(r.extends[g], parents...)
	r.names[g.name] = g
	return nil
}

// Sequence returns the declared members of g.
func (r *Registry) Sequence(g Group) ([]Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seq, ok := r.sequences[g]
	return seq, ok
}

// Extends returns the declared parents of g.
func (r *Registry) Extends(g Group) []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.extends[g]
}

func checkMarker(g Group, op string) error {
	if g.IsMarker() {
		return nil
	}
	name := g.String()
	if g.IsZero() {
		name = "<nil>"
	}
	return bverror.New("a group must be an interface").
		WithCode(bverror.CodeInvalidGroup).
		WithOperation(op).
		WithDetail("group", name)
}
