package groups

import (
	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Resolver turns requested groups into evaluation plans.
type Resolver struct {
	registry *Registry
	cache    *SequenceCache
}

// NewResolver creates a resolver over registry. A nil registry or cache is
// replaced by an empty one.
func NewResolver(registry *Registry, cache *SequenceCache) *Resolver {
	if registry == nil {
		registry = NewRegistry()
	}
	if cache == nil {
		cache = NewSequenceCache()
	}
	return &Resolver{registry: registry, cache: cache}
}

// Registry returns the registry the resolver reads declarations from.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// ComputeGroups builds the evaluation plan for gs. No groups, or exactly
// Default, yields DefaultPlan(). A group declaring a sequence becomes one
// sequence step; any other group becomes an independent step followed by
// the groups it extends, depth first. Groups already planned are skipped.
func (r *Resolver) ComputeGroups(gs ...Group) (*Plan, error) {
	if len(gs) == 0 || (len(gs) == 1 && gs[0] == Default) {
		return defaultPlan, nil
	}

	plan := &Plan{}
	independent := make(map[Group]bool)
	sequences := make(map[Group]bool)

	for _, g := range gs {
		if err := checkMarker(g, "groups.ComputeGroups"); err != nil {
			return nil, err
		}

		if _, ok := r.registry.Sequence(g); ok {
			if sequences[g] {
				continue
			}
			seq, err := r.Expand(g)
			if err != nil {
				return nil, err
			}
			sequences[g] = true
			plan.Steps = append(plan.Steps, Step{Group: g, Sequence: seq})
			continue
		}

		r.insertWithParents(plan, g, independent)
	}
	return plan, nil
}

func (r *Resolver) insertWithParents(plan *Plan, g Group, seen map[Group]bool) {
	if seen[g] {
		return
	}
	seen[g] = true
	plan.Steps = append(plan.Steps, Step{Group: g})
	for _, parent := range r.registry.Extends(g) {
		r.insertWithParents(plan, parent, seen)
	}
}

// Expand returns the flattened member list of g's sequence, or g alone when
// g declares none. Expansions are memoized in the resolver's SequenceCache.
func (r *Resolver) Expand(g Group) ([]Group, error) {
	if _, ok := r.registry.Sequence(g); !ok {
		return []Group{g}, nil
	}
	return r.cache.Get(g, func() ([]Group, error) {
		var out []Group
		if err := r.flatten(g, make(map[Group]bool), make(map[Group]bool), &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// flatten appends the leaf groups of g's sequence to out. chain holds the
// sequences currently being expanded; meeting one of them again is a cycle.
func (r *Resolver) flatten(g Group, chain, emitted map[Group]bool, out *[]Group) error {
	chain[g] = true
	defer delete(chain, g)

	members, _ := r.registry.Sequence(g)
	for _, m := range members {
		if chain[m] {
			return bverror.New("cyclic dependency in groups definition").
				WithCode(bverror.CodeGroupCycle).
				WithOperation("groups.Expand").
				WithDetail("group", g.String()).
				WithDetail("member", m.String())
		}
		if _, ok := r.registry.Sequence(m); ok {
			if err := r.flatten(m, chain, emitted, out); err != nil {
				return err
			}
			continue
		}
		if !emitted[m] {
			emitted[m] = true
			*out = append(*out, m)
		}
	}
	return nil
}
