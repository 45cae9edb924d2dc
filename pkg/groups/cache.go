package groups

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// SequenceCache memoizes flattened group sequences. It is safe for
// concurrent use and meant to be shared by every validation that uses the
// same Registry. Entries stay valid as long as the registry's sequence
// definitions do not change; call Reset after redefining a sequence.
type SequenceCache struct {
	entries sync.Map // Group -> []Group
	flight  singleflight.Group
}

// NewSequenceCache creates an empty cache.
func NewSequenceCache() *SequenceCache {
	return &SequenceCache{}
}

// Get returns the memoized expansion of g, computing it with resolve on a
// miss. Concurrent misses for the same group share one computation. Errors
// are not cached.
func (c *SequenceCache) Get(g Group, resolve func() ([]Group, error)) ([]Group, error) {
	if v, ok := c.entries.Load(g); ok {
		return v.([]Group), nil
	}

	v, err, _ := c.flight.Do(g.key(), func() (interface{}, error) {
		if v, ok := c.entries.Load(g); ok {
			return v, nil
		}
		seq, err := resolve()
		if err != nil {
			return nil, err
		}
		c.entries.Store(g, seq)
		return seq, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Group), nil
}

// Reset drops every memoized sequence.
func (c *SequenceCache) Reset() {
	c.entries.Range(func(k, _ interface{}) bool {
		c.entries.Delete(k)
		return true
	})
}
