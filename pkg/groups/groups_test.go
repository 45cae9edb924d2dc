package groups

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

type (
	Insert   interface{}
	Update   interface{}
	Basic    interface{}
	Extended interface{}
	Ordered  interface{}
	CycleA   interface{}
	CycleB   interface{}
)

type notAnInterface struct{}

func TestDefaultPlanIsSingleton(t *testing.T) {
	r := NewResolver(nil, nil)

	empty, err := r.ComputeGroups()
	require.NoError(t, err)
	explicit, err := r.ComputeGroups(Default)
	require.NoError(t, err)

	assert.Same(t, empty, explicit)
	assert.Same(t, DefaultPlan(), empty)
	assert.True(t, empty.IsDefault())
	assert.Equal(t, []Group{Default}, empty.Groups())

	other, err := NewResolver(nil, nil).ComputeGroups()
	require.NoError(t, err)
	assert.Same(t, empty, other)
}

func TestGroupIdentity(t *testing.T) {
	assert.Equal(t, Of[Insert](), Of[Insert]())
	assert.NotEqual(t, Of[Insert](), Of[Update]())
	assert.Equal(t, Default, Of[DefaultMarker]())
	assert.Equal(t, Default, Named("Default"))
	assert.Equal(t, "Insert", Of[Insert]().Name())
	assert.Equal(t, "github.com/msto63/beanval/pkg/groups.Insert", Of[Insert]().String())
	assert.True(t, Named("Audit").IsMarker())
	assert.False(t, ForType(reflect.TypeOf(notAnInterface{})).IsMarker())
	assert.False(t, Group{}.IsMarker())
}

func TestNonMarkerGroupIsRejected(t *testing.T) {
	r := NewResolver(nil, nil)

	_, err := r.ComputeGroups(ForType(reflect.TypeOf(notAnInterface{})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a group must be an interface")
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidGroup))

	_, err = r.ComputeGroups(Group{})
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidGroup))
}

func TestIndependentGroupsWithInheritance(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.DefineExtends(Of[Extended](), Of[Basic](), Default))
	require.NoError(t, reg.DefineExtends(Of[Basic](), Of[Insert]()))
	r := NewResolver(reg, nil)

	plan, err := r.ComputeGroups(Of[Extended](), Of[Insert]())
	require.NoError(t, err)

	assert.Equal(t, []Group{Of[Extended](), Of[Basic](), Of[Insert](), Default}, plan.Groups())
	for _, step := range plan.Steps {
		assert.False(t, step.IsSequence())
	}
}

func TestSequenceBecomesOneStep(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.DefineSequence(Of[Ordered](), Default, Of[Insert](), Of[Update]()))
	r := NewResolver(reg, nil)

	plan, err := r.ComputeGroups(Of[Ordered](), Of[Basic](), Of[Ordered]())
	require.NoError(t, err)

	require.Len(t, plan.Steps, 2)
	assert.True(t, plan.Steps[0].IsSequence())
	assert.Equal(t, []Group{Default, Of[Insert](), Of[Update]()}, plan.Steps[0].Sequence)
	assert.Equal(t, Of[Basic](), plan.Steps[1].Group)
	assert.Contains(t, plan.String(), "->")
}

func TestNestedSequencesFlatten(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.DefineSequence(Of[Basic](), Of[Insert](), Of[Update]()))
	require.NoError(t, reg.DefineSequence(Of[Ordered](), Default, Of[Basic](), Of[Insert]()))
	r := NewResolver(reg, nil)

	seq, err := r.Expand(Of[Ordered]())
	require.NoError(t, err)
	assert.Equal(t, []Group{Default, Of[Insert](), Of[Update]()}, seq)

	single, err := r.Expand(Of[Update]())
	require.NoError(t, err)
	assert.Equal(t, []Group{Of[Update]()}, single)
}

func TestCyclicSequenceIsRejected(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.DefineSequence(Of[CycleA](), Of[Insert](), Of[CycleB]()))
	require.NoError(t, reg.DefineSequence(Of[CycleB](), Of[CycleA]()))
	r := NewResolver(reg, nil)

	_, err := r.ComputeGroups(Of[CycleA]())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic")
	assert.True(t, bverror.HasCode(err, bverror.CodeGroupCycle))

	require.NoError(t, reg.DefineSequence(Of[Ordered](), Of[Ordered]()))
	_, err = r.ComputeGroups(Of[Ordered]())
	assert.True(t, bverror.HasCode(err, bverror.CodeGroupCycle))
}

func TestDefineSequenceRejectsDefault(t *testing.T) {
	reg := NewRegistry()
	err := reg.DefineSequence(Default, Of[Insert]())
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidSequence))

	err = reg.DefineSequence(Of[Ordered]())
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidSequence))
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Named("Audit")))
	require.NoError(t, reg.Register(Named("Audit")))

	g, ok := reg.Lookup("Audit")
	require.True(t, ok)
	assert.Equal(t, Named("Audit"), g)

	g, ok = reg.Lookup("Default")
	require.True(t, ok)
	assert.Equal(t, Default, g)

	err := reg.Register(Of[Insert]())
	require.NoError(t, err)
	err = reg.Register(Named("Insert"))
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidGroup))
}

func TestSequenceCacheComputesOnce(t *testing.T) {
	cache := NewSequenceCache()
	var mu sync.Mutex
	calls := 0
	resolve := func() ([]Group, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return []Group{Default, Of[Insert]()}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := cache.Get(Of[Ordered](), resolve)
			assert.NoError(t, err)
			assert.Len(t, seq, 2)
		}()
	}
	wg.Wait()

	_, _ = cache.Get(Of[Ordered](), resolve)
	assert.Equal(t, 1, calls)

	cache.Reset()
	_, _ = cache.Get(Of[Ordered](), resolve)
	assert.Equal(t, 2, calls)
}

func TestSequenceCacheDoesNotStoreErrors(t *testing.T) {
	cache := NewSequenceCache()
	boom := errors.New("boom")

	_, err := cache.Get(Of[Ordered](), func() ([]Group, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	seq, err := cache.Get(Of[Ordered](), func() ([]Group, error) { return []Group{Default}, nil })
	require.NoError(t, err)
	assert.Equal(t, []Group{Default}, seq)
}
