package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_AllocAssignLookup(t *testing.T) {
	p := Setup[string](TypeLibrary, 2)
	h := p.AllocId()
	require.True(t, h.Valid())

	_, ok := p.Lookup(h)
	assert.False(t, ok, "a handle in state Setup must not resolve until Assign+UpdateState to Valid")

	p.Assign(h, StateSetup, "hello")
	p.UpdateState(h, StateValid)

	v, ok := p.Lookup(h)
	require.True(t, ok)
	assert.Equal(t, "hello", *v)
}

func TestPool_AllocIdExhaustion(t *testing.T) {
	p := Setup[int](TypeInstance, 1)
	h := p.AllocId()
	require.True(t, h.Valid())

	h2 := p.AllocId()
	assert.Equal(t, Invalid, h2)
}

func TestPool_UnassignBumpsGeneration(t *testing.T) {
	p := Setup[int](TypeSkeleton, 1)
	h := p.AllocId()
	p.Assign(h, StateValid, 7)

	p.Unassign(h)
	_, ok := p.Lookup(h)
	assert.False(t, ok, "a stale handle must not resolve after Unassign")

	h2 := p.AllocId()
	assert.Equal(t, h.Slot, h2.Slot, "the freed slot is reused")
	assert.NotEqual(t, h.Generation, h2.Generation, "generation must bump so the old handle stays stale")

	p.Assign(h2, StateValid, 9)
	_, ok = p.Lookup(h)
	assert.False(t, ok, "the old handle must never resolve again even after the slot is reused")
}

func TestPool_LookupRejectsWrongType(t *testing.T) {
	p := Setup[int](TypeLibrary, 1)
	h := p.AllocId()
	p.Assign(h, StateValid, 1)

	wrongType := h
	wrongType.Type = TypeSkeleton
	_, ok := p.Lookup(wrongType)
	assert.False(t, ok)
}

func TestPool_SlotValueBypassesHandleValidation(t *testing.T) {
	p := Setup[int](TypeLibrary, 2)
	h := p.AllocId()
	p.Assign(h, StateValid, 123)

	v, ok := p.SlotValue(int(h.Slot))
	require.True(t, ok)
	assert.Equal(t, 123, *v)

	assert.Equal(t, int(h.Slot), p.LastAllocatedSlot())
}

func TestPool_QueryPoolInfo(t *testing.T) {
	p := Setup[int](TypeLibrary, 4)
	h1 := p.AllocId()
	p.Assign(h1, StateValid, 1)
	h2 := p.AllocId()
	p.Assign(h2, StateValid, 2)
	p.Unassign(h1)

	info := p.QueryPoolInfo()
	assert.Equal(t, 4, info.Capacity)
	assert.Equal(t, 1, info.LiveCount)
	assert.Equal(t, 2, info.HighWaterMark)
}
