package registry

import (
	"testing"

	"github.com/oxy-go/animres/engine/handle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PushPeekPop(t *testing.T) {
	r := New(2, 8)
	l1 := r.PushLabel()
	assert.Equal(t, l1, r.PeekLabel())

	l2 := r.PushLabel()
	assert.NotEqual(t, l1, l2)
	assert.Equal(t, l2, r.PeekLabel())

	r.PopLabel()
	assert.Equal(t, l1, r.PeekLabel())
}

func TestRegistry_PushLabelPanicsAtCapacity(t *testing.T) {
	r := New(1, 8)
	r.PushLabel()
	assert.Panics(t, func() { r.PushLabel() })
}

func TestRegistry_PopLabelPanicsWhenEmpty(t *testing.T) {
	r := New(1, 8)
	assert.Panics(t, func() { r.PopLabel() })
}

func TestRegistry_AddAndLookup(t *testing.T) {
	r := New(4, 8)
	label := r.PushLabel()
	h := handle.Handle{Type: handle.TypeLibrary, Slot: 1, Generation: 1}

	r.Add("human", h, label)
	got, ok := r.Lookup("human")
	require.True(t, ok)
	assert.Equal(t, h, got)

	_, ok = r.Lookup("nope")
	assert.False(t, ok)
}

func TestRegistry_AddAnonymousNotLookupable(t *testing.T) {
	r := New(4, 8)
	label := r.PushLabel()
	h := handle.Handle{Type: handle.TypeInstance, Slot: 0, Generation: 1}
	r.Add("", h, label)

	_, ok := r.Lookup("")
	assert.False(t, ok)
}

func TestRegistry_RemoveByLabel(t *testing.T) {
	r := New(4, 8)
	l1 := r.PushLabel()
	h1 := handle.Handle{Type: handle.TypeLibrary, Slot: 0, Generation: 1}
	r.Add("lib1", h1, l1)
	r.PopLabel()

	l2 := r.PushLabel()
	h2 := handle.Handle{Type: handle.TypeLibrary, Slot: 1, Generation: 1}
	r.Add("lib2", h2, l2)
	r.PopLabel()

	removed := r.Remove(l1)
	assert.Equal(t, []handle.Handle{h1}, removed)

	_, ok := r.Lookup("lib1")
	assert.False(t, ok)
	got, ok := r.Lookup("lib2")
	require.True(t, ok)
	assert.Equal(t, h2, got)
}

func TestRegistry_RemoveAllSentinel(t *testing.T) {
	r := New(4, 8)
	l1 := r.PushLabel()
	h1 := handle.Handle{Type: handle.TypeLibrary, Slot: 0, Generation: 1}
	r.Add("a", h1, l1)
	r.PopLabel()

	l2 := r.PushLabel()
	h2 := handle.Handle{Type: handle.TypeSkeleton, Slot: 0, Generation: 1}
	r.Add("b", h2, l2)
	r.PopLabel()

	removed := r.Remove(All)
	assert.ElementsMatch(t, []handle.Handle{h1, h2}, removed)

	_, ok := r.Lookup("a")
	assert.False(t, ok)
	_, ok = r.Lookup("b")
	assert.False(t, ok)
}
