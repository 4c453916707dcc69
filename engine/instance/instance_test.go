package instance

import (
	"testing"

	"github.com/oxy-go/animres/common"
	"github.com/oxy-go/animres/engine/handle"
	"github.com/stretchr/testify/assert"
)

func TestNew_BindsLibraryAndOptionalSkeleton(t *testing.T) {
	lib := handle.Handle{Type: handle.TypeLibrary, Slot: 1, Generation: 1}

	withSkel := New(lib, handle.Handle{Type: handle.TypeSkeleton, Slot: 0, Generation: 1})
	assert.True(t, withSkel.HasSkeleton())

	withoutSkel := New(lib, handle.Invalid)
	assert.False(t, withoutSkel.HasSkeleton())
	assert.NotNil(t, withoutSkel.Sequencer, "every instance must carry its own sequencer, never nil")
}

func TestResetFrame_ClearsFrameScopedViews(t *testing.T) {
	inst := New(handle.Handle{Type: handle.TypeLibrary, Slot: 0, Generation: 1}, handle.Invalid)
	inst.Samples = common.View{Offset: 4, Len: 9}
	inst.SkinMatrices = common.View{Offset: 2, Len: 6}

	inst.ResetFrame()

	assert.Equal(t, common.View{}, inst.Samples)
	assert.Equal(t, common.View{}, inst.SkinMatrices)
}

func TestNew_EachInstanceGetsAnIndependentSequencer(t *testing.T) {
	lib := handle.Handle{Type: handle.TypeLibrary, Slot: 0, Generation: 1}
	a := New(lib, handle.Invalid)
	b := New(lib, handle.Invalid)
	assert.NotSame(t, a.Sequencer, b.Sequencer)
}
