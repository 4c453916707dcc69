// Package instance defines the playback-state resource (spec.md C6):
// a library binding, an optional skeleton binding, an embedded sequencer,
// and the two frame-scoped views the manager's frame loop assigns into.
package instance

import (
	"github.com/oxy-go/animres/common"
	"github.com/oxy-go/animres/engine/handle"
	"github.com/oxy-go/animres/engine/sequencer"
)

// Instance is playback state bound to a library and an optional skeleton.
// Samples is assigned when AddActiveInstance registers this instance for
// the open frame and stays set until the next NewFrame (or the instance's
// destruction) clears it; an instance that was not made active holds the
// zero View. SkinMatrices is cleared alongside Samples but nothing in this
// module assigns it.
type Instance struct {
	Library  handle.Handle
	Skeleton handle.Handle

	Sequencer *sequencer.Sequencer

	Samples      common.View
	SkinMatrices common.View
}

// New constructs an Instance bound to library and, optionally, skeleton
// (handle.Invalid if this instance carries no skeleton).
func New(library, skeleton handle.Handle) *Instance {
	return &Instance{
		Library:   library,
		Skeleton:  skeleton,
		Sequencer: sequencer.New(),
	}
}

// HasSkeleton reports whether this instance is bound to a skeleton.
func (i *Instance) HasSkeleton() bool {
	return i.Skeleton.Valid()
}

// ResetFrame clears the instance's frame-scoped views. Called by the
// manager at the start of NewFrame for instances active in the previous
// frame, and when the instance itself is destroyed (spec.md §4.7).
func (i *Instance) ResetFrame() {
	i.Samples = common.View{}
	i.SkinMatrices = common.View{}
}
