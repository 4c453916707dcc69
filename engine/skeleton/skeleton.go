// Package skeleton implements the skeleton builder (spec.md C5): installing
// bind/inverse-bind matrices and parent-index topology on top of the shared
// matrix pool.
package skeleton

import (
	"github.com/oxy-go/animres/common"
	"github.com/oxy-go/animres/engine/errs"
	"github.com/oxy-go/animres/engine/objectpool"
)

// Skeleton is a bone hierarchy: a bind pose, its inverse, and a parent index
// per bone.
type Skeleton struct {
	Name      string
	BoneCount int

	// Matrices is the full 2N range in the shared matrix pool: bind poses
	// followed by inverse-bind poses. BindPose and InvBindPose are the two
	// overlapping halves.
	Matrices    common.View
	BindPose    common.View
	InvBindPose common.View

	// ParentIndices maps bone index to parent bone index, or -1 for roots.
	ParentIndices []int32
}

// BoneSetup describes one bone to install as part of a Setup.
type BoneSetup struct {
	BindPose        common.Matrix
	InverseBindPose common.Matrix
	ParentIndex     int32
}

// Setup is the input to Build.
type Setup struct {
	Name  string
	Bones []BoneSetup
}

// Build validates setup and installs it into the shared matrix pool,
// following spec.md §4.5. Capacity is checked before any mutation: on
// ErrMatrixPoolExhausted, matrixPool is left exactly as it was on entry.
func Build(matrixPool *objectpool.Pool[common.Matrix], setup Setup) (Skeleton, error) {
	if len(setup.Bones) == 0 {
		panic("skeleton: Build requires a non-empty bone list")
	}

	n := len(setup.Bones)
	if matrixPool.Remaining() < 2*n {
		return Skeleton{}, errs.ErrMatrixPoolExhausted
	}

	base := matrixPool.Size()
	for _, b := range setup.Bones {
		if _, ok := matrixPool.Append(b.BindPose); !ok {
			panic("skeleton: matrix pool exhausted after precheck passed")
		}
	}
	for _, b := range setup.Bones {
		if _, ok := matrixPool.Append(b.InverseBindPose); !ok {
			panic("skeleton: matrix pool exhausted after precheck passed")
		}
	}

	parents := make([]int32, n)
	for i, b := range setup.Bones {
		parents[i] = b.ParentIndex
	}

	return Skeleton{
		Name:          setup.Name,
		BoneCount:     n,
		Matrices:      common.View{Offset: base, Len: 2 * n},
		BindPose:      common.View{Offset: base, Len: n},
		InvBindPose:   common.View{Offset: base + n, Len: n},
		ParentIndices: parents,
	}, nil
}
