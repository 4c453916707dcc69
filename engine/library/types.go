// Package library implements the library builder (spec.md C4): validating
// and laying out an immutable bundle of clips sharing one curve layout on
// top of the shared clip/curve/key pools.
package library

import (
	"github.com/oxy-go/animres/common"
	"github.com/oxy-go/animres/engine/curveformat"
)

// InvalidIndex is the sentinel keyIndex for a static curve (spec.md §6).
const InvalidIndex = -1

// Curve is one channel within a clip: either animated (keyframed, backed by
// a range of the key pool) or static (a constant [4]float32 value, no key
// storage).
type Curve struct {
	Format      curveformat.Format
	Static      bool
	StaticValue [4]float32

	// KeyStride is the number of floats this curve contributes per keyframe
	// row; 0 for a static curve.
	KeyStride int

	// KeyIndex is this curve's component offset within its owning clip's
	// key row; InvalidIndex for a static curve.
	KeyIndex int
}

// Clip is a timeline of Length keyframes for one library's curves.
type Clip struct {
	Name        string
	Length      int
	KeyDuration float32

	// KeyStride is the sum of the strides of this clip's non-static curves.
	KeyStride int

	// Curves is this clip's sub-range of the shared curve pool, in
	// curve-layout order (spec.md invariant 2).
	Curves common.View

	// Keys is this clip's sub-range of the shared key pool. Empty when
	// KeyStride is 0 (every curve is static).
	Keys common.View
}

// Library is a named, immutable bundle of clips sharing one curve layout.
type Library struct {
	Locator      string
	CurveLayout  []curveformat.Format
	SampleStride int

	// Clips, Curves and Keys are this library's sub-ranges of the shared
	// clip, curve and key pools (spec.md invariants 1-3).
	Clips  common.View
	Curves common.View
	Keys   common.View
}

// CurveSetup describes one curve position within a ClipSetup, matching the
// library's curve layout at that index.
type CurveSetup struct {
	Static      bool
	StaticValue [4]float32
}

// ClipSetup describes one clip to install as part of a LibrarySetup.
type ClipSetup struct {
	Name        string
	Length      int
	KeyDuration float32
	Curves      []CurveSetup
}

// Setup is the input to Build: a locator, an ordered non-empty curve
// layout, and a non-empty list of clips, each with one CurveSetup per
// layout position.
type Setup struct {
	Locator     string
	CurveLayout []curveformat.Format
	Clips       []ClipSetup
}
