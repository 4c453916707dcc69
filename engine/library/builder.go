package library

import (
	"fmt"

	"github.com/oxy-go/animres/common"
	"github.com/oxy-go/animres/engine/curveformat"
	"github.com/oxy-go/animres/engine/errs"
	"github.com/oxy-go/animres/engine/objectpool"
	"github.com/oxy-go/animres/engine/valuepool"
)

// Build validates setup and installs it into the shared clip/curve/key
// pools, following spec.md §4.4 steps 2-6. Locator deduplication (step 1)
// and handle publication (step 7) are the manager's responsibility, since
// they involve the handle pool and resource registry this package does not
// own.
//
// Capacity is checked before any pool is mutated (step 2): on any
// exhaustion error, clipPool, curvePool and values are left exactly as
// they were on entry.
func Build(clipPool *objectpool.Pool[Clip], curvePool *objectpool.Pool[Curve], values *valuepool.ValuePool, setup Setup) (Library, error) {
	if len(setup.CurveLayout) == 0 {
		panic("library: Build requires a non-empty curve layout")
	}
	if len(setup.Clips) == 0 {
		panic("library: Build requires a non-empty clip list")
	}
	for i, cs := range setup.Clips {
		if len(cs.Curves) != len(setup.CurveLayout) {
			return Library{}, fmt.Errorf("%w: clip %d has %d curves, layout has %d", errs.ErrCurveLayoutMismatch, i, len(cs.Curves), len(setup.CurveLayout))
		}
		if cs.Length <= 0 {
			panic(fmt.Sprintf("library: clip %d has non-positive length", i))
		}
	}

	addedClips := len(setup.Clips)
	addedCurves := addedClips * len(setup.CurveLayout)
	addedKeys := 0
	for _, cs := range setup.Clips {
		for i, c := range cs.Curves {
			if !c.Static {
				addedKeys += cs.Length * curveformat.Stride(setup.CurveLayout[i])
			}
		}
	}

	if clipPool.Remaining() < addedClips {
		return Library{}, errs.ErrClipPoolExhausted
	}
	if curvePool.Remaining() < addedCurves {
		return Library{}, errs.ErrCurvePoolExhausted
	}
	if values.NumKeys()+addedKeys > values.KeyCapacity() {
		return Library{}, errs.ErrKeyPoolExhausted
	}

	clipPoolBase := clipPool.Size()
	curvePoolBase := curvePool.Size()
	libKeyBase := values.NumKeys()

	sampleStride := 0
	for _, f := range setup.CurveLayout {
		sampleStride += curveformat.Stride(f)
	}

	for _, cs := range setup.Clips {
		clip := Clip{
			Name:        cs.Name,
			Length:      cs.Length,
			KeyDuration: cs.KeyDuration,
		}

		// curveBase is the curve sub-range's start, computed explicitly
		// rather than read back from the loop index below — see
		// DESIGN.md's note on the source's shadowed-variable bug.
		curveBase := curvePool.Size()
		for i, f := range setup.CurveLayout {
			cset := cs.Curves[i]
			curve := Curve{
				Format:      f,
				Static:      cset.Static,
				StaticValue: cset.StaticValue,
			}
			if cset.Static {
				curve.KeyStride = 0
				curve.KeyIndex = InvalidIndex
			} else {
				curve.KeyStride = curveformat.Stride(f)
				curve.KeyIndex = clip.KeyStride
				clip.KeyStride += curve.KeyStride
			}
			if _, ok := curvePool.Append(curve); !ok {
				panic("library: curve pool exhausted after precheck passed")
			}
		}
		clip.Curves.Offset = curveBase
		clip.Curves.Len = curvePool.Size() - curveBase

		if clip.KeyStride > 0 {
			clipNumKeys := clip.KeyStride * clip.Length
			view, ok := values.ReserveKeys(clipNumKeys)
			if !ok {
				panic("library: key pool exhausted after precheck passed")
			}
			clip.Keys = view
			fillClipDefaults(values, clip, setup.CurveLayout, cs)
		}

		if _, ok := clipPool.Append(clip); !ok {
			panic("library: clip pool exhausted after precheck passed")
		}
	}

	if values.NumKeys() != libKeyBase+addedKeys {
		panic("library: key pool cursor drifted from the precomputed key budget")
	}

	lib := Library{
		Locator:      setup.Locator,
		CurveLayout:  setup.CurveLayout,
		SampleStride: sampleStride,
		Clips:        common.View{Offset: clipPoolBase, Len: clipPool.Size() - clipPoolBase},
		Curves:       common.View{Offset: curvePoolBase, Len: curvePool.Size() - curvePoolBase},
		Keys:         common.View{Offset: libKeyBase, Len: addedKeys},
	}

	return lib, nil
}

// fillClipDefaults writes the per-curve static/default value into every
// keyframe row of clip, in curve-layout order (spec.md §4.4 step 6).
func fillClipDefaults(values *valuepool.ValuePool, clip Clip, layout []curveformat.Format, cs ClipSetup) {
	dst := values.KeySlice(clip.Keys)
	for row := 0; row < clip.Length; row++ {
		rowBase := row * clip.KeyStride
		offset := 0
		for i, f := range layout {
			cset := cs.Curves[i]
			stride := curveformat.Stride(f)
			if cset.Static {
				continue
			}
			for comp := 0; comp < stride; comp++ {
				dst[rowBase+offset+comp] = cset.StaticValue[comp]
			}
			offset += stride
		}
	}
}
