// Package common contains the small value types shared across the resource
// manager's pools and builders. They are plain structs, not interface-wrapped
// types — the same convention the rest of this module's pools follow for
// low-level, performance-sensitive data.
package common

// View is an offset/length pair describing a contiguous sub-range of some
// pool (the key/sample regions of the value pool, or the clip/curve/matrix
// object pools). A View does not carry a reference to its backing storage;
// callers resolve it against the pool it was produced from.
type View struct {
	Offset int
	Len    int
}

// End returns the exclusive end of the view's range.
func (v View) End() int {
	return v.Offset + v.Len
}

// Empty reports whether the view covers zero elements.
func (v View) Empty() bool {
	return v.Len == 0
}

// SubSlice returns a narrower view covering [offset, offset+length) relative
// to the start of v. The caller is responsible for ensuring offset+length
// does not exceed v.Len.
func (v View) SubSlice(offset, length int) View {
	return View{Offset: v.Offset + offset, Len: length}
}

// FillGap adjusts v in place to account for a [gapOffset, gapOffset+gapLen)
// range having been erased from the pool v is a view into.
//
//   - If v ends at or before the gap, it is unaffected.
//   - If v begins at or after the gap's end, it shifts down by gapLen.
//   - If v overlaps the gap, v is the range being erased (or part of it);
//     the result is unspecified. Callers must only call FillGap on views
//     belonging to resources that survive the erase — the manager excludes
//     a resource from the fixup pass once its own handle has been freed.
func (v *View) FillGap(gapOffset, gapLen int) {
	if v.End() <= gapOffset {
		return
	}
	if v.Offset >= gapOffset+gapLen {
		v.Offset -= gapLen
		return
	}
	// Overlapping an erased range: left unspecified per contract above.
}
