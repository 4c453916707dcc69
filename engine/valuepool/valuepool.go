// Package valuepool implements the single flat float buffer split into a key
// region and a sample region (spec.md C1). The key region holds packed
// keyframe data for every live library; the sample region is scratch space
// claimed per-frame by active instances.
package valuepool

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/oxy-go/animres/common"
)

// ValuePool is one allocation of keyCapacity+sampleCapacity floats, fixed at
// construction. Keys occupy [0, keyCapacity); samples occupy
// [keyCapacity, keyCapacity+sampleCapacity). Views returned by this package
// are relative to their own region, not the backing buffer, matching the
// offsets a caller observes in library.Keys / instance.Samples.
type ValuePool struct {
	buf            []float32
	keyCapacity    int
	sampleCapacity int
	numKeys        int
}

// New allocates a ValuePool with the given region capacities.
func New(keyCapacity, sampleCapacity int) *ValuePool {
	return &ValuePool{
		buf:            make([]float32, keyCapacity+sampleCapacity),
		keyCapacity:    keyCapacity,
		sampleCapacity: sampleCapacity,
	}
}

// KeyCapacity returns the fixed size of the key region in floats.
func (p *ValuePool) KeyCapacity() int {
	return p.keyCapacity
}

// SampleCapacity returns the fixed size of the sample region in floats.
func (p *ValuePool) SampleCapacity() int {
	return p.sampleCapacity
}

// NumKeys returns the length of the key region's live prefix.
func (p *ValuePool) NumKeys() int {
	return p.numKeys
}

// ReserveKeys grows the live key prefix by count floats, returning a view
// over the newly reserved range. Fails if doing so would exceed
// KeyCapacity; callers are expected to precheck capacity (spec.md §4.4
// step 2) before calling this.
func (p *ValuePool) ReserveKeys(count int) (common.View, bool) {
	if p.numKeys+count > p.keyCapacity {
		return common.View{}, false
	}
	v := common.View{Offset: p.numKeys, Len: count}
	p.numKeys += count
	return v, true
}

// KeySlice resolves a key-region view to the backing float slice.
func (p *ValuePool) KeySlice(v common.View) []float32 {
	return p.buf[v.Offset : v.Offset+v.Len]
}

// SampleSlice resolves a sample-region view to the backing float slice.
func (p *ValuePool) SampleSlice(v common.View) []float32 {
	base := p.keyCapacity
	return p.buf[base+v.Offset : base+v.Offset+v.Len]
}

// EraseKeys removes the [offset, offset+length) range from the key region,
// shifting the tail down and shrinking NumKeys. A zero-length range is a
// no-op (spec.md §4.7 edge case (a)).
func (p *ValuePool) EraseKeys(offset, length int) {
	if length == 0 {
		return
	}
	base := 0
	end := offset + length
	copy(p.buf[base+offset:base+p.numKeys-length], p.buf[base+end:base+p.numKeys])
	p.numKeys -= length
}

// WriteKeys overwrites the key-region bytes covered by v with data,
// interpreted as packed little-endian-native float32 values. The byte
// count of data must equal v.Len*4 exactly (spec.md §7); any mismatch is a
// contract violation reported as an error rather than silently truncated or
// padded, since writeKeys is meant to be called with a buffer sized by the
// caller from the same view.
func (p *ValuePool) WriteKeys(v common.View, data []byte) error {
	const floatSize = 4
	want := v.Len * floatSize
	if len(data) != want {
		return fmt.Errorf("valuepool: WriteKeys expects %d bytes for view of %d floats, got %d", want, v.Len, len(data))
	}
	dst := p.KeySlice(v)
	for i := range dst {
		bits := binary.LittleEndian.Uint32(data[i*floatSize:])
		dst[i] = math.Float32frombits(bits)
	}
	return nil
}
