package sequencer

import (
	"testing"

	"github.com/oxy-go/animres/engine/curveformat"
	"github.com/oxy-go/animres/engine/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticClip(value float32) ClipRef {
	return ClipRef{
		Curves: []library.Curve{
			{Format: curveformat.Float1, Static: true, StaticValue: [4]float32{value}},
		},
		Length: 1,
	}
}

func animatedClip(rows ...float32) ClipRef {
	return ClipRef{
		Curves: []library.Curve{
			{Format: curveformat.Float1, Static: false, KeyStride: 1, KeyIndex: 0},
		},
		Keys:        rows,
		Length:      len(rows),
		KeyStride:   1,
		KeyDuration: 1,
	}
}

func TestAdd_AcceptsFirstJobOnEmptyTrack(t *testing.T) {
	s := New()
	id := s.NextID()
	ok := s.Add(0, id, Job{Priority: 1, Track: 0, Clip: staticClip(1)}, 10)
	assert.True(t, ok)
}

func TestAdd_RejectsLowerPriorityPreemption(t *testing.T) {
	s := New()
	id1 := s.NextID()
	require.True(t, s.Add(0, id1, Job{Priority: 5, Track: 0, Clip: staticClip(1)}, 10))

	id2 := s.NextID()
	ok := s.Add(1, id2, Job{Priority: 3, Track: 0, Clip: staticClip(2)}, 10)
	assert.False(t, ok, "a lower-priority job must not preempt a live higher-priority job on the same track")

	out := make([]float32, 1)
	s.Eval(1, out)
	assert.Equal(t, float32(1), out[0], "the original job must still be the one sampled")
}

func TestAdd_EqualOrHigherPriorityPreempts(t *testing.T) {
	s := New()
	id1 := s.NextID()
	require.True(t, s.Add(0, id1, Job{Priority: 5, Track: 0, Clip: staticClip(1)}, 10))

	id2 := s.NextID()
	ok := s.Add(1, id2, Job{Priority: 5, Track: 0, Clip: staticClip(2)}, 10)
	assert.True(t, ok, "equal priority must be allowed to preempt")

	out := make([]float32, 1)
	s.Eval(1, out)
	assert.Equal(t, float32(2), out[0])
}

func TestNextID_MonotonicAndSkipsInvalid(t *testing.T) {
	s := New()
	var base JobID = InvalidJobID
	s.nextID = base - 1

	first := s.NextID()
	assert.NotEqual(t, InvalidJobID, first)

	second := s.NextID()
	assert.NotEqual(t, InvalidJobID, second, "NextID must never hand out the zero sentinel, even across a wrap")
	assert.NotEqual(t, first, second)
}

func TestStop_WithoutFadeOutIsImmediatelyCollectible(t *testing.T) {
	s := New()
	id := s.NextID()
	s.Add(0, id, Job{Priority: 1, Track: 0, FadeOut: 5, Clip: staticClip(1)}, 10)

	s.Stop(1, id, false)
	s.GarbageCollect(1)

	out := make([]float32, 1)
	s.Eval(1, out)
	assert.Equal(t, float32(0), out[0], "stopping without fade-out must silence the job immediately")
}

func TestStop_WithFadeOutRampsThenCollects(t *testing.T) {
	s := New()
	id := s.NextID()
	s.Add(0, id, Job{Priority: 1, Track: 0, FadeOut: 2, Clip: staticClip(4)}, 100)

	s.Stop(10, id, true)

	out := make([]float32, 1)
	s.Eval(11, out) // 1s into a 2s fade: weight 0.5
	assert.InDelta(t, 2, out[0], 1e-6)

	s.GarbageCollect(13) // 3s past stop > 2s fade
	s.Eval(13, out)
	assert.Equal(t, float32(0), out[0])
}

func TestStopTrack_EndsCurrentJobOnTrack(t *testing.T) {
	s := New()
	id := s.NextID()
	s.Add(0, id, Job{Priority: 1, Track: 2, Clip: staticClip(1)}, 10)

	s.StopTrack(0, 2, false)
	s.GarbageCollect(0)

	out := make([]float32, 1)
	s.Eval(0, out)
	assert.Equal(t, float32(0), out[0])
}

func TestStopAll_EndsEveryTrack(t *testing.T) {
	s := New()
	id1 := s.NextID()
	id2 := s.NextID()
	s.Add(0, id1, Job{Priority: 1, Track: 0, Clip: staticClip(1)}, 10)
	s.Add(0, id2, Job{Priority: 1, Track: 1, Clip: staticClip(2)}, 10)

	s.StopAll(0, false)
	s.GarbageCollect(0)

	out := make([]float32, 1)
	s.Eval(0, out)
	assert.Equal(t, float32(0), out[0])
}

func TestEval_BlendsTwoTracksByWeightedAverage(t *testing.T) {
	s := New()
	id1 := s.NextID()
	id2 := s.NextID()
	s.Add(0, id1, Job{Priority: 1, Track: 0, Clip: staticClip(10)}, 100)
	s.Add(0, id2, Job{Priority: 1, Track: 1, Clip: staticClip(20)}, 100)

	out := make([]float32, 1)
	s.Eval(0, out)
	assert.Equal(t, float32(15), out[0], "two full-weight tracks must normalize to their average")
}

func TestEval_FadeInRampsWeightFromZero(t *testing.T) {
	s := New()
	id := s.NextID()
	s.Add(0, id, Job{Priority: 1, Track: 0, FadeIn: 2, Clip: staticClip(8)}, 100)

	out := make([]float32, 1)
	s.Eval(0, out)
	assert.Equal(t, float32(0), out[0], "at t=0 a fade-in job contributes zero weight")

	s.Eval(1, out)
	assert.InDelta(t, 4, out[0], 1e-6, "halfway through a 2s fade-in the job is at half weight")

	s.Eval(2, out)
	assert.Equal(t, float32(8), out[0], "after the fade-in window the job is at full weight")
}

func TestEval_LoopingJobWrapsLocalTime(t *testing.T) {
	s := New()
	id := s.NextID()
	clip := animatedClip(1, 2, 3)
	s.Add(0, id, Job{Priority: 1, Track: 0, Loop: true, Clip: clip}, 3)

	out := make([]float32, 1)
	s.Eval(3, out) // wraps exactly to local time 0 -> row 0
	assert.Equal(t, float32(1), out[0])

	s.Eval(4, out) // local time 1 -> row 1
	assert.Equal(t, float32(2), out[0])
}

func TestEval_NonLoopingJobSamplesLastRowBeforeDuration(t *testing.T) {
	s := New()
	id := s.NextID()
	clip := animatedClip(1, 2, 3)
	s.Add(0, id, Job{Priority: 1, Track: 0, Loop: false, Clip: clip}, 3)

	out := make([]float32, 1)
	s.Eval(2.9, out)
	assert.Equal(t, float32(3), out[0])
}

func TestGarbageCollect_RemovesNonLoopingJobPastDuration(t *testing.T) {
	s := New()
	id := s.NextID()
	s.Add(0, id, Job{Priority: 1, Track: 0, Loop: false, Clip: staticClip(1)}, 5)

	s.GarbageCollect(4.99)
	out := make([]float32, 1)
	s.Eval(4.99, out)
	assert.Equal(t, float32(1), out[0], "must still be alive just before its duration elapses")

	s.GarbageCollect(5.01)
	s.Eval(5.01, out)
	assert.Equal(t, float32(0), out[0], "must be collected once its duration has elapsed")
}
