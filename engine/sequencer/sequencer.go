// Package sequencer implements the per-instance job scheduler spec.md
// embeds inside every Instance (spec.md C9, Design Note "Sequencer
// opacity"). spec.md deliberately treats the sequencer's internal mixing
// math as out of scope, described only by its observable contract
// (garbageCollect, eval, add, stop, stopTrack, stopAll); this is one
// concrete, deterministic implementation of that contract.
package sequencer

import (
	"math"

	"github.com/oxy-go/animres/engine/curveformat"
	"github.com/oxy-go/animres/engine/library"
)

// JobID identifies one play() call on a Sequencer. Values are minted
// monotonically per Sequencer and wrap-safe around zero, which is reserved
// as InvalidJobID.
type JobID uint64

// InvalidJobID is returned by Play when insertion is rejected.
const InvalidJobID JobID = 0

// ClipRef is a self-contained snapshot of the curve definitions and key
// data a Job samples from, captured once at Play time so the Sequencer
// never has to reach back into the shared object/value pools (which may be
// compacted between frames).
type ClipRef struct {
	Curves      []library.Curve
	Keys        []float32
	Length      int
	KeyStride   int
	KeyDuration float32
}

// Job is a play request on an instance's sequencer.
type Job struct {
	// Priority gates preemption: a new job on an already-occupied track is
	// only accepted if its Priority is >= the current job's Priority.
	Priority int
	// Track groups concurrently-playing jobs for StopTrack addressing.
	Track int
	// FadeIn is the ramp, in seconds, over which this job's weight rises
	// from 0 to 1 after it starts, whether or not another job preceded it
	// on the track.
	FadeIn float64
	// FadeOut is the ramp, in seconds, over which this job's weight falls
	// to 0 after it is stopped with allowFadeOut. A job replaced on its
	// track by a newer job stops contributing at once; it is not faded out.
	FadeOut float64
	Loop    bool
	Clip    ClipRef
}

type activeJob struct {
	id        JobID
	job       Job
	startTime float64
	duration  float64

	stopping bool
	stopTime float64
}

// weight returns this job's current contribution weight in [0,1] and
// whether it is still alive (weight can be 0 while alive, e.g. at the very
// start of a fade-in). A dead job (weight 0 and no chance of reviving) is
// eligible for garbage collection.
func (aj *activeJob) weight(curTime float64) (w float64, alive bool) {
	t := curTime - aj.startTime

	if !aj.job.Loop && !aj.stopping && t >= aj.duration {
		return 0, false
	}

	w = 1
	if aj.job.FadeIn > 0 && t < aj.job.FadeIn {
		w = t / aj.job.FadeIn
	}

	if aj.stopping {
		elapsed := curTime - aj.stopTime
		if aj.job.FadeOut <= 0 || elapsed >= aj.job.FadeOut {
			return 0, false
		}
		fade := 1 - elapsed/aj.job.FadeOut
		if fade < w {
			w = fade
		}
	}

	return w, true
}

// localTime returns the point within the clip's timeline this job is
// currently sampling, accounting for looping and end-of-clip hold.
func (aj *activeJob) localTime(curTime float64) float64 {
	t := curTime - aj.startTime
	if aj.duration <= 0 {
		return 0
	}
	if aj.job.Loop {
		return math.Mod(t, aj.duration)
	}
	if t > aj.duration {
		return aj.duration
	}
	return t
}

type track struct {
	current *activeJob
}

// Sequencer is the per-instance, embedded job scheduler. The zero value is
// not usable; construct with New.
type Sequencer struct {
	nextID JobID
	byID   map[JobID]*activeJob
	tracks map[int]*track
}

// New constructs an empty Sequencer.
func New() *Sequencer {
	return &Sequencer{
		nextID: 1,
		byID:   make(map[JobID]*activeJob),
		tracks: make(map[int]*track),
	}
}

// Add attempts to insert job as the new current job on its track, computing
// its end-of-life from duration. It fails (returning false, no state
// change) if the track's current job is alive, has a non-zero weight at
// curTime, and has a strictly higher priority.
func (s *Sequencer) Add(curTime float64, id JobID, job Job, duration float64) bool {
	t := s.trackFor(job.Track)
	if t.current != nil {
		if w, alive := t.current.weight(curTime); alive && w > 0 && job.Priority < t.current.job.Priority {
			return false
		}
	}

	aj := &activeJob{id: id, job: job, startTime: curTime, duration: duration}
	s.byID[id] = aj
	t.current = aj
	return true
}

// NextID mints the next monotonic JobID, skipping InvalidJobID on wrap.
func (s *Sequencer) NextID() JobID {
	id := s.nextID
	s.nextID++
	if s.nextID == InvalidJobID {
		s.nextID++
	}
	return id
}

// Stop ends the job identified by id. If allowFadeOut, the job's weight
// ramps to zero over its own FadeOut before garbage collection removes it;
// otherwise it is removed on the next GarbageCollect call regardless of
// FadeOut.
func (s *Sequencer) Stop(curTime float64, id JobID, allowFadeOut bool) {
	aj, ok := s.byID[id]
	if !ok {
		return
	}
	s.stopJob(aj, curTime, allowFadeOut)
}

// StopTrack ends whichever job is current on track.
func (s *Sequencer) StopTrack(curTime float64, trackIndex int, allowFadeOut bool) {
	t, ok := s.tracks[trackIndex]
	if !ok || t.current == nil {
		return
	}
	s.stopJob(t.current, curTime, allowFadeOut)
}

// StopAll ends every currently active job across all tracks.
func (s *Sequencer) StopAll(curTime float64, allowFadeOut bool) {
	for _, t := range s.tracks {
		if t.current != nil {
			s.stopJob(t.current, curTime, allowFadeOut)
		}
	}
}

func (s *Sequencer) stopJob(aj *activeJob, curTime float64, allowFadeOut bool) {
	aj.stopping = true
	aj.stopTime = curTime
	if !allowFadeOut {
		aj.job.FadeOut = 0
	}
}

// GarbageCollect removes every job, across all tracks, whose weighted
// contribution has fully decayed as of curTime.
func (s *Sequencer) GarbageCollect(curTime float64) {
	for _, t := range s.tracks {
		if t.current == nil {
			continue
		}
		if _, alive := t.current.weight(curTime); !alive {
			delete(s.byID, t.current.id)
			t.current = nil
		}
	}
}

// Eval samples every active track at curTime and writes the weighted sum
// across tracks into out, divided by the total weight when that total
// exceeds 1 (a lone job at weight 0.5 yields half its value). out must be exactly
// len(library.CurveLayout)-curves wide in component count (the owning
// library's SampleStride). Tracks with no alive job contribute nothing;
// if no track is alive, out is zeroed.
func (s *Sequencer) Eval(curTime float64, out []float32) {
	for i := range out {
		out[i] = 0
	}

	totalWeight := 0.0
	scratch := make([]float32, len(out))

	for _, t := range s.tracks {
		aj := t.current
		if aj == nil {
			continue
		}
		w, alive := aj.weight(curTime)
		if !alive || w <= 0 {
			continue
		}
		sampleClip(aj.job.Clip, aj.localTime(curTime), scratch)
		for i := range out {
			out[i] += float32(w) * scratch[i]
		}
		totalWeight += w
	}

	if totalWeight > 1 {
		for i := range out {
			out[i] /= float32(totalWeight)
		}
	}
}

// sampleClip writes clip's value at localTime into out, component-major in
// curve-layout order: static curves contribute their constant value,
// animated curves contribute the keyframe row at or before localTime,
// clamped to the last row (no interpolation —
// spec.md leaves the exact mixing math unconstrained).
func sampleClip(clip ClipRef, localTime float64, out []float32) {
	row := 0
	if clip.KeyDuration > 0 && clip.Length > 1 {
		row = int(localTime / float64(clip.KeyDuration))
		if row >= clip.Length {
			row = clip.Length - 1
		}
	}

	dst := 0
	for _, c := range clip.Curves {
		stride := curveformat.Stride(c.Format)
		if c.Static {
			copy(out[dst:dst+stride], c.StaticValue[:stride])
		} else if clip.KeyStride > 0 {
			src := row*clip.KeyStride + c.KeyIndex
			copy(out[dst:dst+stride], clip.Keys[src:src+stride])
		}
		dst += stride
	}
}

func (s *Sequencer) trackFor(index int) *track {
	t, ok := s.tracks[index]
	if !ok {
		t = &track{}
		s.tracks[index] = t
	}
	return t
}
