// Package manager is the animation resource manager itself (spec.md §1):
// it composes the value pool, the three object pools, the three handle
// pools and the label registry into the library/skeleton/instance
// lifecycle, the compaction-on-delete pass, the per-frame sampling loop
// and job control.
package manager

import (
	"fmt"
	"log"

	"github.com/oxy-go/animres/common"
	"github.com/oxy-go/animres/engine/errs"
	"github.com/oxy-go/animres/engine/handle"
	"github.com/oxy-go/animres/engine/instance"
	"github.com/oxy-go/animres/engine/library"
	"github.com/oxy-go/animres/engine/objectpool"
	"github.com/oxy-go/animres/engine/registry"
	"github.com/oxy-go/animres/engine/sequencer"
	"github.com/oxy-go/animres/engine/skeleton"
	"github.com/oxy-go/animres/engine/valuepool"
)

// PlayParams carries the job parameters a caller supplies to Play,
// everything spec.md's job description needs besides the clip itself
// (spec.md §4.9, glossary "Job").
type PlayParams struct {
	Priority int
	Track    int
	FadeIn   float64
	FadeOut  float64
	Loop     bool
}

// Stats reports current pool occupancy for diagnostics and tests, the role
// QueryPoolInfo plays on the individual handle pools (spec.md §6).
type Stats struct {
	NumKeys        int
	ClipPoolSize   int
	CurvePoolSize  int
	MatrixPoolSize int

	Libraries handle.PoolInfo
	Skeletons handle.PoolInfo
	Instances handle.PoolInfo
}

// Manager is the animation resource manager. Once the manager has been
// discarded, every method except EnableLogging, DisableLogging, CurTime and
// Stats is a contract violation (panics), Discard included.
type Manager interface {
	// Discard permanently retires the manager. Calling it again, or any
	// other method except EnableLogging, DisableLogging, CurTime and Stats,
	// panics.
	Discard()

	// EnableLogging/DisableLogging gate the optional diagnostic log output,
	// mirroring the teacher's profiler opt-in surface. Disabled by default.
	EnableLogging()
	DisableLogging()

	// PushLabel, PopLabel and PeekLabel forward to the resource registry's
	// label stack (spec.md §6 ResourceRegistry).
	PushLabel() registry.Label
	PopLabel()
	PeekLabel() registry.Label

	// CreateLibrary validates and installs setup under the currently active
	// label, following spec.md §4.4. Locator deduplication means a second
	// call with a previously-seen, non-empty locator returns the existing
	// handle unchanged.
	CreateLibrary(setup library.Setup) (handle.Handle, error)
	// Library resolves h to a snapshot of the live library it names.
	Library(h handle.Handle) (library.Library, bool)
	// WriteKeys overwrites h's entire key region with data, which must be
	// exactly |library.Keys|*4 bytes (spec.md §7, S6).
	WriteKeys(h handle.Handle, data []byte) error

	// CreateSkeleton validates and installs setup under the currently active
	// label, following spec.md §4.5.
	CreateSkeleton(setup skeleton.Setup) (handle.Handle, error)
	// Skeleton resolves h to a snapshot of the live skeleton it names.
	Skeleton(h handle.Handle) (skeleton.Skeleton, bool)

	// CreateInstance binds a new instance to libHandle and, optionally,
	// skelHandle (pass handle.Invalid for none). Both must already be valid
	// handles (spec.md §4.6); violating that is a contract violation.
	CreateInstance(libHandle, skelHandle handle.Handle) (handle.Handle, error)

	// Destroy releases every resource tagged with label (registry.All for
	// every resource the manager owns) and compacts the pools they occupied
	// (spec.md §4.7).
	Destroy(label registry.Label)

	// NewFrame opens a new frame, clearing the previous frame's active set
	// (spec.md §4.8).
	NewFrame()
	// AddActiveInstance registers inst as active for the open frame,
	// claiming a slice of the sample pool sized by its library's sample
	// stride. Returns false, without mutating state, if the active list or
	// sample pool is already full.
	AddActiveInstance(h handle.Handle) bool
	// Evaluate samples every active instance's sequencer at the current
	// global time, then advances it by frameDuration and closes the frame.
	Evaluate(frameDuration float64)
	// CurTime returns the current global sampling time.
	CurTime() float64

	// Play inserts a job playing clip index clipIndex of inst's library on
	// inst's sequencer, returning its id or sequencer.InvalidJobID if the
	// sequencer rejected the insertion (spec.md §4.9).
	Play(instHandle handle.Handle, clipIndex int, params PlayParams) (sequencer.JobID, error)
	// Stop ends job id on inst's sequencer.
	Stop(instHandle handle.Handle, id sequencer.JobID, allowFadeOut bool)
	// StopTrack ends whichever job is current on inst's given track.
	StopTrack(instHandle handle.Handle, track int, allowFadeOut bool)
	// StopAll ends every job active on inst's sequencer.
	StopAll(instHandle handle.Handle, allowFadeOut bool)

	// Stats reports current pool occupancy.
	Stats() Stats
}

type managerState uint8

const (
	stateActive managerState = iota
	stateDiscarded
)

type manager struct {
	state managerState

	logger         *log.Logger
	loggingEnabled bool

	registry *registry.Registry

	libHandles  *handle.Pool[library.Library]
	skelHandles *handle.Pool[skeleton.Skeleton]
	instHandles *handle.Pool[*instance.Instance]

	clipPool   *objectpool.Pool[library.Clip]
	curvePool  *objectpool.Pool[library.Curve]
	matrixPool *objectpool.Pool[common.Matrix]

	values *valuepool.ValuePool

	maxNumActiveInstances int
	activeInstances       []*instance.Instance
	numSamples            int
	inFrame               bool

	curTime float64
}

var _ Manager = &manager{}

// NewManager validates cfg and constructs a Manager ready for immediate use
// (there is no separate activation step; the manager is active on return).
func NewManager(cfg Config, options ...ManagerBuilderOption) Manager {
	cfg.validate()

	m := &manager{
		state:                 stateActive,
		logger:                log.Default(),
		registry:              registry.New(cfg.ResourceLabelStackCapacity, cfg.ResourceRegistryCapacity),
		libHandles:            handle.Setup[library.Library](handle.TypeLibrary, cfg.MaxNumLibs),
		skelHandles:           handle.Setup[skeleton.Skeleton](handle.TypeSkeleton, cfg.MaxNumSkeletons),
		instHandles:           handle.Setup[*instance.Instance](handle.TypeInstance, cfg.MaxNumInstances),
		clipPool:              objectpool.NewPool[library.Clip](cfg.ClipPoolCapacity),
		curvePool:             objectpool.NewPool[library.Curve](cfg.CurvePoolCapacity),
		matrixPool:            objectpool.NewPool[common.Matrix](cfg.MatrixPoolCapacity),
		values:                valuepool.New(cfg.KeyPoolCapacity, cfg.SamplePoolCapacity),
		maxNumActiveInstances: cfg.MaxNumActiveInstances,
	}

	for _, opt := range options {
		opt(m)
	}

	return m
}

func (m *manager) requireActive() {
	if m.state != stateActive {
		panic("manager: operation on a manager that is not active")
	}
}

func (m *manager) logf(format string, args ...interface{}) {
	if m.loggingEnabled && m.logger != nil {
		m.logger.Printf(format, args...)
	}
}

func (m *manager) Discard() {
	m.requireActive()
	m.state = stateDiscarded
}

func (m *manager) EnableLogging()  { m.loggingEnabled = true }
func (m *manager) DisableLogging() { m.loggingEnabled = false }

func (m *manager) PushLabel() registry.Label {
	m.requireActive()
	return m.registry.PushLabel()
}

func (m *manager) PopLabel() {
	m.requireActive()
	m.registry.PopLabel()
}

func (m *manager) PeekLabel() registry.Label {
	m.requireActive()
	return m.registry.PeekLabel()
}

// CreateLibrary implements spec.md §4.4 steps 1-7. The handle-pool
// exhaustion precheck runs before library.Build so a failed create never
// mutates the handle pool either (spec.md §7).
func (m *manager) CreateLibrary(setup library.Setup) (handle.Handle, error) {
	m.requireActive()

	if setup.Locator == "" {
		panic("manager: CreateLibrary requires a non-empty locator")
	}

	if h, ok := m.registry.Lookup(setup.Locator); ok {
		return h, nil
	}

	if m.libHandles.Remaining() == 0 {
		m.logf("manager: CreateLibrary(%q): library handle pool exhausted", setup.Locator)
		return handle.Invalid, errs.ErrHandlePoolExhausted
	}

	lib, err := library.Build(m.clipPool, m.curvePool, m.values, setup)
	if err != nil {
		m.logf("manager: CreateLibrary(%q): %v", setup.Locator, err)
		return handle.Invalid, err
	}

	h := m.libHandles.AllocId()
	m.libHandles.Assign(h, handle.StateSetup, lib)

	label := m.registry.PeekLabel()
	m.registry.Add(setup.Locator, h, label)
	m.libHandles.UpdateState(h, handle.StateValid)

	return h, nil
}

func (m *manager) Library(h handle.Handle) (library.Library, bool) {
	m.requireActive()
	lib, ok := m.libHandles.Lookup(h)
	if !ok {
		return library.Library{}, false
	}
	return *lib, true
}

func (m *manager) WriteKeys(h handle.Handle, data []byte) error {
	m.requireActive()
	lib, ok := m.libHandles.Lookup(h)
	if !ok {
		panic("manager: WriteKeys requires a valid library handle")
	}
	return m.values.WriteKeys(lib.Keys, data)
}

// CreateSkeleton implements spec.md §4.5. Skeletons are registered
// anonymously (no locator/dedup concept appears in spec.md §4.5, unlike
// libraries).
func (m *manager) CreateSkeleton(setup skeleton.Setup) (handle.Handle, error) {
	m.requireActive()

	if m.skelHandles.Remaining() == 0 {
		m.logf("manager: CreateSkeleton(%q): skeleton handle pool exhausted", setup.Name)
		return handle.Invalid, errs.ErrHandlePoolExhausted
	}

	skel, err := skeleton.Build(m.matrixPool, setup)
	if err != nil {
		m.logf("manager: CreateSkeleton(%q): %v", setup.Name, err)
		return handle.Invalid, err
	}

	h := m.skelHandles.AllocId()
	m.skelHandles.Assign(h, handle.StateSetup, skel)

	label := m.registry.PeekLabel()
	m.registry.Add("", h, label)
	m.skelHandles.UpdateState(h, handle.StateValid)

	return h, nil
}

func (m *manager) Skeleton(h handle.Handle) (skeleton.Skeleton, bool) {
	m.requireActive()
	skel, ok := m.skelHandles.Lookup(h)
	if !ok {
		return skeleton.Skeleton{}, false
	}
	return *skel, true
}

// CreateInstance implements spec.md §4.6: both handles must already resolve
// to live resources, or it is a contract violation.
func (m *manager) CreateInstance(libHandle, skelHandle handle.Handle) (handle.Handle, error) {
	m.requireActive()

	if _, ok := m.libHandles.Lookup(libHandle); !ok {
		panic("manager: CreateInstance requires a valid library handle")
	}
	if skelHandle.Valid() {
		if _, ok := m.skelHandles.Lookup(skelHandle); !ok {
			panic("manager: CreateInstance requires a valid skeleton handle")
		}
	}

	if m.instHandles.Remaining() == 0 {
		m.logf("manager: CreateInstance: instance handle pool exhausted")
		return handle.Invalid, errs.ErrHandlePoolExhausted
	}

	h := m.instHandles.AllocId()
	inst := instance.New(libHandle, skelHandle)
	m.instHandles.Assign(h, handle.StateSetup, inst)

	label := m.registry.PeekLabel()
	m.registry.Add("", h, label)
	m.instHandles.UpdateState(h, handle.StateValid)

	return h, nil
}

// Destroy implements spec.md §4.7.
func (m *manager) Destroy(label registry.Label) {
	m.requireActive()

	handles := m.registry.Remove(label)
	for _, h := range handles {
		switch h.Type {
		case handle.TypeLibrary:
			m.destroyLibrary(h)
		case handle.TypeSkeleton:
			m.destroySkeleton(h)
		case handle.TypeInstance:
			m.destroyInstance(h)
		}
	}
}

// destroyLibrary unassigns the handle before running any remove* pass, so
// the slot-iteration fixup in removeClips/removeCurves/removeKeys never
// visits the library being destroyed — resolving the Open Question on
// fillGap-against-an-exactly-overlapping-view by construction (see
// DESIGN.md).
func (m *manager) destroyLibrary(h handle.Handle) {
	lib, ok := m.libHandles.Lookup(h)
	if !ok {
		return
	}
	clips, curves, keys := lib.Clips, lib.Curves, lib.Keys
	m.libHandles.Unassign(h)

	m.removeClips(clips)
	m.removeCurves(curves)
	m.removeKeys(keys)
}

func (m *manager) destroySkeleton(h handle.Handle) {
	skel, ok := m.skelHandles.Lookup(h)
	if !ok {
		return
	}
	matrices := skel.Matrices
	m.skelHandles.Unassign(h)

	m.removeMatrices(matrices)
}

func (m *manager) destroyInstance(h handle.Handle) {
	instPtr, ok := m.instHandles.Lookup(h)
	if !ok {
		return
	}
	inst := *instPtr
	inst.ResetFrame()
	m.instHandles.Unassign(h)

	for i, active := range m.activeInstances {
		if active == inst {
			m.activeInstances = append(m.activeInstances[:i], m.activeInstances[i+1:]...)
			break
		}
	}
}

// removeClips implements the "removeClips" remove* primitive (spec.md §4.7
// step 2/3, "Others" branch): erase from the clip pool, then fix up every
// surviving library's Clips aggregate view.
func (m *manager) removeClips(r common.View) {
	if r.Empty() {
		return
	}
	m.clipPool.EraseRange(r.Offset, r.Len)
	for i := 0; i <= m.libHandles.LastAllocatedSlot(); i++ {
		if lib, ok := m.libHandles.SlotValue(i); ok {
			lib.Clips.FillGap(r.Offset, r.Len)
		}
	}
}

// removeCurves fixes up every surviving library's Curves aggregate view and
// every surviving clip's Curves sub-view (clip records live densely in the
// clip pool, so a direct scan over its live prefix visits exactly the
// surviving clips).
func (m *manager) removeCurves(r common.View) {
	if r.Empty() {
		return
	}
	m.curvePool.EraseRange(r.Offset, r.Len)
	for i := 0; i <= m.libHandles.LastAllocatedSlot(); i++ {
		if lib, ok := m.libHandles.SlotValue(i); ok {
			lib.Curves.FillGap(r.Offset, r.Len)
		}
	}
	for i := 0; i < m.clipPool.Size(); i++ {
		m.clipPool.Item(i).Curves.FillGap(r.Offset, r.Len)
	}
}

// removeKeys implements the "Keys only" branch of spec.md §4.7 step 2 (a
// direct tail-shift on the value pool's key region) and fixes up every
// surviving library's and clip's Keys view.
func (m *manager) removeKeys(r common.View) {
	if r.Empty() {
		return
	}
	m.values.EraseKeys(r.Offset, r.Len)
	for i := 0; i <= m.libHandles.LastAllocatedSlot(); i++ {
		if lib, ok := m.libHandles.SlotValue(i); ok {
			lib.Keys.FillGap(r.Offset, r.Len)
		}
	}
	for i := 0; i < m.clipPool.Size(); i++ {
		m.clipPool.Item(i).Keys.FillGap(r.Offset, r.Len)
	}
}

// removeMatrices fixes up every surviving skeleton's Matrices, BindPose and
// InvBindPose views.
func (m *manager) removeMatrices(r common.View) {
	if r.Empty() {
		return
	}
	m.matrixPool.EraseRange(r.Offset, r.Len)
	for i := 0; i <= m.skelHandles.LastAllocatedSlot(); i++ {
		if skel, ok := m.skelHandles.SlotValue(i); ok {
			skel.Matrices.FillGap(r.Offset, r.Len)
			skel.BindPose.FillGap(r.Offset, r.Len)
			skel.InvBindPose.FillGap(r.Offset, r.Len)
		}
	}
}

// NewFrame implements spec.md §4.8.
func (m *manager) NewFrame() {
	m.requireActive()
	if m.inFrame {
		panic("manager: NewFrame called while already in a frame")
	}
	for _, inst := range m.activeInstances {
		inst.ResetFrame()
	}
	m.activeInstances = m.activeInstances[:0]
	m.numSamples = 0
	m.inFrame = true
}

func (m *manager) AddActiveInstance(h handle.Handle) bool {
	m.requireActive()
	if !m.inFrame {
		panic("manager: AddActiveInstance called outside a frame")
	}

	instPtr, ok := m.instHandles.Lookup(h)
	if !ok {
		panic("manager: AddActiveInstance requires a valid instance handle")
	}
	inst := *instPtr

	if len(m.activeInstances) >= m.maxNumActiveInstances {
		return false
	}

	lib, ok := m.libHandles.Lookup(inst.Library)
	if !ok {
		panic("manager: active instance's library handle is no longer valid")
	}

	if m.numSamples+lib.SampleStride > m.values.SampleCapacity() {
		return false
	}

	inst.Samples = common.View{Offset: m.numSamples, Len: lib.SampleStride}
	m.numSamples += lib.SampleStride
	m.activeInstances = append(m.activeInstances, inst)
	return true
}

func (m *manager) Evaluate(frameDuration float64) {
	m.requireActive()
	if !m.inFrame {
		panic("manager: Evaluate called outside a frame")
	}

	for _, inst := range m.activeInstances {
		inst.Sequencer.GarbageCollect(m.curTime)
		out := m.values.SampleSlice(inst.Samples)
		inst.Sequencer.Eval(m.curTime, out)
	}

	m.curTime += frameDuration
	m.inFrame = false
}

func (m *manager) CurTime() float64 {
	return m.curTime
}

// Play implements spec.md §4.9.
func (m *manager) Play(instHandle handle.Handle, clipIndex int, params PlayParams) (sequencer.JobID, error) {
	m.requireActive()

	instPtr, ok := m.instHandles.Lookup(instHandle)
	if !ok {
		panic("manager: Play requires a valid instance handle")
	}
	inst := *instPtr
	inst.Sequencer.GarbageCollect(m.curTime)

	lib, ok := m.libHandles.Lookup(inst.Library)
	if !ok {
		panic("manager: instance's library handle is no longer valid")
	}
	if clipIndex < 0 || clipIndex >= lib.Clips.Len {
		panic(fmt.Sprintf("manager: Play clip index %d out of range [0,%d)", clipIndex, lib.Clips.Len))
	}

	clip := *m.clipPool.Item(lib.Clips.Offset + clipIndex)
	ref := m.snapshotClip(clip)
	duration := float64(clip.KeyDuration) * float64(clip.Length)

	job := sequencer.Job{
		Priority: params.Priority,
		Track:    params.Track,
		FadeIn:   params.FadeIn,
		FadeOut:  params.FadeOut,
		Loop:     params.Loop,
		Clip:     ref,
	}

	id := inst.Sequencer.NextID()
	if !inst.Sequencer.Add(m.curTime, id, job, duration) {
		return sequencer.InvalidJobID, errs.ErrJobInsertRejected
	}
	return id, nil
}

// snapshotClip copies out everything sequencer.Eval needs to sample clip,
// so the sequencer never has to reach back into the curve/value pools
// (which may be compacted by an unrelated destroy between Play and a later
// Evaluate).
func (m *manager) snapshotClip(clip library.Clip) sequencer.ClipRef {
	curves := make([]library.Curve, clip.Curves.Len)
	for i := 0; i < clip.Curves.Len; i++ {
		curves[i] = *m.curvePool.Item(clip.Curves.Offset + i)
	}

	var keys []float32
	if !clip.Keys.Empty() {
		src := m.values.KeySlice(clip.Keys)
		keys = make([]float32, len(src))
		copy(keys, src)
	}

	return sequencer.ClipRef{
		Curves:      curves,
		Keys:        keys,
		Length:      clip.Length,
		KeyStride:   clip.KeyStride,
		KeyDuration: clip.KeyDuration,
	}
}

func (m *manager) Stop(instHandle handle.Handle, id sequencer.JobID, allowFadeOut bool) {
	m.requireActive()
	inst := m.mustInstance(instHandle)
	inst.Sequencer.Stop(m.curTime, id, allowFadeOut)
	inst.Sequencer.GarbageCollect(m.curTime)
}

func (m *manager) StopTrack(instHandle handle.Handle, track int, allowFadeOut bool) {
	m.requireActive()
	inst := m.mustInstance(instHandle)
	inst.Sequencer.StopTrack(m.curTime, track, allowFadeOut)
	inst.Sequencer.GarbageCollect(m.curTime)
}

func (m *manager) StopAll(instHandle handle.Handle, allowFadeOut bool) {
	m.requireActive()
	inst := m.mustInstance(instHandle)
	inst.Sequencer.StopAll(m.curTime, allowFadeOut)
	inst.Sequencer.GarbageCollect(m.curTime)
}

func (m *manager) mustInstance(h handle.Handle) *instance.Instance {
	instPtr, ok := m.instHandles.Lookup(h)
	if !ok {
		panic("manager: operation requires a valid instance handle")
	}
	return *instPtr
}

func (m *manager) Stats() Stats {
	return Stats{
		NumKeys:        m.values.NumKeys(),
		ClipPoolSize:   m.clipPool.Size(),
		CurvePoolSize:  m.curvePool.Size(),
		MatrixPoolSize: m.matrixPool.Size(),
		Libraries:      m.libHandles.QueryPoolInfo(),
		Skeletons:      m.skelHandles.QueryPoolInfo(),
		Instances:      m.instHandles.QueryPoolInfo(),
	}
}
