// Package registry implements the resource-registry/label-stack
// collaborator spec.md §1 calls out of scope: pushing a label, registering
// resources by locator under the currently active label, and later
// destroying every resource tagged with a released label. This package is
// the local stand-in the manager builds on.
package registry

import (
	"github.com/google/uuid"
	"github.com/oxy-go/animres/engine/handle"
)

// Label is an opaque epoch token grouping resources for bulk destruction.
// Labels are minted from a UUID rather than a reused counter so a stale
// Label value can never alias a different epoch after wraparound, the same
// role a UUID plays as a collision-free identity in the pack's log-entry
// code this module draws its registry style from.
type Label uuid.UUID

// All is the sentinel label that, when passed to Remove, returns every
// handle the registry currently owns regardless of which label registered
// it (spec.md §4.7 edge case (c)).
var All = Label(uuid.Nil)

// Registry is the label-stack + locator-lookup collaborator consumed by the
// manager, matching the ResourceRegistry interface in spec.md §6.
type Registry struct {
	stackCapacity int
	stack         []Label

	locators map[string]handle.Handle
	byLabel  map[Label][]handle.Handle
	labelOf  map[handle.Handle]Label
}

// New allocates a Registry with the given label-stack and registry
// capacities (spec.md §6 ResourceLabelStackCapacity / ResourceRegistryCapacity).
func New(stackCapacity, registryCapacity int) *Registry {
	return &Registry{
		stackCapacity: stackCapacity,
		stack:         make([]Label, 0, stackCapacity),
		locators:      make(map[string]handle.Handle, registryCapacity),
		byLabel:       make(map[Label][]handle.Handle, stackCapacity),
		labelOf:       make(map[handle.Handle]Label, registryCapacity),
	}
}

// PushLabel mints a new label and pushes it as the active scope. Panics if
// the stack is already at capacity — exceeding a configured hard cap is a
// contract violation, not a recoverable condition (spec.md §7).
func (r *Registry) PushLabel() Label {
	if len(r.stack) >= r.stackCapacity {
		panic("registry: label stack exhausted")
	}
	l := Label(uuid.New())
	r.stack = append(r.stack, l)
	return l
}

// PopLabel removes the active label scope. It does not destroy any
// resources registered under it — that is Remove's job, driven by the
// manager's destroy path. Panics if the stack is empty.
func (r *Registry) PopLabel() {
	if len(r.stack) == 0 {
		panic("registry: PopLabel called on an empty label stack")
	}
	r.stack = r.stack[:len(r.stack)-1]
}

// PeekLabel returns the currently active label without popping it. Panics
// if the stack is empty.
func (r *Registry) PeekLabel() Label {
	if len(r.stack) == 0 {
		panic("registry: PeekLabel called on an empty label stack")
	}
	return r.stack[len(r.stack)-1]
}

// Add registers h under locator (empty locator means anonymous — never
// looked up by name, matching instances per spec.md §4.6) and tags it with
// label for later bulk removal.
func (r *Registry) Add(locator string, h handle.Handle, label Label) {
	if locator != "" {
		r.locators[locator] = h
	}
	r.byLabel[label] = append(r.byLabel[label], h)
	r.labelOf[h] = label
}

// Lookup resolves a locator to its handle. Returns (Invalid, false) if no
// resource is registered under that name.
func (r *Registry) Lookup(locator string) (handle.Handle, bool) {
	h, ok := r.locators[locator]
	return h, ok
}

// Remove releases every handle tagged with label (or every handle the
// registry owns, if label is All), removing them from locator lookup and
// returning them for the manager's destroy path to tear down (spec.md
// §4.7). For a single label the handles come back in registration order;
// for All, each label's handles keep their registration order but the
// labels follow one another in no defined order.
func (r *Registry) Remove(label Label) []handle.Handle {
	if label == All {
		var all []handle.Handle
		for _, handles := range r.byLabel {
			all = append(all, handles...)
		}
		r.byLabel = make(map[Label][]handle.Handle, r.stackCapacity)
		r.locators = make(map[string]handle.Handle, len(r.locators))
		r.labelOf = make(map[handle.Handle]Label, len(r.labelOf))
		return all
	}

	handles := r.byLabel[label]
	delete(r.byLabel, label)
	for _, h := range handles {
		delete(r.labelOf, h)
		for loc, lh := range r.locators {
			if lh == h {
				delete(r.locators, loc)
			}
		}
	}
	return handles
}
