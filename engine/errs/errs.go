// Package errs centralizes the recoverable sentinel errors spec.md §7
// enumerates, so every package that can hit a pool-exhaustion or
// rejected-operation condition reports it the same way.
package errs

import "errors"

var (
	// ErrClipPoolExhausted is returned when installing a library would
	// exceed the clip pool's fixed capacity.
	ErrClipPoolExhausted = errors.New("clip pool exhausted")
	// ErrCurvePoolExhausted is returned when installing a library would
	// exceed the curve pool's fixed capacity.
	ErrCurvePoolExhausted = errors.New("curve pool exhausted")
	// ErrKeyPoolExhausted is returned when installing a library would
	// exceed the key pool's fixed capacity.
	ErrKeyPoolExhausted = errors.New("key pool exhausted")
	// ErrMatrixPoolExhausted is returned when installing a skeleton would
	// exceed the matrix pool's fixed capacity.
	ErrMatrixPoolExhausted = errors.New("matrix pool exhausted")
	// ErrHandlePoolExhausted is returned when no free handle slot remains
	// for the requested resource type.
	ErrHandlePoolExhausted = errors.New("handle pool exhausted")
	// ErrLocatorUnknown names a reference to a library/skeleton that is not
	// registered. No function in this module returns it: CreateInstance
	// panics when its library or skeleton handle does not resolve.
	ErrLocatorUnknown = errors.New("locator unknown")
	// ErrActiveSetFull names the per-frame active-instance list being at
	// its configured capacity. AddActiveInstance reports that condition by
	// returning false; it does not return this error.
	ErrActiveSetFull = errors.New("active instance set full")
	// ErrSamplePoolFull names an instance's sample slice not fitting in the
	// sample pool. AddActiveInstance reports that condition by returning
	// false; it does not return this error.
	ErrSamplePoolFull = errors.New("sample pool full")
	// ErrJobInsertRejected is returned by play when the sequencer declines
	// to insert the job (a live job of higher priority holds its track).
	ErrJobInsertRejected = errors.New("job insert rejected")
	// ErrCurveLayoutMismatch is returned when a ClipSetup's curve count
	// does not match the library's curve layout length.
	ErrCurveLayoutMismatch = errors.New("curve layout mismatch")
)
