// Package handle models opaque identifiers for objects owned by the native
// audio engine.
//
// A Handle wraps the raw value returned by a native create call together with
// a destroyable flag. Destroyable handles are owned by the caller and must be
// released exactly once; non-destroyable handles (an output port obtained from
// a registered ACF, a library-owned voice pool) are owned by the engine and
// Release only detaches them.
//
// # Ownership
//
// A *Handle has a single owner. Handles embed atomics, so copying a Handle by
// value is reported by go vet; pass the pointer and let one wrapper object
// hold it. After Release every accessor other than Equal, Hash, IsZero and
// Release returns ErrReleased.
//
// # Release Is Synchronous
//
// Destroying an object that an in-flight native operation still references
// (an AWB still used by a player) can block until the engine finishes its
// internal teardown. Release always runs the destroy entry point on the
// calling goroutine and logs a warning when it takes longer than the slow
// release threshold.
//
// A finalizer releases handles whose owner forgot to, logging a leak warning.
// It is a fallback only: the finalizer goroutine may run at any time after the
// handle becomes unreachable.
package handle
