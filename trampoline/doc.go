// Package trampoline binds native callback slots to Go handlers.
//
// The native engine stores one function pointer and one context value per
// callback slot and calls it from its own server thread, at its own cadence,
// possibly long after registration. A Slot keeps the native side pointed at a
// fixed entry point (an exported cgo function, see package real) with the
// slot's ID as context, and swaps the Go handler behind it.
//
// # States
//
// A slot is Unregistered (the native slot holds NULL) or Registered (the
// native slot holds the entry point). Register moves to Registered, binding
// the native slot only on the first transition; registering again replaces
// the handler and its context in one atomic store, so an invocation always
// sees one complete handler/context pair. Register(nil, nil), Unregister and
// Close unbind the native slot first, clear the handler, then wait for
// invocations already running to return.
//
// # Invocation
//
// Invoke is called from the native thread only. It loads the current
// binding without locking, returns the slot's neutral value when nothing is
// registered, and recovers handler panics (returning the neutral value) so no
// panic unwinds into native frames.
//
// Handlers run on the engine's real-time thread: they must not block, must
// not run long computations and must not call back into the engine. Handlers
// receive only their context and the callback arguments; calling Unregister
// or Close for a slot from inside its own handler returns ErrDrainTimeout.
//
// # Registry
//
// Default returns the process-wide Registry, created once. Lookups from the
// native thread read a copy-on-write map and never take a lock. Slot IDs are
// never reused, so a late invocation carrying the ID of a closed slot finds
// nothing and yields the neutral value.
package trampoline
