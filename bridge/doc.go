// Package bridge defines the native callback kinds of the engine, the typed
// arguments each kind hands to Go handlers, and the stable entry points the
// native side calls.
//
// Every entry point has the same shape: open a nativeref.Scope, wrap the raw
// argument pointers into references bound to that scope, dispatch to the
// slot named by the native context value, and end the scope. References held
// past the handler's return report nativeref.ErrExpired.
//
// The cgo exports in package real and the simulated engine in package
// testing both call these functions, so the Go side of every callback runs
// through the same path whichever engine is in use.
package bridge
