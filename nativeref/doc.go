// Package nativeref exposes native memory handed to Go for the duration of a
// call or callback as typed, non-owning references.
//
// A Ref[T] is read-only; a MutRef[T] also allows Write where the engine reads
// the value back (a callback output parameter). Both are bound to a Scope.
// When the scope ends, the callback has returned and the memory may belong to
// a native stack frame that no longer exists: Deref and Write then return
// ErrExpired instead of reading it.
//
// Tagged unions are read through ArmOf, which only yields a reference typed as
// the arm that the union's discriminant selects.
//
// Pin keeps Go values at a fixed address while one native call uses them.
package nativeref
