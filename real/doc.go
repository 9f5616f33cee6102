// Package real binds interfaces.NativeEngine to the native Atom library
// through cgo.
//
// # Build Tags
//
// The binding is compiled only with the atomnative tag and cgo enabled:
//
//	CGO_ENABLED=1 go build -tags atomnative ./...
//
// The library is linked as -latom; set CGO_LDFLAGS to point at it. In every
// other build NewEngine returns ErrUnavailable and Available reports false,
// so the module builds and tests without the SDK installed.
//
// # Callback Entry Points
//
// Each callback kind has exactly one exported C function (atomgoPlaybackEvent,
// atomgoBeatSync, ...). BindCallback points the native slot at it, passing
// the trampoline slot ID as the native context value; no Go pointer is ever
// handed to the library. The exported functions only forward to the bridge
// entry points, which dispatch through the trampoline registry.
//
//	┌──────────────────────┐      ┌─────────────────────────┐
//	│ native server thread │ ───▶ │ atomgoBeatSync (export) │
//	└──────────────────────┘      └────────────┬────────────┘
//	                                           ▼
//	                              bridge.BeatSyncEntry(ctx)
//	                                           ▼
//	                              trampoline.Dispatch(slot)
//
// # Memory
//
// Struct and string arguments are Go memory holding no Go pointers, passed
// for the duration of one call as cgo permits. Object handles cross the
// boundary as uintptr_t and are converted to pointers on the C side.
package real
