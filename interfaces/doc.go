// Package interfaces defines the native entry-point surface of the Atom
// engine, so the same wrappers run against the real library or against the
// in-memory simulation.
//
// # Core Interfaces
//
// [NativeEngine] mirrors the C API one call per method. Methods take and
// return raw values exactly as the library does: object constructors return
// 0 on failure, playback starts return [InvalidPlaybackID], and operations
// that can be refused return false. Translating those sentinels into Go
// errors is the job of the caller, not the implementation:
//
//	engine, err := factory.NewEngineFactory().CreateEngine(config)
//	if err != nil {
//	    return err
//	}
//	player := engine.CreatePlayer()
//	if player == 0 {
//	    return atom.ErrNativeRejected
//	}
//
// String arguments are NUL-terminated buffers produced by package argstring;
// struct arguments point at the Go mirrors in package abi and are only read
// for the duration of the call.
//
// # Configuration
//
// [EngineConfig] holds the settings both implementations understand. The
// factory package fills it from defaults and ATOM_* environment variables:
//
//	config := &interfaces.EngineConfig{
//	    UseSimulation:   true,
//	    ServerFrequency: 60,
//	    MaxVirtualVoices: 32,
//	}
//	if err := config.Validate(); err != nil {
//	    log.Fatalf("invalid config: %v", err)
//	}
//
// # Implementation Selection
//
//   - UseSimulation=true: SimulatedEngine from the testing package
//   - UseSimulation=false: the cgo binding from the real package, available
//     when built with the atomnative tag
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Initialize and Finalize
// briefly block the server and must not be called from inside a callback.
package interfaces
