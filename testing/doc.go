// Package testing provides an in-memory Atom engine for deterministic
// testing of the wrappers and the callback path.
//
// # Overview
//
// SimulatedEngine implements interfaces.NativeEngine without the native
// library. It keeps players, 3D sources, streaming caches, output ports and
// DSP buses in maps, and runs a server step that fires bound callbacks
// through the same bridge entry points the cgo exports use. Callback
// arguments are built in transient buffers that are dropped as soon as the
// entry point returns.
//
// # Simulation vs Real Implementation
//
//   - Simulation (this package): every native call is counted and every
//     object is tracked, so tests can check that destroyable handles were
//     destroyed exactly once, that non-destroyable ones never were, and that
//     no callback was still bound when its owner went away.
//
//   - Real (real package): calls go to the native library through cgo.
//
// # Usage
//
//	sim := testing.NewSimulatedEngine(testing.WithManualServer())
//	_ = sim.Initialize(config)
//	defer sim.Finalize()
//
//	player := sim.CreatePlayer()
//	// ... bind callbacks through bridge.Binder(sim, kind, player)
//	sim.ExecuteMain() // one server step, callbacks fire here
//
//	calls := sim.Calls()
//	if calls.Destroys != calls.Creates {
//	    t.Error("leaked native object")
//	}
//
// Without WithManualServer, Initialize starts a server goroutine stepping at
// EngineConfig.ServerFrequency, which is how the native engine behaves: the
// callbacks then arrive on a goroutine the test does not control.
//
// # Failure Injection
//
// FailNext makes the next call of one operation return its native failure
// sentinel, for testing how callers surface rejections.
//
// # Thread Safety
//
// All methods are safe for concurrent use. The server step collects its work
// under the engine lock and fires callbacks after releasing it, so a handler
// that calls back into the engine does not deadlock the simulation.
package testing
