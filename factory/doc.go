// Package factory creates interfaces.NativeEngine implementations, choosing
// between the native library and the in-memory simulation.
//
// # Configuration
//
// The factory starts from defaults and applies environment overrides:
//   - ATOM_USE_SIMULATION: "true" or "false" to select the simulation
//   - ATOM_SERVER_FREQUENCY: server step rate in Hz
//   - ATOM_MAX_VIRTUAL_VOICES: integer voice limit
//
// Two more variables are read by the root package when building Options:
//   - ATOM_TEXT_ENCODING: "utf-8" or "shift_jis"
//   - ATOM_LOG_LEVEL: any logrus level name
//
// Values that fail to parse or fall outside their bounds are ignored with a
// warning, and the default is kept.
//
// # Usage
//
//	factory := NewEngineFactory()
//	engine, err := factory.CreateEngine(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// CreateEngine fails with real.ErrUnavailable when the native engine is
// requested in a build without the atomnative tag.
//
// # Testing Support
//
//	func TestMyFeature(t *testing.T) {
//	    sim := NewEngineFactory().CreateSimulationForTesting(WithServerFrequency(500))
//	    // Initialize, bind callbacks, ExecuteMain...
//	}
//
// # Mode Switching
//
//	factory := NewEngineFactory()
//	factory.SwitchToSimulation()
//	factory.SwitchToReal()
package factory
