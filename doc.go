// Package atom exposes the native Atom real-time audio engine to Go.
//
// The engine is a closed native library that mixes, spatializes and streams
// audio on its own server thread. This package and its sub-packages provide
// the interop core every wrapper is built on:
//
//   - handle: owned or engine-owned native object handles
//   - argstring: NUL-terminated, length-checked string arguments
//   - inline: fixed-size arrays laid out like C arrays
//   - nativeref: scoped views of native memory and tagged unions
//   - trampoline: native callback slots bound to Go handlers
//
// and a representative set of wrappers on top of them.
//
// # Getting Started
//
//	opts := atom.NewOptions()
//	opts.UseSimulation = true
//
//	engine, err := atom.NewEngine(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	player, err := engine.NewPlayer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := player.SetCueName("bgm_title"); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := player.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Callbacks
//
// Handlers set with OnBeatSync, OnSequencerEvent, Player.OnPlaybackEvent,
// Source3D.OnRandomPosition and StreamingCache.OnCompletion run on the
// engine's server thread. Each slot holds one handler; setting another
// replaces it and setting nil removes it. Handlers must return quickly and
// must not call back into the engine: the arguments they receive give access
// to the callback data only, and that data expires when the handler returns.
//
//	engine.OnBeatSync(func(args bridge.BeatSyncArgs) int32 {
//	    info, err := args.Info.Deref()
//	    if err == nil && info.BeatCount == 0 {
//	        bars.Add(1)
//	    }
//	    return 0
//	})
//
// # Object Lifetime
//
// Objects created by the engine (players, 3D sources, streaming caches) own
// their native counterparts and must be closed; Engine.Close closes any left.
// Output ports belong to the engine and closing one only detaches the
// wrapper. A handle used after close fails with handle.ErrReleased.
//
// # Configuration
//
// Options may be loaded from YAML with LoadOptions and are overridden by
// ATOM_USE_SIMULATION, ATOM_SERVER_FREQUENCY, ATOM_MAX_VIRTUAL_VOICES,
// ATOM_TEXT_ENCODING and ATOM_LOG_LEVEL.
//
// # Native Library
//
// The cgo binding is built with -tags atomnative. Without it only the
// simulated engine is available and NewEngine returns real.ErrUnavailable
// unless UseSimulation is set.
package atom
