package testing

import (
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/opd-ai/atomgo/abi"
	"github.com/opd-ai/atomgo/argstring"
	"github.com/opd-ai/atomgo/bridge"
	"github.com/opd-ai/atomgo/inline"
	"github.com/opd-ai/atomgo/interfaces"
	"github.com/opd-ai/atomgo/limits"
	"github.com/opd-ai/atomgo/trampoline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *interfaces.EngineConfig {
	return &interfaces.EngineConfig{
		UseSimulation:    true,
		ServerFrequency:  200,
		MaxVirtualVoices: 4,
	}
}

func newManualEngine(t *testing.T, opts ...SimOption) *SimulatedEngine {
	t.Helper()
	sim := NewSimulatedEngine(append([]SimOption{WithManualServer()}, opts...)...)
	require.NoError(t, sim.Initialize(newTestConfig()))
	t.Cleanup(func() { _ = sim.Finalize() })
	return sim
}

func cstr(t *testing.T, s string) *byte {
	t.Helper()
	arg, err := argstring.Encode(nil, s, limits.FieldFree)
	require.NoError(t, err)
	return arg.Ptr()
}

func TestInitializeTwice(t *testing.T) {
	sim := newManualEngine(t)
	assert.ErrorIs(t, sim.Initialize(newTestConfig()), ErrAlreadyInitialized)
	assert.True(t, sim.IsSimulation())
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	sim := NewSimulatedEngine(WithManualServer())
	assert.ErrorIs(t, sim.Initialize(&interfaces.EngineConfig{}), interfaces.ErrInvalidConfig)
	assert.ErrorIs(t, sim.Finalize(), ErrNotInitialized)
}

func TestCreateDestroyCounts(t *testing.T) {
	sim := newManualEngine(t)

	p := sim.CreatePlayer()
	s := sim.CreateSource3D()
	c := sim.CreateStreamingCache(int32(limits.MaxPathLength))
	require.NotZero(t, p)
	require.NotZero(t, s)
	require.NotZero(t, c)
	assert.Equal(t, 3, sim.LiveObjects())

	sim.DestroyPlayer(p)
	sim.DestroyPlayer(p)
	sim.DestroySource3D(s)
	sim.DestroyStreamingCache(c)

	calls := sim.Calls()
	assert.Equal(t, uint64(3), calls.Creates)
	assert.Equal(t, uint64(3), calls.Destroys, "double destroy must not count twice")
	assert.Equal(t, 0, sim.LiveObjects())
}

func TestCreateBeforeInitializeFails(t *testing.T) {
	sim := NewSimulatedEngine(WithManualServer())
	assert.Zero(t, sim.CreatePlayer())
	assert.Zero(t, sim.CreateSource3D())
}

func TestFailNext(t *testing.T) {
	sim := newManualEngine(t)
	sim.FailNext(OpCreatePlayer)

	assert.Zero(t, sim.CreatePlayer())
	assert.NotZero(t, sim.CreatePlayer())
	assert.Equal(t, uint64(1), sim.Calls().Rejections)
}

func TestStartRequiresCueAndVoices(t *testing.T) {
	sim := newManualEngine(t)
	p := sim.CreatePlayer()

	assert.Equal(t, interfaces.InvalidPlaybackID, sim.StartPlayer(p))
	require.True(t, sim.SetCueName(p, cstr(t, "bgm_title")))
	cue, ok := sim.CueName(p)
	require.True(t, ok)
	assert.Equal(t, "bgm_title", cue)

	for i := 0; i < newTestConfig().MaxVirtualVoices; i++ {
		assert.NotEqual(t, interfaces.InvalidPlaybackID, sim.StartPlayer(p))
	}
	assert.Equal(t, interfaces.InvalidPlaybackID, sim.StartPlayer(p))
}

func TestBindValidatesOwner(t *testing.T) {
	sim := newManualEngine(t)

	assert.ErrorIs(t, sim.BindCallback(bridge.KindPlaybackEvent, 0xdead, 1), ErrUnknownObject)
	assert.ErrorIs(t, sim.BindCallback(bridge.KindBeatSync, 0x10, 1), ErrUnknownObject)
	require.NoError(t, sim.BindCallback(bridge.KindBeatSync, 0, 1))
	assert.True(t, sim.Bound(bridge.KindBeatSync, 0))

	require.NoError(t, sim.UnbindCallback(bridge.KindBeatSync, 0))
	assert.False(t, sim.Bound(bridge.KindBeatSync, 0))
}

func TestDestroyWithBoundCallbackIsRecorded(t *testing.T) {
	sim := newManualEngine(t)
	p := sim.CreatePlayer()
	require.NoError(t, sim.BindCallback(bridge.KindPlaybackEvent, p, 1))

	sim.DestroyPlayer(p)
	assert.Equal(t, uint64(1), sim.Calls().DestroyedWhileBound)
	assert.False(t, sim.Bound(bridge.KindPlaybackEvent, p))
}

func TestStepFiresPlaybackBeatAndSequencer(t *testing.T) {
	sim := newManualEngine(t)
	p := sim.CreatePlayer()
	require.True(t, sim.SetCueName(p, cstr(t, "se_jump")))

	playback := bridge.NewPlaybackEventSlot("playback", trampoline.WithBinder(bridge.Binder(sim, bridge.KindPlaybackEvent, p)))
	beat := bridge.NewBeatSyncSlot("beat", trampoline.WithBinder(bridge.Binder(sim, bridge.KindBeatSync, 0)))
	seq := bridge.NewSequencerEventSlot("seq", trampoline.WithBinder(bridge.Binder(sim, bridge.KindSequencerEvent, 0)))
	defer playback.Close()
	defer beat.Close()
	defer seq.Close()

	var allocated atomic.Uint32
	var beats []uint32
	var tags []string
	require.NoError(t, playback.Register(func(_ any, a bridge.PlaybackEventArgs) bridge.Void {
		if a.Event == bridge.PlaybackEventAllocate {
			info, _ := a.Info.Deref()
			allocated.Store(info.PlaybackID)
		}
		return bridge.Void{}
	}, nil))
	require.NoError(t, beat.Register(func(_ any, a bridge.BeatSyncArgs) int32 {
		info, _ := a.Info.Deref()
		beats = append(beats, info.BeatCount)
		return 0
	}, nil))
	require.NoError(t, seq.Register(func(_ any, a bridge.SequencerEventArgs) int32 {
		tag, err := a.Text()
		if err == nil {
			tags = append(tags, tag)
		}
		return 0
	}, nil))

	id := sim.StartPlayer(p)
	require.NotEqual(t, interfaces.InvalidPlaybackID, id)

	for i := 0; i < 5; i++ {
		sim.ExecuteMain()
	}

	assert.Equal(t, id, allocated.Load())
	assert.Equal(t, []uint32{0, 1, 2, 3, 0}, beats)
	assert.Equal(t, []string{"se_jump"}, tags)

	calls := sim.Calls()
	assert.Equal(t, uint64(5), calls.Steps)
	assert.Equal(t, uint64(7), calls.Callbacks)
	assert.Equal(t, uint64(3), calls.Binds)
}

func TestRandomPositionUpdatesSource(t *testing.T) {
	sim := newManualEngine(t)
	src := sim.CreateSource3D()
	require.True(t, sim.SetSourcePosition(src, &abi.Vector{X: 1}))

	params, err := inline.Array3Of[float32](1, 0, 0)
	require.NoError(t, err)
	require.True(t, sim.SetRandomPositionConfig(src, &abi.RandomPositionConfig{
		Calculation: abi.RandomPositionCircle,
		Params:      params,
	}))

	slot := bridge.NewRandomPositionSlot("source", trampoline.WithBinder(bridge.Binder(sim, bridge.KindRandomPosition, src)))
	defer slot.Close()
	require.NoError(t, slot.Register(func(_ any, a bridge.RandomPositionArgs) bridge.Void {
		in, _ := a.Input.Deref()
		_ = a.Output.Write(abi.Vector{X: in.X + 1, Y: in.Y, Z: in.Z})
		return bridge.Void{}
	}, nil))

	sim.ExecuteMain()
	sim.ExecuteMain()

	pos, ok := sim.SourcePosition(src)
	require.True(t, ok)
	assert.Equal(t, float32(3), pos.X)
}

func TestStreamingCacheContinuation(t *testing.T) {
	sim := newManualEngine(t)
	cache := sim.CreateStreamingCache(int32(limits.MaxPathLength))
	for _, p := range []string{"a.awb", "b.awb", "c.awb"} {
		require.True(t, sim.CacheFile(cache, cstr(t, p)))
	}

	slot := bridge.NewStreamingCacheSlot("cache", trampoline.WithBinder(bridge.Binder(sim, bridge.KindStreamingCache, cache)))
	defer slot.Close()

	var seen int
	require.NoError(t, slot.Register(func(_ any, a bridge.StreamingCacheArgs) bool {
		seen++
		return seen < 2
	}, nil))

	for i := 0; i < 4; i++ {
		sim.ExecuteMain()
	}
	assert.Equal(t, 2, seen)
	assert.Equal(t, []string{"a.awb", "b.awb"}, sim.CachedFiles(cache))
}

func TestRegisterAcfArms(t *testing.T) {
	sim := newManualEngine(t, WithOutputPorts("main_out"), WithBuses("MasterOut"))

	assert.Zero(t, sim.OutputPortByName(cstr(t, "main_out")), "ports exist only after ACF registration")
	assert.False(t, sim.SetBusVolumeByName(cstr(t, "MasterOut"), 0.5))

	assert.False(t, sim.RegisterAcf(&abi.AcfLocationInfo{Type: abi.AcfLocationTypeOnMemory}))

	buf := make([]byte, 64)
	loc := abi.NewAcfLocationData(uintptr(unsafe.Pointer(&buf[0])), int32(len(buf)))
	require.True(t, sim.RegisterAcf(&loc))
	typ, ok := sim.AcfType()
	require.True(t, ok)
	assert.Equal(t, abi.AcfLocationTypeOnMemory, typ)

	port := sim.OutputPortByName(cstr(t, "main_out"))
	assert.NotZero(t, port)
	assert.Equal(t, port, sim.OutputPortByName(cstr(t, "main_out")))
	assert.Zero(t, sim.OutputPortByName(cstr(t, "missing")))

	require.True(t, sim.SetBusVolumeByName(cstr(t, "MasterOut"), 0.5))
	v, ok := sim.BusVolume("MasterOut")
	require.True(t, ok)
	assert.Equal(t, float32(0.5), v)
	assert.False(t, sim.SetBusVolumeByName(cstr(t, "Nope"), 0.5))
}

func TestSetBusIndexTable(t *testing.T) {
	sim := newManualEngine(t)

	table := abi.BusIndexTable{NumBuses: 2}
	require.NoError(t, table.Indices.Set(0, 3))
	require.NoError(t, table.Indices.Set(1, 7))
	require.True(t, sim.SetBusIndexTable(&table))

	got, ok := sim.InstalledBusIndexTable()
	require.True(t, ok)
	v, err := got.Indices.At(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), v)

	assert.False(t, sim.SetBusIndexTable(&abi.BusIndexTable{NumBuses: 65}))
}

func TestServerGoroutineSteps(t *testing.T) {
	sim := NewSimulatedEngine()
	require.NoError(t, sim.Initialize(newTestConfig()))

	slot := bridge.NewBeatSyncSlot("beat", trampoline.WithBinder(bridge.Binder(sim, bridge.KindBeatSync, 0)))
	defer slot.Close()

	var calls atomic.Int32
	require.NoError(t, slot.Register(func(any, bridge.BeatSyncArgs) int32 {
		calls.Add(1)
		return 0
	}, nil))

	p := sim.CreatePlayer()
	require.True(t, sim.SetCueName(p, cstr(t, "loop")))
	require.NotEqual(t, interfaces.InvalidPlaybackID, sim.StartPlayer(p))

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, slot.Unregister())
	sim.DestroyPlayer(p)
	require.NoError(t, sim.Finalize())

	steps := sim.Calls().Steps
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, steps, sim.Calls().Steps, "no steps after Finalize")
}
