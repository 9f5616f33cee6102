package testing

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/opd-ai/atomgo/abi"
	"github.com/opd-ai/atomgo/argstring"
	"github.com/opd-ai/atomgo/bridge"
	"github.com/opd-ai/atomgo/interfaces"
	"github.com/opd-ai/atomgo/limits"
	"github.com/opd-ai/atomgo/logging"
	"github.com/opd-ai/atomgo/nativeref"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotInitialized indicates a call that needs Initialize first.
	ErrNotInitialized = errors.New("simulated engine not initialized")

	// ErrAlreadyInitialized indicates a second Initialize.
	ErrAlreadyInitialized = errors.New("simulated engine already initialized")

	// ErrUnknownObject indicates a callback bound to an object that does not
	// exist or to the wrong owner for its kind.
	ErrUnknownObject = errors.New("unknown native object")
)

// Op names an injectable native operation.
type Op string

const (
	OpCreatePlayer         Op = "create_player"
	OpStartPlayer          Op = "start_player"
	OpCreateSource3D       Op = "create_source3d"
	OpCreateStreamingCache Op = "create_streaming_cache"
	OpRegisterAcf          Op = "register_acf"
	OpSetBusIndexTable     Op = "set_bus_index_table"
	OpBindCallback         Op = "bind_callback"
)

// Simulated beat grid.
const (
	SimulatedBpm      = 120
	SimulatedNumBeats = 4
)

// CallCounts counts native calls made against the simulation.
type CallCounts struct {
	Creates             uint64
	Destroys            uint64
	Binds               uint64
	Unbinds             uint64
	Steps               uint64
	Callbacks           uint64
	Rejections          uint64
	DestroyedWhileBound uint64
}

type simPlayer struct {
	cue string
}

type simPlayback struct {
	id     uint32
	player uintptr
	cue    string
	beats  uint32
	fresh  bool
}

type simSource struct {
	pos    abi.Vector
	config abi.RandomPositionConfig
}

type simCache struct {
	maxPath int32
	queue   []string
	loaded  []string
}

type bindKey struct {
	kind  bridge.Kind
	owner uintptr
}

// SimulatedEngine is an in-memory interfaces.NativeEngine.
type SimulatedEngine struct {
	mu          sync.Mutex
	config      *interfaces.EngineConfig
	manual      bool
	initialized bool
	nextRaw     uintptr
	nextPlay    uint32

	players   map[uintptr]*simPlayer
	playbacks []*simPlayback
	sources   map[uintptr]*simSource
	caches    map[uintptr]*simCache
	bindings  map[bindKey]uint64
	failures  map[Op]int

	portNames []string
	ports     map[string]uintptr
	buses     map[string]float32
	busTable  *abi.BusIndexTable
	acf       abi.AcfLocationType
	acfLoaded bool
	enc       *argstring.Encoder

	stepMu sync.Mutex
	stop   chan struct{}
	done   chan struct{}

	creates, destroys, binds, unbinds atomic.Uint64
	steps, callbacks, rejections      atomic.Uint64
	destroyedWhileBound               atomic.Uint64
}

// SimOption configures a SimulatedEngine.
type SimOption func(*SimulatedEngine)

// WithManualServer disables the server goroutine; the server only steps on
// ExecuteMain.
func WithManualServer() SimOption {
	return func(e *SimulatedEngine) { e.manual = true }
}

// WithOutputPorts sets the output ports a registered ACF provides.
func WithOutputPorts(names ...string) SimOption {
	return func(e *SimulatedEngine) { e.portNames = append([]string(nil), names...) }
}

// WithBuses sets the DSP buses a registered ACF provides.
func WithBuses(names ...string) SimOption {
	return func(e *SimulatedEngine) {
		e.buses = make(map[string]float32, len(names))
		for _, n := range names {
			e.buses[n] = 1
		}
	}
}

// NewSimulatedEngine creates an uninitialized simulation.
func NewSimulatedEngine(opts ...SimOption) *SimulatedEngine {
	logrus.Warn("SIMULATION ENGINE - NOT THE NATIVE LIBRARY")

	e := &SimulatedEngine{
		nextRaw:   0x1000,
		players:   make(map[uintptr]*simPlayer),
		sources:   make(map[uintptr]*simSource),
		caches:    make(map[uintptr]*simCache),
		bindings:  make(map[bindKey]uint64),
		failures:  make(map[Op]int),
		ports:     make(map[string]uintptr),
		portNames: []string{"main_out", "spdif"},
		buses:     map[string]float32{"MasterOut": 1, "Reverb": 1, "Music": 1},
		enc:       argstring.Default,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *SimulatedEngine) logger(function string) *logging.Helper {
	return logging.New("testing", "SimulatedEngine."+function)
}

// FailNext makes the next call of op fail with its native sentinel.
func (e *SimulatedEngine) FailNext(op Op) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[op]++
}

// failing consumes one injected failure of op. Callers hold e.mu.
func (e *SimulatedEngine) failing(op Op) bool {
	if e.failures[op] == 0 {
		return false
	}
	e.failures[op]--
	e.rejections.Add(1)
	e.logger(string(op)).WithField("op", op).Debug("Injected native failure")
	return true
}

func (e *SimulatedEngine) allocLocked() uintptr {
	e.nextRaw += 0x10
	return e.nextRaw
}

// Initialize implements NativeEngine.Initialize.
func (e *SimulatedEngine) Initialize(config *interfaces.EngineConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return ErrAlreadyInitialized
	}
	e.config = config
	e.enc = argstring.NewEncoder(argstring.WithEncoding(config.TextEncoding))
	e.initialized = true

	if !e.manual {
		e.stop = make(chan struct{})
		e.done = make(chan struct{})
		go e.serve(time.Duration(float64(time.Second) / config.ServerFrequency))
	}

	e.logger("Initialize").WithFields(logrus.Fields{
		"server_frequency":   config.ServerFrequency,
		"max_virtual_voices": config.MaxVirtualVoices,
		"manual_server":      e.manual,
		"text_encoding":      config.TextEncoding.String(),
	}).Info("Simulated engine initialized")
	return nil
}

func (e *SimulatedEngine) serve(interval time.Duration) {
	defer close(e.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.step()
		}
	}
}

// Finalize implements NativeEngine.Finalize.
func (e *SimulatedEngine) Finalize() error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return ErrNotInitialized
	}
	e.initialized = false
	stop, done := e.stop, e.done
	e.stop, e.done = nil, nil
	e.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger("Finalize").WithFields(logrus.Fields{
		"live_objects":    len(e.players) + len(e.sources) + len(e.caches),
		"bound_callbacks": len(e.bindings),
	}).Info("Simulated engine finalized")
	return nil
}

// ExecuteMain implements NativeEngine.ExecuteMain.
func (e *SimulatedEngine) ExecuteMain() {
	e.step()
}

// step runs one server update. Steps never overlap.
func (e *SimulatedEngine) step() {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	work := e.collect()
	e.steps.Add(1)
	for _, fire := range work {
		fire()
		e.callbacks.Add(1)
	}
}

// collect snapshots the callbacks the current state calls for.
func (e *SimulatedEngine) collect() []func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil
	}

	var work []func()
	for _, pb := range e.playbacks {
		if pb.fresh {
			pb.fresh = false
			if ctx, ok := e.bindings[bindKey{bridge.KindPlaybackEvent, pb.player}]; ok {
				info := abi.PlaybackInfo{Player: pb.player, PlaybackID: pb.id}
				work = append(work, func() {
					bridge.PlaybackEventEntry(ctx, int32(bridge.PlaybackEventAllocate), unsafe.Pointer(&info))
				})
			}
			if ctx, ok := e.bindings[bindKey{bridge.KindSequencerEvent, 0}]; ok {
				info := abi.SequenceEventInfo{Player: pb.player, PlaybackID: pb.id}
				if tag, err := e.enc.Encode(nil, pb.cue, limits.FieldName); err == nil {
					info.String = tag.Ptr()
				}
				work = append(work, func() {
					bridge.SequencerEventEntry(ctx, unsafe.Pointer(&info))
				})
			}
		}

		if ctx, ok := e.bindings[bindKey{bridge.KindBeatSync, 0}]; ok {
			info := abi.BeatSyncInfo{
				Player:     pb.player,
				PlaybackID: pb.id,
				BarCount:   pb.beats / SimulatedNumBeats,
				BeatCount:  pb.beats % SimulatedNumBeats,
				NumBeats:   SimulatedNumBeats,
				Bpm:        SimulatedBpm,
			}
			work = append(work, func() {
				bridge.BeatSyncEntry(ctx, unsafe.Pointer(&info))
			})
		}
		pb.beats++
	}

	for raw, src := range e.sources {
		if src.config.Calculation == abi.RandomPositionNone {
			continue
		}
		ctx, ok := e.bindings[bindKey{bridge.KindRandomPosition, raw}]
		if !ok {
			continue
		}
		raw, in, config := raw, src.pos, src.config
		work = append(work, func() {
			out := in
			bridge.RandomPositionEntry(ctx, unsafe.Pointer(&in), unsafe.Pointer(&out), unsafe.Pointer(&config))
			e.mu.Lock()
			if s, ok := e.sources[raw]; ok {
				s.pos = out
			}
			e.mu.Unlock()
		})
	}

	for raw, c := range e.caches {
		if len(c.queue) == 0 {
			continue
		}
		path := c.queue[0]
		c.queue = c.queue[1:]
		c.loaded = append(c.loaded, path)
		ctx, ok := e.bindings[bindKey{bridge.KindStreamingCache, raw}]
		if !ok {
			continue
		}
		raw := raw
		work = append(work, func() {
			if bridge.StreamingCacheEntry(ctx, raw) {
				return
			}
			e.mu.Lock()
			if c, ok := e.caches[raw]; ok {
				c.queue = nil
			}
			e.mu.Unlock()
		})
	}
	return work
}

// BindCallback implements bridge.NativeBinder.
func (e *SimulatedEngine) BindCallback(kind bridge.Kind, owner uintptr, ctx uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failing(OpBindCallback) {
		return fmt.Errorf("bind %s: rejected", kind)
	}
	if !e.ownerExistsLocked(kind, owner) {
		return fmt.Errorf("%w: %s owner %#x", ErrUnknownObject, kind, owner)
	}
	e.bindings[bindKey{kind, owner}] = ctx
	e.binds.Add(1)
	return nil
}

// UnbindCallback implements bridge.NativeBinder.
func (e *SimulatedEngine) UnbindCallback(kind bridge.Kind, owner uintptr) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.bindings, bindKey{kind, owner})
	e.unbinds.Add(1)
	return nil
}

func (e *SimulatedEngine) ownerExistsLocked(kind bridge.Kind, owner uintptr) bool {
	switch kind {
	case bridge.KindBeatSync, bridge.KindSequencerEvent:
		return owner == 0
	case bridge.KindPlaybackEvent:
		_, ok := e.players[owner]
		return ok
	case bridge.KindRandomPosition:
		_, ok := e.sources[owner]
		return ok
	case bridge.KindStreamingCache:
		_, ok := e.caches[owner]
		return ok
	default:
		return false
	}
}

// dropBindingsLocked removes callbacks still bound to a destroyed owner.
func (e *SimulatedEngine) dropBindingsLocked(owner uintptr) {
	for k := range e.bindings {
		if k.owner == owner {
			delete(e.bindings, k)
			e.destroyedWhileBound.Add(1)
			e.logger("destroy").WithFields(logrus.Fields{
				"owner": fmt.Sprintf("%#x", owner),
				"kind":  k.kind.String(),
			}).Warn("Native object destroyed with a callback still bound")
		}
	}
}

// CreatePlayer implements NativeEngine.CreatePlayer.
func (e *SimulatedEngine) CreatePlayer() uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized || e.failing(OpCreatePlayer) {
		return 0
	}
	raw := e.allocLocked()
	e.players[raw] = &simPlayer{}
	e.creates.Add(1)
	return raw
}

// DestroyPlayer implements NativeEngine.DestroyPlayer.
func (e *SimulatedEngine) DestroyPlayer(player uintptr) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.players[player]; !ok {
		return
	}
	delete(e.players, player)
	kept := e.playbacks[:0]
	for _, pb := range e.playbacks {
		if pb.player != player {
			kept = append(kept, pb)
		}
	}
	e.playbacks = kept
	e.dropBindingsLocked(player)
	e.destroys.Add(1)
}

// SetCueName implements NativeEngine.SetCueName.
func (e *SimulatedEngine) SetCueName(player uintptr, name *byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	cue, err := e.enc.ReadNative(name, limits.MaxNameLength)
	if err != nil || cue == "" {
		return false
	}
	p, ok := e.players[player]
	if !ok {
		return false
	}
	p.cue = cue
	return true
}

// StartPlayer implements NativeEngine.StartPlayer.
func (e *SimulatedEngine) StartPlayer(player uintptr) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.players[player]
	if !ok || p.cue == "" || e.failing(OpStartPlayer) {
		return interfaces.InvalidPlaybackID
	}
	if len(e.playbacks) >= e.config.MaxVirtualVoices {
		e.rejections.Add(1)
		return interfaces.InvalidPlaybackID
	}
	e.nextPlay++
	e.playbacks = append(e.playbacks, &simPlayback{id: e.nextPlay, player: player, cue: p.cue, fresh: true})
	return e.nextPlay
}

// OutputPortByName implements NativeEngine.OutputPortByName.
func (e *SimulatedEngine) OutputPortByName(name *byte) uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	port, err := e.enc.ReadNative(name, limits.MaxOutputPortNameLength)
	if err != nil {
		return 0
	}
	return e.ports[port]
}

// CreateSource3D implements NativeEngine.CreateSource3D.
func (e *SimulatedEngine) CreateSource3D() uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized || e.failing(OpCreateSource3D) {
		return 0
	}
	raw := e.allocLocked()
	e.sources[raw] = &simSource{}
	e.creates.Add(1)
	return raw
}

// DestroySource3D implements NativeEngine.DestroySource3D.
func (e *SimulatedEngine) DestroySource3D(source uintptr) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sources[source]; !ok {
		return
	}
	delete(e.sources, source)
	e.dropBindingsLocked(source)
	e.destroys.Add(1)
}

// SetRandomPositionConfig implements NativeEngine.SetRandomPositionConfig.
func (e *SimulatedEngine) SetRandomPositionConfig(source uintptr, config *abi.RandomPositionConfig) bool {
	if config == nil || config.Calculation < abi.RandomPositionNone || config.Calculation > abi.RandomPositionList {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sources[source]
	if !ok {
		return false
	}
	s.config = *config
	return true
}

// SetSourcePosition implements NativeEngine.SetSourcePosition.
func (e *SimulatedEngine) SetSourcePosition(source uintptr, pos *abi.Vector) bool {
	if pos == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sources[source]
	if !ok {
		return false
	}
	s.pos = *pos
	return true
}

// CreateStreamingCache implements NativeEngine.CreateStreamingCache.
func (e *SimulatedEngine) CreateStreamingCache(maxPath int32) uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized || maxPath <= 0 || e.failing(OpCreateStreamingCache) {
		return 0
	}
	raw := e.allocLocked()
	e.caches[raw] = &simCache{maxPath: maxPath}
	e.creates.Add(1)
	return raw
}

// DestroyStreamingCache implements NativeEngine.DestroyStreamingCache.
func (e *SimulatedEngine) DestroyStreamingCache(cache uintptr) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.caches[cache]; !ok {
		return
	}
	delete(e.caches, cache)
	e.dropBindingsLocked(cache)
	e.destroys.Add(1)
}

// CacheFile implements NativeEngine.CacheFile.
func (e *SimulatedEngine) CacheFile(cache uintptr, path *byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.caches[cache]
	if !ok {
		return false
	}
	p, err := e.enc.ReadNative(path, int(c.maxPath))
	if err != nil || p == "" {
		return false
	}
	c.queue = append(c.queue, p)
	return true
}

// SetBusVolumeByName implements NativeEngine.SetBusVolumeByName.
func (e *SimulatedEngine) SetBusVolumeByName(name *byte, volume float32) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	bus, err := e.enc.ReadNative(name, limits.MaxNameLength)
	if err != nil {
		return false
	}
	if _, ok := e.buses[bus]; !ok || !e.acfLoaded {
		return false
	}
	e.buses[bus] = volume
	return true
}

// RegisterAcf implements NativeEngine.RegisterAcf. The arm selected by the
// location's discriminant must carry a usable payload.
func (e *SimulatedEngine) RegisterAcf(location *abi.AcfLocationInfo) bool {
	if location == nil {
		return false
	}

	usable := false
	nativeref.With(func(s *nativeref.Scope) {
		loc := nativeref.NewRef[abi.AcfLocationInfo](s, unsafe.Pointer(location))
		switch location.Type {
		case abi.AcfLocationTypeName:
			if arm, err := nativeref.ArmOf[abi.AcfLocationName](loc); err == nil {
				v, _ := arm.Deref()
				usable = v.Path != 0
			}
		case abi.AcfLocationTypeID:
			if arm, err := nativeref.ArmOf[abi.AcfLocationID](loc); err == nil {
				v, _ := arm.Deref()
				usable = v.ID >= 0
			}
		case abi.AcfLocationTypeOnMemory:
			if arm, err := nativeref.ArmOf[abi.AcfLocationData](loc); err == nil {
				v, _ := arm.Deref()
				usable = v.Buffer != 0 && v.Size > 0
			}
		}
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	if !usable || !e.initialized || e.failing(OpRegisterAcf) {
		return false
	}
	e.acf = location.Type
	e.acfLoaded = true
	for _, name := range e.portNames {
		if _, ok := e.ports[name]; !ok {
			e.ports[name] = e.allocLocked()
		}
	}
	return true
}

// SetBusIndexTable implements NativeEngine.SetBusIndexTable.
func (e *SimulatedEngine) SetBusIndexTable(table *abi.BusIndexTable) bool {
	if table == nil || table.NumBuses < 0 || int(table.NumBuses) > table.Indices.Len() {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failing(OpSetBusIndexTable) {
		return false
	}
	copied := *table
	e.busTable = &copied
	return true
}

// IsSimulation implements NativeEngine.IsSimulation.
func (e *SimulatedEngine) IsSimulation() bool { return true }

// Calls returns a snapshot of the native call counters.
func (e *SimulatedEngine) Calls() CallCounts {
	return CallCounts{
		Creates:             e.creates.Load(),
		Destroys:            e.destroys.Load(),
		Binds:               e.binds.Load(),
		Unbinds:             e.unbinds.Load(),
		Steps:               e.steps.Load(),
		Callbacks:           e.callbacks.Load(),
		Rejections:          e.rejections.Load(),
		DestroyedWhileBound: e.destroyedWhileBound.Load(),
	}
}

// LiveObjects returns the number of created and not yet destroyed objects.
func (e *SimulatedEngine) LiveObjects() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.players) + len(e.sources) + len(e.caches)
}

// Bound reports whether a callback of kind is bound for owner.
func (e *SimulatedEngine) Bound(kind bridge.Kind, owner uintptr) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.bindings[bindKey{kind, owner}]
	return ok
}

// CueName returns the cue selected on player.
func (e *SimulatedEngine) CueName(player uintptr) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[player]
	if !ok {
		return "", false
	}
	return p.cue, true
}

// SourcePosition returns the current position of source.
func (e *SimulatedEngine) SourcePosition(source uintptr) (abi.Vector, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sources[source]
	if !ok {
		return abi.Vector{}, false
	}
	return s.pos, true
}

// CachedFiles returns the files cache finished loading, in order.
func (e *SimulatedEngine) CachedFiles(cache uintptr) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.caches[cache]
	if !ok {
		return nil
	}
	return append([]string(nil), c.loaded...)
}

// BusVolume returns the volume set on a DSP bus.
func (e *SimulatedEngine) BusVolume(name string) (float32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.buses[name]
	return v, ok
}

// InstalledBusIndexTable returns a copy of the last installed table.
func (e *SimulatedEngine) InstalledBusIndexTable() (abi.BusIndexTable, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busTable == nil {
		return abi.BusIndexTable{}, false
	}
	return *e.busTable, true
}

// AcfType returns the location type of the registered ACF.
func (e *SimulatedEngine) AcfType() (abi.AcfLocationType, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acf, e.acfLoaded
}

var _ interfaces.NativeEngine = (*SimulatedEngine)(nil)
