//go:build atomnative && cgo

package real

/*
#cgo LDFLAGS: -latom
#include <stdbool.h>
#include <stdint.h>
#include <stddef.h>

typedef struct {
	float   server_frequency;
	int32_t max_virtual_voices;
} AtomConfig;

typedef void    (*AtomPlaybackEventCbFunc)(void *obj, int32_t event, const void *info);
typedef int32_t (*AtomBeatSyncCbFunc)(void *obj, const void *info);
typedef int32_t (*AtomSequencerEventCbFunc)(void *obj, const void *info);
typedef void    (*AtomRandomPositionCbFunc)(void *obj, const void *input, void *output, const void *config);
typedef bool    (*AtomStreamingCacheCbFunc)(void *obj, uintptr_t cache);

extern bool     atom_Initialize(const AtomConfig *config);
extern void     atom_Finalize(void);
extern void     atom_ExecuteMain(void);
extern void     atom_SetBeatSyncCallback(AtomBeatSyncCbFunc func, void *obj);
extern bool     atom_RegisterAcf(const void *location);

extern void    *atomPlayer_Create(void);
extern void     atomPlayer_Destroy(void *player);
extern bool     atomPlayer_SetCueName(void *player, const char *name);
extern uint32_t atomPlayer_Start(void *player);
extern void     atomPlayer_SetPlaybackEventCallback(void *player, AtomPlaybackEventCbFunc func, void *obj);

extern void     atomSequencer_SetEventCallback(AtomSequencerEventCbFunc func, void *obj);

extern void    *atomOutputPort_GetByName(const char *name);

extern void    *atom3dSource_Create(void);
extern void     atom3dSource_Destroy(void *source);
extern bool     atom3dSource_SetPosition(void *source, const void *pos);
extern bool     atom3dSource_SetRandomPositionConfig(void *source, const void *config);
extern void     atom3dSource_SetRandomPositionCallback(void *source, AtomRandomPositionCbFunc func, void *obj);

extern void    *atomStreamingCache_Create(int32_t max_path);
extern void     atomStreamingCache_Destroy(void *cache);
extern bool     atomStreamingCache_CacheFile(void *cache, const char *path);
extern void     atomStreamingCache_SetCompletionCallback(void *cache, AtomStreamingCacheCbFunc func, void *obj);

extern bool     atomAsr_SetBusVolumeByName(const char *name, float volume);
extern bool     atomAsr_SetBusIndexTable(const void *table);

// Exported from exports.go.
extern void    atomgoPlaybackEvent(void *obj, int32_t event, void *info);
extern int32_t atomgoBeatSync(void *obj, void *info);
extern int32_t atomgoSequencerEvent(void *obj, void *info);
extern void    atomgoRandomPosition(void *obj, void *input, void *output, void *config);
extern _Bool   atomgoStreamingCache(void *obj, uintptr_t cache);

enum {
	ATOMGO_KIND_PLAYBACK_EVENT = 1,
	ATOMGO_KIND_BEAT_SYNC,
	ATOMGO_KIND_SEQUENCER_EVENT,
	ATOMGO_KIND_RANDOM_POSITION,
	ATOMGO_KIND_STREAMING_CACHE,
};

static bool atomgo_set_callback(int kind, uintptr_t owner, bool bind, uint64_t ctx) {
	void *obj = bind ? (void *)(uintptr_t)ctx : NULL;
	switch (kind) {
	case ATOMGO_KIND_PLAYBACK_EVENT:
		atomPlayer_SetPlaybackEventCallback((void *)owner,
			bind ? (AtomPlaybackEventCbFunc)atomgoPlaybackEvent : NULL, obj);
		return true;
	case ATOMGO_KIND_BEAT_SYNC:
		atom_SetBeatSyncCallback(bind ? (AtomBeatSyncCbFunc)atomgoBeatSync : NULL, obj);
		return true;
	case ATOMGO_KIND_SEQUENCER_EVENT:
		atomSequencer_SetEventCallback(bind ? (AtomSequencerEventCbFunc)atomgoSequencerEvent : NULL, obj);
		return true;
	case ATOMGO_KIND_RANDOM_POSITION:
		atom3dSource_SetRandomPositionCallback((void *)owner,
			bind ? (AtomRandomPositionCbFunc)atomgoRandomPosition : NULL, obj);
		return true;
	case ATOMGO_KIND_STREAMING_CACHE:
		atomStreamingCache_SetCompletionCallback((void *)owner,
			bind ? (AtomStreamingCacheCbFunc)atomgoStreamingCache : NULL, obj);
		return true;
	default:
		return false;
	}
}

static uintptr_t atomgo_player_create(void) { return (uintptr_t)atomPlayer_Create(); }
static void atomgo_player_destroy(uintptr_t p) { atomPlayer_Destroy((void *)p); }
static bool atomgo_player_set_cue_name(uintptr_t p, const char *name) { return atomPlayer_SetCueName((void *)p, name); }
static uint32_t atomgo_player_start(uintptr_t p) { return atomPlayer_Start((void *)p); }
static uintptr_t atomgo_output_port_by_name(const char *name) { return (uintptr_t)atomOutputPort_GetByName(name); }
static uintptr_t atomgo_source_create(void) { return (uintptr_t)atom3dSource_Create(); }
static void atomgo_source_destroy(uintptr_t s) { atom3dSource_Destroy((void *)s); }
static bool atomgo_source_set_position(uintptr_t s, const void *pos) { return atom3dSource_SetPosition((void *)s, pos); }
static bool atomgo_source_set_random_config(uintptr_t s, const void *cfg) { return atom3dSource_SetRandomPositionConfig((void *)s, cfg); }
static uintptr_t atomgo_cache_create(int32_t max_path) { return (uintptr_t)atomStreamingCache_Create(max_path); }
static void atomgo_cache_destroy(uintptr_t c) { atomStreamingCache_Destroy((void *)c); }
static bool atomgo_cache_file(uintptr_t c, const char *path) { return atomStreamingCache_CacheFile((void *)c, path); }
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/opd-ai/atomgo/abi"
	"github.com/opd-ai/atomgo/bridge"
	"github.com/opd-ai/atomgo/interfaces"
	"github.com/opd-ai/atomgo/logging"
	"github.com/sirupsen/logrus"
)

// ErrUnavailable is returned by NewEngine in builds without the native
// library.
var ErrUnavailable = errors.New("native Atom library not linked")

// ErrInitializeFailed indicates the library refused its configuration.
var ErrInitializeFailed = errors.New("native engine initialization failed")

// Engine is the cgo implementation of interfaces.NativeEngine.
type Engine struct {
	mu          sync.Mutex
	initialized bool
}

// Available reports whether this build links the native library.
func Available() bool { return true }

// NewEngine returns the native engine.
func NewEngine() (interfaces.NativeEngine, error) {
	return &Engine{}, nil
}

func cstr(p *byte) *C.char { return (*C.char)(unsafe.Pointer(p)) }

// Initialize implements NativeEngine.Initialize.
func (e *Engine) Initialize(config *interfaces.EngineConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}

	cfg := C.AtomConfig{
		server_frequency:   C.float(config.ServerFrequency),
		max_virtual_voices: C.int32_t(config.MaxVirtualVoices),
	}
	if !C.atom_Initialize(&cfg) {
		return fmt.Errorf("%w: frequency %.2f, voices %d", ErrInitializeFailed, config.ServerFrequency, config.MaxVirtualVoices)
	}
	e.initialized = true

	logging.New("real", "Initialize").WithFields(logrus.Fields{
		"server_frequency":   config.ServerFrequency,
		"max_virtual_voices": config.MaxVirtualVoices,
	}).Info("Native engine initialized")
	return nil
}

// Finalize implements NativeEngine.Finalize.
func (e *Engine) Finalize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil
	}
	C.atom_Finalize()
	e.initialized = false
	logging.New("real", "Finalize").Info("Native engine finalized")
	return nil
}

// ExecuteMain implements NativeEngine.ExecuteMain.
func (e *Engine) ExecuteMain() { C.atom_ExecuteMain() }

// BindCallback implements bridge.NativeBinder.
func (e *Engine) BindCallback(kind bridge.Kind, owner uintptr, ctx uint64) error {
	if !C.atomgo_set_callback(C.int(kind), C.uintptr_t(owner), true, C.uint64_t(ctx)) {
		return fmt.Errorf("bind %s: unsupported callback kind", kind)
	}
	return nil
}

// UnbindCallback implements bridge.NativeBinder.
func (e *Engine) UnbindCallback(kind bridge.Kind, owner uintptr) error {
	if !C.atomgo_set_callback(C.int(kind), C.uintptr_t(owner), false, 0) {
		return fmt.Errorf("unbind %s: unsupported callback kind", kind)
	}
	return nil
}

func (e *Engine) CreatePlayer() uintptr { return uintptr(C.atomgo_player_create()) }

func (e *Engine) DestroyPlayer(player uintptr) { C.atomgo_player_destroy(C.uintptr_t(player)) }

func (e *Engine) SetCueName(player uintptr, name *byte) bool {
	return bool(C.atomgo_player_set_cue_name(C.uintptr_t(player), cstr(name)))
}

func (e *Engine) StartPlayer(player uintptr) uint32 {
	return uint32(C.atomgo_player_start(C.uintptr_t(player)))
}

func (e *Engine) OutputPortByName(name *byte) uintptr {
	return uintptr(C.atomgo_output_port_by_name(cstr(name)))
}

func (e *Engine) CreateSource3D() uintptr { return uintptr(C.atomgo_source_create()) }

func (e *Engine) DestroySource3D(source uintptr) { C.atomgo_source_destroy(C.uintptr_t(source)) }

func (e *Engine) SetRandomPositionConfig(source uintptr, config *abi.RandomPositionConfig) bool {
	return bool(C.atomgo_source_set_random_config(C.uintptr_t(source), unsafe.Pointer(config)))
}

func (e *Engine) SetSourcePosition(source uintptr, pos *abi.Vector) bool {
	return bool(C.atomgo_source_set_position(C.uintptr_t(source), unsafe.Pointer(pos)))
}

func (e *Engine) CreateStreamingCache(maxPath int32) uintptr {
	return uintptr(C.atomgo_cache_create(C.int32_t(maxPath)))
}

func (e *Engine) DestroyStreamingCache(cache uintptr) { C.atomgo_cache_destroy(C.uintptr_t(cache)) }

func (e *Engine) CacheFile(cache uintptr, path *byte) bool {
	return bool(C.atomgo_cache_file(C.uintptr_t(cache), cstr(path)))
}

func (e *Engine) SetBusVolumeByName(name *byte, volume float32) bool {
	return bool(C.atomAsr_SetBusVolumeByName(cstr(name), C.float(volume)))
}

func (e *Engine) RegisterAcf(location *abi.AcfLocationInfo) bool {
	return bool(C.atom_RegisterAcf(unsafe.Pointer(location)))
}

func (e *Engine) SetBusIndexTable(table *abi.BusIndexTable) bool {
	return bool(C.atomAsr_SetBusIndexTable(unsafe.Pointer(table)))
}

// IsSimulation implements NativeEngine.IsSimulation.
func (e *Engine) IsSimulation() bool { return false }

var _ interfaces.NativeEngine = (*Engine)(nil)
