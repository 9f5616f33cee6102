package interfaces

import (
	"errors"
	"fmt"

	"github.com/opd-ai/atomgo/abi"
	"github.com/opd-ai/atomgo/argstring"
	"github.com/opd-ai/atomgo/bridge"
)

// InvalidPlaybackID is returned by StartPlayer when the engine refuses to
// start a playback.
const InvalidPlaybackID = ^uint32(0)

// Bounds for EngineConfig values.
const (
	MinServerFrequency  = 1.0
	MaxServerFrequency  = 1000.0
	MinMaxVirtualVoices = 1
	MaxMaxVirtualVoices = 4096
)

// ErrInvalidConfig indicates an EngineConfig value out of bounds.
var ErrInvalidConfig = errors.New("invalid engine configuration")

// NativeEngine is the set of native calls the wrappers use.
type NativeEngine interface {
	bridge.NativeBinder

	// Initialize starts the engine and its server thread.
	Initialize(config *EngineConfig) error

	// Finalize stops the server thread and frees engine resources.
	Finalize() error

	// ExecuteMain runs one server step on the calling goroutine.
	ExecuteMain()

	// CreatePlayer returns a new player, or 0.
	CreatePlayer() uintptr

	// DestroyPlayer frees a player.
	DestroyPlayer(player uintptr)

	// SetCueName selects the cue the player starts next.
	SetCueName(player uintptr, name *byte) bool

	// StartPlayer starts a playback and returns its ID.
	StartPlayer(player uintptr) uint32

	// OutputPortByName returns the output port registered by the loaded
	// ACF, or 0. Output ports are owned by the engine.
	OutputPortByName(name *byte) uintptr

	// CreateSource3D returns a new 3D source, or 0.
	CreateSource3D() uintptr

	// DestroySource3D frees a 3D source.
	DestroySource3D(source uintptr)

	// SetRandomPositionConfig configures randomized positions of source.
	SetRandomPositionConfig(source uintptr, config *abi.RandomPositionConfig) bool

	// SetSourcePosition moves source.
	SetSourcePosition(source uintptr, pos *abi.Vector) bool

	// CreateStreamingCache returns a new streaming cache for files with
	// paths up to maxPath bytes, or 0.
	CreateStreamingCache(maxPath int32) uintptr

	// DestroyStreamingCache frees a streaming cache.
	DestroyStreamingCache(cache uintptr)

	// CacheFile starts loading path into cache.
	CacheFile(cache uintptr, path *byte) bool

	// SetBusVolumeByName sets the volume of a DSP bus.
	SetBusVolumeByName(name *byte, volume float32) bool

	// RegisterAcf loads the global configuration from location.
	RegisterAcf(location *abi.AcfLocationInfo) bool

	// SetBusIndexTable installs the bus index remapping table.
	SetBusIndexTable(table *abi.BusIndexTable) bool

	// IsSimulation reports whether this is the in-memory engine.
	IsSimulation() bool
}

// EngineConfig holds configuration for engine implementations.
type EngineConfig struct {
	// UseSimulation selects the in-memory engine
	UseSimulation bool

	// ServerFrequency is the server step rate in Hz
	ServerFrequency float64

	// MaxVirtualVoices bounds concurrently tracked playbacks
	MaxVirtualVoices int

	// TextEncoding is the character set of every string crossing the
	// boundary, in both directions
	TextEncoding argstring.Encoding
}

// Validate checks every value against its bounds.
func (c *EngineConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if c.ServerFrequency < MinServerFrequency || c.ServerFrequency > MaxServerFrequency {
		return fmt.Errorf("%w: server frequency %.2f outside [%.0f, %.0f]",
			ErrInvalidConfig, c.ServerFrequency, MinServerFrequency, MaxServerFrequency)
	}
	if c.MaxVirtualVoices < MinMaxVirtualVoices || c.MaxVirtualVoices > MaxMaxVirtualVoices {
		return fmt.Errorf("%w: max virtual voices %d outside [%d, %d]",
			ErrInvalidConfig, c.MaxVirtualVoices, MinMaxVirtualVoices, MaxMaxVirtualVoices)
	}
	return nil
}
