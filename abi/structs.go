package abi

import (
	"unsafe"

	"github.com/opd-ai/atomgo/inline"
)

// PlaybackInfo is passed with every playback event.
type PlaybackInfo struct {
	Player     uintptr
	PlaybackID uint32
	CueID      int32
}

// BeatSyncInfo is passed to the beat-sync callback on each beat.
type BeatSyncInfo struct {
	Player     uintptr
	PlaybackID uint32
	BarCount   uint32
	BeatCount  uint32
	NumBeats   uint32
	Bpm        float32
	Offset     int32
}

// SequenceEventInfo is passed to the sequencer event callback. String points
// at a NUL-terminated tag authored in the tool, or is nil.
type SequenceEventInfo struct {
	Position   uint64
	Player     uintptr
	String     *byte
	PlaybackID uint32
	Type       uint32
	ID         uint32
	Value      uint32
}

// Vector is a 3D position or direction.
type Vector struct {
	X, Y, Z float32
}

// RandomPositionCalculation selects how a 3D source randomizes its position.
type RandomPositionCalculation int32

const (
	RandomPositionNone RandomPositionCalculation = iota
	RandomPositionRectangle
	RandomPositionCuboid
	RandomPositionCircle
	RandomPositionCylinder
	RandomPositionSphere
	RandomPositionList
)

// RandomPositionConfig configures randomized 3D source positions. The meaning
// of the three parameters depends on Calculation (width/depth/height,
// radius/height, ...).
type RandomPositionConfig struct {
	Calculation RandomPositionCalculation
	Params      inline.Array3[float32]
}

// BusIndexTable maps up to 64 DSP bus slots to bus indices.
type BusIndexTable struct {
	NumBuses int32
	Indices  inline.Array64[uint16]
	Flags    uint32
}

// OutputPortConfig describes an output port to create. Name is a const char*
// valid for the duration of the create call.
type OutputPortConfig struct {
	Name        uintptr
	Type        int32
	NumChannels int32
}

// AcfLocationType is the discriminant of AcfLocationInfo.
type AcfLocationType int32

const (
	AcfLocationTypeName AcfLocationType = iota
	AcfLocationTypeID
	AcfLocationTypeOnMemory
)

// AcfLocationInfo tells the engine where to load an ACF from. The payload is
// one of AcfLocationName, AcfLocationID or AcfLocationData, selected by Type.
type AcfLocationInfo struct {
	Type    AcfLocationType
	Payload [2]uintptr
}

// Discriminant implements nativeref.Union.
func (l AcfLocationInfo) Discriminant() int32 { return int32(l.Type) }

// PayloadOffset implements nativeref.Union.
func (l AcfLocationInfo) PayloadOffset() uintptr { return unsafe.Offsetof(l.Payload) }

// PayloadSize implements nativeref.Union.
func (l AcfLocationInfo) PayloadSize() uintptr { return unsafe.Sizeof(l.Payload) }

// AcfLocationName loads by path through a binder.
type AcfLocationName struct {
	Binder uintptr
	Path   uintptr
}

// ArmTag implements nativeref.Arm.
func (AcfLocationName) ArmTag() int32 { return int32(AcfLocationTypeName) }

// AcfLocationID loads by content ID through a binder.
type AcfLocationID struct {
	Binder uintptr
	ID     int32
}

// ArmTag implements nativeref.Arm.
func (AcfLocationID) ArmTag() int32 { return int32(AcfLocationTypeID) }

// AcfLocationData loads from a memory image.
type AcfLocationData struct {
	Buffer uintptr
	Size   int32
}

// ArmTag implements nativeref.Arm.
func (AcfLocationData) ArmTag() int32 { return int32(AcfLocationTypeOnMemory) }

// Each constructor stores its arm in the payload and sets the matching
// discriminant; there is no way to build a location with a mismatched pair.

// NewAcfLocationName builds a by-path location.
func NewAcfLocationName(binder, path uintptr) AcfLocationInfo {
	l := AcfLocationInfo{Type: AcfLocationTypeName}
	*(*AcfLocationName)(unsafe.Pointer(&l.Payload)) = AcfLocationName{Binder: binder, Path: path}
	return l
}

// NewAcfLocationID builds a by-ID location.
func NewAcfLocationID(binder uintptr, id int32) AcfLocationInfo {
	l := AcfLocationInfo{Type: AcfLocationTypeID}
	*(*AcfLocationID)(unsafe.Pointer(&l.Payload)) = AcfLocationID{Binder: binder, ID: id}
	return l
}

// NewAcfLocationData builds an on-memory location.
func NewAcfLocationData(buffer uintptr, size int32) AcfLocationInfo {
	l := AcfLocationInfo{Type: AcfLocationTypeOnMemory}
	*(*AcfLocationData)(unsafe.Pointer(&l.Payload)) = AcfLocationData{Buffer: buffer, Size: size}
	return l
}
