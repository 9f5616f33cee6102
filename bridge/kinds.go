package bridge

import (
	"fmt"

	"github.com/opd-ai/atomgo/trampoline"
)

// Kind names a native callback slot type.
type Kind uint8

const (
	// KindPlaybackEvent fires on voice allocation and virtualization changes
	// of a player's playbacks.
	KindPlaybackEvent Kind = iota + 1
	// KindBeatSync fires on every beat of a playing cue.
	KindBeatSync
	// KindSequencerEvent fires on sequence callback markers.
	KindSequencerEvent
	// KindRandomPosition asks for a randomized 3D source position.
	KindRandomPosition
	// KindStreamingCache fires when a streaming cache finishes loading.
	KindStreamingCache
)

var kindNames = map[Kind]string{
	KindPlaybackEvent:  "playback_event",
	KindBeatSync:       "beat_sync",
	KindSequencerEvent: "sequencer_event",
	KindRandomPosition: "random_position",
	KindStreamingCache: "streaming_cache",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Kinds lists every callback kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindPlaybackEvent, KindBeatSync, KindSequencerEvent, KindRandomPosition, KindStreamingCache}
}

// Neutral values returned to the native side when no handler is registered
// or a handler panics.
const (
	BeatSyncNeutral       int32 = 0
	SequencerEventNeutral int32 = 0
	StreamingCacheNeutral       = false
)

// NativeBinder is the part of the native engine that points a callback slot
// of owner at the entry point for kind, with ctx as the context value.
// owner is 0 for engine-wide slots.
type NativeBinder interface {
	BindCallback(kind Kind, owner uintptr, ctx uint64) error
	UnbindCallback(kind Kind, owner uintptr) error
}

type slotBinder struct {
	native NativeBinder
	kind   Kind
	owner  uintptr
}

func (b slotBinder) Bind(id trampoline.ID) error {
	return b.native.BindCallback(b.kind, b.owner, uint64(id))
}

func (b slotBinder) Unbind(trampoline.ID) error {
	return b.native.UnbindCallback(b.kind, b.owner)
}

// Binder adapts a NativeBinder to the trampoline.Binder of one slot.
func Binder(native NativeBinder, kind Kind, owner uintptr) trampoline.Binder {
	return slotBinder{native: native, kind: kind, owner: owner}
}
