package bridge

import (
	"unsafe"

	"github.com/opd-ai/atomgo/abi"
	"github.com/opd-ai/atomgo/nativeref"
	"github.com/opd-ai/atomgo/trampoline"
)

// Slot types, one per callback kind.
type (
	PlaybackEventSlot  = trampoline.Slot[PlaybackEventArgs, Void]
	BeatSyncSlot       = trampoline.Slot[BeatSyncArgs, int32]
	SequencerEventSlot = trampoline.Slot[SequencerEventArgs, int32]
	RandomPositionSlot = trampoline.Slot[RandomPositionArgs, Void]
	StreamingCacheSlot = trampoline.Slot[StreamingCacheArgs, bool]
)

// NewPlaybackEventSlot creates a playback event slot in the default registry.
func NewPlaybackEventSlot(name string, opts ...trampoline.Option) *PlaybackEventSlot {
	return trampoline.NewSlot[PlaybackEventArgs, Void](trampoline.Default(), name, Void{}, opts...)
}

// NewBeatSyncSlot creates a beat sync slot in the default registry.
func NewBeatSyncSlot(name string, opts ...trampoline.Option) *BeatSyncSlot {
	return trampoline.NewSlot[BeatSyncArgs, int32](trampoline.Default(), name, BeatSyncNeutral, opts...)
}

// NewSequencerEventSlot creates a sequencer event slot in the default
// registry.
func NewSequencerEventSlot(name string, opts ...trampoline.Option) *SequencerEventSlot {
	return trampoline.NewSlot[SequencerEventArgs, int32](trampoline.Default(), name, SequencerEventNeutral, opts...)
}

// NewRandomPositionSlot creates a random position slot in the default
// registry.
func NewRandomPositionSlot(name string, opts ...trampoline.Option) *RandomPositionSlot {
	return trampoline.NewSlot[RandomPositionArgs, Void](trampoline.Default(), name, Void{}, opts...)
}

// NewStreamingCacheSlot creates a streaming cache slot in the default
// registry.
func NewStreamingCacheSlot(name string, opts ...trampoline.Option) *StreamingCacheSlot {
	return trampoline.NewSlot[StreamingCacheArgs, bool](trampoline.Default(), name, StreamingCacheNeutral, opts...)
}

// PlaybackEventEntry is called by the native side for playback events.
func PlaybackEventEntry(ctx uint64, event int32, info unsafe.Pointer) {
	s := nativeref.Begin()
	defer s.End()
	trampoline.Dispatch(trampoline.Default(), trampoline.ID(ctx), PlaybackEventArgs{
		Event: PlaybackEventType(event),
		Info:  nativeref.NewRef[abi.PlaybackInfo](s, info),
	}, Void{})
}

// BeatSyncEntry is called by the native side on every beat.
func BeatSyncEntry(ctx uint64, info unsafe.Pointer) int32 {
	s := nativeref.Begin()
	defer s.End()
	return trampoline.Dispatch(trampoline.Default(), trampoline.ID(ctx), BeatSyncArgs{
		Info: nativeref.NewRef[abi.BeatSyncInfo](s, info),
	}, BeatSyncNeutral)
}

// SequencerEventEntry is called by the native side on sequence markers.
func SequencerEventEntry(ctx uint64, info unsafe.Pointer) int32 {
	s := nativeref.Begin()
	defer s.End()
	return trampoline.Dispatch(trampoline.Default(), trampoline.ID(ctx), SequencerEventArgs{
		Info: nativeref.NewRef[abi.SequenceEventInfo](s, info),
	}, SequencerEventNeutral)
}

// RandomPositionEntry is called by the native side to randomize a source
// position. output must stay writable until the call returns.
func RandomPositionEntry(ctx uint64, input, output, config unsafe.Pointer) {
	s := nativeref.Begin()
	defer s.End()
	trampoline.Dispatch(trampoline.Default(), trampoline.ID(ctx), RandomPositionArgs{
		Input:  nativeref.NewRef[abi.Vector](s, input),
		Output: nativeref.NewMutRef[abi.Vector](s, output),
		Config: nativeref.NewRef[abi.RandomPositionConfig](s, config),
	}, Void{})
}

// StreamingCacheEntry is called by the native side when a streaming cache
// completes. The result tells the engine whether to keep notifying.
func StreamingCacheEntry(ctx uint64, cache uintptr) bool {
	return trampoline.Dispatch(trampoline.Default(), trampoline.ID(ctx), StreamingCacheArgs{
		Cache: cache,
	}, StreamingCacheNeutral)
}
