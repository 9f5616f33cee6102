package bridge

import (
	"github.com/opd-ai/atomgo/abi"
	"github.com/opd-ai/atomgo/argstring"
	"github.com/opd-ai/atomgo/limits"
	"github.com/opd-ai/atomgo/nativeref"
)

// PlaybackEventType is the event code of a playback callback.
type PlaybackEventType int32

const (
	PlaybackEventAllocate PlaybackEventType = iota
	PlaybackEventFromNormalToVirtual
	PlaybackEventFromVirtualToNormal
	PlaybackEventRemove
)

func (t PlaybackEventType) String() string {
	switch t {
	case PlaybackEventAllocate:
		return "allocate"
	case PlaybackEventFromNormalToVirtual:
		return "normal_to_virtual"
	case PlaybackEventFromVirtualToNormal:
		return "virtual_to_normal"
	case PlaybackEventRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// PlaybackEventArgs are the arguments of a playback event callback.
type PlaybackEventArgs struct {
	Event PlaybackEventType
	Info  nativeref.Ref[abi.PlaybackInfo]
}

// BeatSyncArgs are the arguments of a beat sync callback.
type BeatSyncArgs struct {
	Info nativeref.Ref[abi.BeatSyncInfo]
}

// SequencerEventArgs are the arguments of a sequencer event callback.
// Encoder decodes the marker string; nil means argstring.Default.
type SequencerEventArgs struct {
	Info    nativeref.Ref[abi.SequenceEventInfo]
	Encoder *argstring.Encoder
}

// Text reads the marker string attached to the event. It allocates, and fails
// with nativeref.ErrExpired once the callback has returned.
func (a SequencerEventArgs) Text() (string, error) {
	info, err := a.Info.Deref()
	if err != nil {
		return "", err
	}
	if info.String == nil {
		return "", nil
	}
	enc := a.Encoder
	if enc == nil {
		enc = argstring.Default
	}
	return enc.ReadNative(info.String, limits.MaxNameLength)
}

// RandomPositionArgs are the arguments of a random position callback. The
// handler writes the chosen position to Output.
type RandomPositionArgs struct {
	Input  nativeref.Ref[abi.Vector]
	Output nativeref.MutRef[abi.Vector]
	Config nativeref.Ref[abi.RandomPositionConfig]
}

// StreamingCacheArgs are the arguments of a streaming cache completion
// callback.
type StreamingCacheArgs struct {
	Cache uintptr
}

// Void is the result type of callbacks that return nothing.
type Void = struct{}
