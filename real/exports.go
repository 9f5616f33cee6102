//go:build atomnative && cgo

package real

/*
#include <stdbool.h>
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/opd-ai/atomgo/bridge"
)

func ctxOf(obj unsafe.Pointer) uint64 {
	return uint64(uintptr(obj))
}

//export atomgoPlaybackEvent
func atomgoPlaybackEvent(obj unsafe.Pointer, event C.int32_t, info unsafe.Pointer) {
	bridge.PlaybackEventEntry(ctxOf(obj), int32(event), info)
}

//export atomgoBeatSync
func atomgoBeatSync(obj unsafe.Pointer, info unsafe.Pointer) C.int32_t {
	return C.int32_t(bridge.BeatSyncEntry(ctxOf(obj), info))
}

//export atomgoSequencerEvent
func atomgoSequencerEvent(obj unsafe.Pointer, info unsafe.Pointer) C.int32_t {
	return C.int32_t(bridge.SequencerEventEntry(ctxOf(obj), info))
}

//export atomgoRandomPosition
func atomgoRandomPosition(obj unsafe.Pointer, input, output, config unsafe.Pointer) {
	bridge.RandomPositionEntry(ctxOf(obj), input, output, config)
}

//export atomgoStreamingCache
func atomgoStreamingCache(obj unsafe.Pointer, cache C.uintptr_t) C.bool {
	return C.bool(bridge.StreamingCacheEntry(ctxOf(obj), uintptr(cache)))
}
