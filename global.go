package atom

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/opd-ai/atomgo/abi"
	"github.com/opd-ai/atomgo/bridge"
	"github.com/opd-ai/atomgo/limits"
	"github.com/opd-ai/atomgo/nativeref"
)

// OnBeatSync sets the engine-wide beat handler. A nil fn removes it.
func (e *Engine) OnBeatSync(fn func(args bridge.BeatSyncArgs) int32) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if fn == nil {
		return e.beatSync.Unregister()
	}
	return e.beatSync.Register(func(_ any, args bridge.BeatSyncArgs) int32 {
		return fn(args)
	}, e)
}

// OnSequencerEvent sets the engine-wide sequence marker handler. A nil fn
// removes it.
func (e *Engine) OnSequencerEvent(fn func(args bridge.SequencerEventArgs) int32) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if fn == nil {
		return e.sequencer.Unregister()
	}
	return e.sequencer.Register(func(_ any, args bridge.SequencerEventArgs) int32 {
		args.Encoder = e.enc
		return fn(args)
	}, e)
}

// SetBusVolumeByName sets the volume of a DSP bus.
func (e *Engine) SetBusVolumeByName(name string, volume float32) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	buf := e.getScratch()
	defer e.putScratch(buf)
	arg, err := e.encode(buf[:0], name, limits.FieldName, true)
	if err != nil {
		return err
	}
	if !e.native.SetBusVolumeByName(arg.Ptr(), volume) {
		return rejected("set bus volume " + name)
	}
	return nil
}

// RegisterAcfFile loads the global configuration from a file.
func (e *Engine) RegisterAcfFile(path string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	buf := e.getScratch()
	defer e.putScratch(buf)
	arg, err := e.encode(buf[:0], path, limits.FieldPath, true)
	if err != nil {
		return err
	}
	loc := abi.NewAcfLocationName(0, uintptr(unsafe.Pointer(arg.Ptr())))

	var ok bool
	nativeref.Pin(func() { ok = e.native.RegisterAcf(&loc) }, arg.Ptr())
	if !ok {
		return rejected("register acf file")
	}
	return e.swapAcf(nil)
}

// RegisterAcfByID loads the global configuration bundled under id.
func (e *Engine) RegisterAcfByID(id int32) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	loc := abi.NewAcfLocationID(0, id)
	if !e.native.RegisterAcf(&loc) {
		return rejected("register acf id")
	}
	return e.swapAcf(nil)
}

// RegisterAcfData loads the global configuration from memory. The engine
// keeps reading data after the call, so data stays pinned until the next
// registration or Close and must not be modified.
func (e *Engine) RegisterAcfData(data []byte) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty acf data", limits.ErrEmpty)
	}
	if len(data) > math.MaxInt32 {
		return fmt.Errorf("%w: acf data of %d bytes", limits.ErrTooLong, len(data))
	}

	held := nativeref.Hold(&data[0])
	loc := abi.NewAcfLocationData(uintptr(unsafe.Pointer(&data[0])), int32(len(data)))
	if !e.native.RegisterAcf(&loc) {
		held.Release()
		return rejected("register acf data")
	}
	return e.swapAcf(held)
}

// swapAcf records the pin for the ACF now registered (nil when the engine
// no longer reads Go memory) and releases the previous one. A swap that
// loses the race with Close releases held itself.
func (e *Engine) swapAcf(held *nativeref.Held) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		held.Release()
		return ErrClosed
	}
	prev := e.acf
	e.acf = held
	e.mu.Unlock()
	prev.Release()
	return nil
}

// SetBusIndexTable installs a bus remapping table of up to 64 entries.
func (e *Engine) SetBusIndexTable(indices []uint16) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	var table abi.BusIndexTable
	if len(indices) > table.Indices.Len() {
		return fmt.Errorf("%w: %d bus indices, table holds %d", limits.ErrTooLong, len(indices), table.Indices.Len())
	}
	for i, v := range indices {
		if err := table.Indices.Set(i, v); err != nil {
			return err
		}
	}
	table.NumBuses = int32(len(indices))
	if !e.native.SetBusIndexTable(&table) {
		return rejected("set bus index table")
	}
	return nil
}
