package atom

import (
	"fmt"

	"github.com/opd-ai/atomgo/abi"
	"github.com/opd-ai/atomgo/bridge"
	"github.com/opd-ai/atomgo/handle"
	"github.com/opd-ai/atomgo/inline"
)

// Source3D is a positional sound source.
type Source3D struct {
	engine *Engine
	h      *handle.Handle
	random *bridge.RandomPositionSlot
}

// NewSource3D creates a native 3D source.
func (e *Engine) NewSource3D() (*Source3D, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	h, err := e.newHandle(e.native.CreateSource3D(), "source3d", e.native.DestroySource3D)
	if err != nil {
		return nil, err
	}
	raw, _ := h.Raw()
	s := &Source3D{
		engine: e,
		h:      h,
		random: bridge.NewRandomPositionSlot("random_position", e.slotOptions(bridge.KindRandomPosition, uintptr(raw))...),
	}
	if err := e.track(h, s); err != nil {
		_ = s.random.Close()
		_ = h.Release()
		return nil, err
	}
	return s, nil
}

// Handle returns the native handle.
func (s *Source3D) Handle() *handle.Handle { return s.h }

// SetPosition moves the source.
func (s *Source3D) SetPosition(pos abi.Vector) error {
	raw, err := s.h.Raw()
	if err != nil {
		return err
	}
	if !s.engine.native.SetSourcePosition(uintptr(raw), &pos) {
		return rejected("set source position")
	}
	return nil
}

// SetRandomPositionConfig selects how the engine randomizes the source
// position. params holds up to three calculation parameters.
func (s *Source3D) SetRandomPositionConfig(calc abi.RandomPositionCalculation, params ...float32) error {
	raw, err := s.h.Raw()
	if err != nil {
		return err
	}
	arr, err := inline.Array3Of(params...)
	if err != nil {
		return fmt.Errorf("random position parameters: %w", err)
	}
	config := abi.RandomPositionConfig{Calculation: calc, Params: arr}
	if !s.engine.native.SetRandomPositionConfig(uintptr(raw), &config) {
		return rejected("set random position config")
	}
	return nil
}

// OnRandomPosition sets the handler that picks randomized positions. It must
// write args.Output before returning. A nil fn removes it.
func (s *Source3D) OnRandomPosition(fn func(args bridge.RandomPositionArgs)) error {
	if fn == nil {
		return s.random.Unregister()
	}
	return s.random.Register(func(_ any, args bridge.RandomPositionArgs) bridge.Void {
		fn(args)
		return bridge.Void{}
	}, s)
}

// Close stops callbacks and destroys the native source.
func (s *Source3D) Close() error {
	err := s.random.Close()
	s.engine.untrack(s.h)
	if rerr := s.h.Release(); rerr != nil {
		return rerr
	}
	return err
}
