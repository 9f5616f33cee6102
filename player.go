package atom

import (
	"github.com/opd-ai/atomgo/bridge"
	"github.com/opd-ai/atomgo/handle"
	"github.com/opd-ai/atomgo/interfaces"
	"github.com/opd-ai/atomgo/limits"
)

// Player plays cues. It owns its native player.
type Player struct {
	engine   *Engine
	h        *handle.Handle
	playback *bridge.PlaybackEventSlot
}

// NewPlayer creates a native player.
func (e *Engine) NewPlayer() (*Player, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	h, err := e.newHandle(e.native.CreatePlayer(), "player", e.native.DestroyPlayer)
	if err != nil {
		return nil, err
	}
	raw, _ := h.Raw()
	p := &Player{
		engine:   e,
		h:        h,
		playback: bridge.NewPlaybackEventSlot("playback_event", e.slotOptions(bridge.KindPlaybackEvent, uintptr(raw))...),
	}
	if err := e.track(h, p); err != nil {
		_ = p.playback.Close()
		_ = h.Release()
		return nil, err
	}
	return p, nil
}

// Handle returns the native handle.
func (p *Player) Handle() *handle.Handle { return p.h }

// SetCueName selects the cue Start plays.
func (p *Player) SetCueName(name string) error {
	raw, err := p.h.Raw()
	if err != nil {
		return err
	}
	buf := p.engine.getScratch()
	defer p.engine.putScratch(buf)
	arg, err := p.engine.encode(buf[:0], name, limits.FieldName, true)
	if err != nil {
		return err
	}
	if !p.engine.native.SetCueName(uintptr(raw), arg.Ptr()) {
		return rejected("set cue name")
	}
	return nil
}

// Start plays the selected cue and returns the playback ID.
func (p *Player) Start() (uint32, error) {
	raw, err := p.h.Raw()
	if err != nil {
		return 0, err
	}
	id := p.engine.native.StartPlayer(uintptr(raw))
	if id == interfaces.InvalidPlaybackID {
		return 0, rejected("start player")
	}
	return id, nil
}

// OnPlaybackEvent sets the playback event handler, replacing any previous
// one. A nil fn removes it. fn runs on the engine's server thread.
func (p *Player) OnPlaybackEvent(fn func(args bridge.PlaybackEventArgs)) error {
	if fn == nil {
		return p.playback.Unregister()
	}
	return p.playback.Register(func(_ any, args bridge.PlaybackEventArgs) bridge.Void {
		fn(args)
		return bridge.Void{}
	}, p)
}

// Close stops callbacks and destroys the native player.
func (p *Player) Close() error {
	err := p.playback.Close()
	p.engine.untrack(p.h)
	if rerr := p.h.Release(); rerr != nil {
		return rerr
	}
	return err
}
