package atom

import (
	"github.com/opd-ai/atomgo/handle"
	"github.com/opd-ai/atomgo/limits"
)

// OutputPort is an output port defined by the registered ACF. The engine owns
// it; closing only detaches the wrapper.
type OutputPort struct {
	name string
	h    *handle.Handle
}

// OutputPort looks up a port by name.
func (e *Engine) OutputPort(name string) (*OutputPort, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	buf := e.getScratch()
	defer e.putScratch(buf)
	arg, err := e.encode(buf[:0], name, limits.FieldOutputPortName, true)
	if err != nil {
		return nil, err
	}
	raw := e.native.OutputPortByName(arg.Ptr())
	if raw == 0 {
		return nil, rejected("output port " + name)
	}
	h, err := handle.New(handle.Raw(raw), false, nil, handle.WithKind("output_port"))
	if err != nil {
		return nil, err
	}
	return &OutputPort{name: name, h: h}, nil
}

// Name returns the port name.
func (o *OutputPort) Name() string { return o.name }

// Handle returns the native handle.
func (o *OutputPort) Handle() *handle.Handle { return o.h }

// Close detaches the wrapper; the port stays alive in the engine.
func (o *OutputPort) Close() error { return o.h.Release() }
