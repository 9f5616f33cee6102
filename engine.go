package atom

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/opd-ai/atomgo/argstring"
	"github.com/opd-ai/atomgo/bridge"
	"github.com/opd-ai/atomgo/factory"
	"github.com/opd-ai/atomgo/handle"
	"github.com/opd-ai/atomgo/interfaces"
	"github.com/opd-ai/atomgo/limits"
	"github.com/opd-ai/atomgo/logging"
	"github.com/opd-ai/atomgo/nativeref"
	"github.com/opd-ai/atomgo/trampoline"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNativeRejected indicates the engine answered with its failure
	// sentinel (a zero handle, an invalid playback ID or false).
	ErrNativeRejected = errors.New("native engine rejected the call")

	// ErrClosed indicates a call on a closed engine or object.
	ErrClosed = errors.New("engine closed")
)

// closer is implemented by every engine-created wrapper.
type closer interface {
	Close() error
}

// Engine owns one initialized native engine and the objects created on it.
type Engine struct {
	id     uuid.UUID
	opts   Options
	native interfaces.NativeEngine
	enc    *argstring.Encoder

	// scratch holds *[argstring.ScratchSize]byte buffers for string
	// arguments; native calls take them by pointer, so stack buffers would
	// escape on every call.
	scratch sync.Pool

	mu      sync.Mutex
	closed  bool
	objects handle.Table[closer]
	acf     *nativeref.Held

	beatSync  *bridge.BeatSyncSlot
	sequencer *bridge.SequencerEventSlot
}

// NewEngine creates and initializes the engine selected by opts. A nil opts
// means NewOptions with environment overrides applied.
func NewEngine(opts *Options) (*Engine, error) {
	if opts == nil {
		opts = NewOptions()
		opts.ApplyEnvironment()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f := factory.NewEngineFactory()
	native, err := f.CreateEngine(opts.engineConfig())
	if err != nil {
		return nil, err
	}
	return NewEngineWith(native, opts)
}

// NewEngineWith initializes native and wraps it. Tests pass a
// testing.SimulatedEngine here.
func NewEngineWith(native interfaces.NativeEngine, opts *Options) (*Engine, error) {
	if native == nil {
		return nil, fmt.Errorf("native engine cannot be nil")
	}
	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := logging.SetLevel(opts.LogLevel); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	if err := native.Initialize(opts.engineConfig()); err != nil {
		return nil, fmt.Errorf("initialize engine: %w", err)
	}

	e := &Engine{
		id:     uuid.New(),
		opts:   *opts,
		native: native,
		enc:    opts.encoder(),
	}
	e.scratch.New = func() any { return new([argstring.ScratchSize]byte) }
	e.beatSync = bridge.NewBeatSyncSlot("beat_sync", e.slotOptions(bridge.KindBeatSync, 0)...)
	e.sequencer = bridge.NewSequencerEventSlot("sequencer_event", e.slotOptions(bridge.KindSequencerEvent, 0)...)

	e.logger("NewEngineWith").WithFields(logrus.Fields{
		"simulation":       native.IsSimulation(),
		"server_frequency": opts.ServerFrequency,
		"text_encoding":    e.enc.Encoding().String(),
	}).Info("Engine initialized")
	return e, nil
}

// SessionID identifies this engine instance in logs.
func (e *Engine) SessionID() uuid.UUID { return e.id }

// Native returns the underlying native engine.
func (e *Engine) Native() interfaces.NativeEngine { return e.native }

// Options returns a copy of the options the engine was created with.
func (e *Engine) Options() Options { return e.opts }

// ExecuteMain runs one server step on the calling goroutine. It briefly
// blocks the server and must not be called from a callback.
func (e *Engine) ExecuteMain() error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.native.ExecuteMain()
	return nil
}

// Close unregisters every callback, destroys every object still alive and
// finalizes the native engine. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	var errs []error
	var live []closer
	e.objects.Range(func(_ handle.Raw, c closer) bool {
		live = append(live, c)
		return true
	})
	for _, c := range live {
		errs = append(errs, c.Close())
	}
	errs = append(errs, e.beatSync.Close(), e.sequencer.Close())

	e.mu.Lock()
	e.acf.Release()
	e.acf = nil
	e.mu.Unlock()

	errs = append(errs, e.native.Finalize())
	err := errors.Join(errs...)

	log := e.logger("Close").WithField("destroyed_objects", len(live))
	if err != nil {
		log.WithError(err, "close").Warn("Engine closed with errors")
	} else {
		log.Info("Engine closed")
	}
	return err
}

func (e *Engine) checkOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

func (e *Engine) logger(function string) *logging.Helper {
	return logging.New("atom", function).WithField("session", e.id.String())
}

func (e *Engine) slotOptions(kind bridge.Kind, owner uintptr) []trampoline.Option {
	return []trampoline.Option{
		trampoline.WithBinder(bridge.Binder(e.native, kind, owner)),
		trampoline.WithDrainTimeout(e.opts.DrainTimeout),
		trampoline.WithBudget(e.opts.CallbackBudget),
	}
}

// newHandle wraps the raw result of a native constructor.
func (e *Engine) newHandle(raw uintptr, kind string, destroy func(uintptr)) (*handle.Handle, error) {
	if raw == 0 {
		return nil, fmt.Errorf("%w: create %s", ErrNativeRejected, kind)
	}
	return handle.New(handle.Raw(raw), true, handle.DestroyerFunc(func(r handle.Raw) error {
		destroy(uintptr(r))
		return nil
	}), handle.WithKind(kind), handle.WithSlowReleaseThreshold(e.opts.SlowReleaseThreshold))
}

func (e *Engine) track(h *handle.Handle, c closer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.objects.Put(h, c)
}

func (e *Engine) untrack(h *handle.Handle) {
	e.objects.Delete(h)
}

// LiveObjects returns the number of engine-created objects not yet closed.
func (e *Engine) LiveObjects() int { return e.objects.Len() }

func (e *Engine) getScratch() *[argstring.ScratchSize]byte {
	return e.scratch.Get().(*[argstring.ScratchSize]byte)
}

func (e *Engine) putScratch(buf *[argstring.ScratchSize]byte) {
	e.scratch.Put(buf)
}

// encode prepares text for field. Required fields reject empty text.
func (e *Engine) encode(scratch []byte, text string, field limits.Field, required bool) (argstring.ArgString, error) {
	arg, err := e.enc.Encode(scratch, text, field)
	if err == nil && required {
		err = limits.ValidateRequired(field, arg.Len())
	}
	if err != nil {
		return argstring.ArgString{}, fmt.Errorf("%s %q: %w", field, text, err)
	}
	return arg, nil
}

func rejected(op string) error {
	return fmt.Errorf("%w: %s", ErrNativeRejected, op)
}
