package handle

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/opd-ai/atomgo/logging"
	"github.com/sirupsen/logrus"
)

// Raw is the pointer-sized native value identifying an engine object.
// Zero means "no object".
type Raw uintptr

// DefaultSlowReleaseThreshold is the destroy duration above which Release
// logs a warning.
const DefaultSlowReleaseThreshold = 5 * time.Millisecond

var (
	// ErrReleased indicates the handle was used after Release.
	ErrReleased = errors.New("handle already released")

	// ErrZero indicates the handle does not refer to any native object.
	ErrZero = errors.New("zero handle")

	// ErrNoDestroyer indicates a destroyable handle was created without a
	// destroy entry point.
	ErrNoDestroyer = errors.New("destroyable handle has no destroyer")
)

// Destroyer is the native destroy entry point for one kind of object.
type Destroyer interface {
	Destroy(raw Raw) error
}

// DestroyerFunc adapts a function to Destroyer.
type DestroyerFunc func(raw Raw) error

// Destroy calls f(raw).
func (f DestroyerFunc) Destroy(raw Raw) error { return f(raw) }

// Handle is a single-owner reference to a native object.
type Handle struct {
	raw         Raw
	destroyable bool
	destroyer   Destroyer
	kind        string
	slow        time.Duration
	released    atomic.Bool
}

// Option configures a Handle at creation.
type Option func(*Handle)

// WithKind names the object kind in log output ("player", "output_port").
func WithKind(kind string) Option {
	return func(h *Handle) { h.kind = kind }
}

// WithSlowReleaseThreshold overrides DefaultSlowReleaseThreshold.
func WithSlowReleaseThreshold(d time.Duration) Option {
	return func(h *Handle) {
		if d > 0 {
			h.slow = d
		}
	}
}

// New wraps a raw native value. A zero raw value yields a zero handle that
// compares equal to every other zero handle and whose Release is a no-op.
func New(raw Raw, destroyable bool, d Destroyer, opts ...Option) (*Handle, error) {
	if raw != 0 && destroyable && d == nil {
		return nil, ErrNoDestroyer
	}
	h := &Handle{
		raw:         raw,
		destroyable: destroyable,
		destroyer:   d,
		kind:        "object",
		slow:        DefaultSlowReleaseThreshold,
	}
	for _, opt := range opts {
		opt(h)
	}
	if raw != 0 && destroyable {
		runtime.SetFinalizer(h, finalize)
	}
	return h, nil
}

// Zero returns a handle that refers to no object.
func Zero() *Handle {
	return &Handle{kind: "object", slow: DefaultSlowReleaseThreshold}
}

func finalize(h *Handle) {
	logging.New("handle", "finalize").WithFields(logrus.Fields{
		"kind": h.kind,
		"raw":  fmt.Sprintf("%#x", uintptr(h.raw)),
	}).Warn("Native handle leaked without Release, releasing from finalizer")
	_ = h.Release()
}

// IsDestroyable reports whether the caller owns the native object's lifetime.
func (h *Handle) IsDestroyable() bool {
	return h != nil && h.destroyable
}

// IsZero reports whether the handle refers to no object.
func (h *Handle) IsZero() bool {
	return h == nil || h.raw == 0
}

// IsReleased reports whether Release has been called.
func (h *Handle) IsReleased() bool {
	return h != nil && h.released.Load()
}

// Kind returns the object kind given at creation.
func (h *Handle) Kind() string {
	if h == nil {
		return "object"
	}
	return h.kind
}

// Raw returns the native value for passing to an entry point.
func (h *Handle) Raw() (Raw, error) {
	if h.IsZero() {
		return 0, ErrZero
	}
	if h.released.Load() {
		return 0, fmt.Errorf("%w: %s %#x", ErrReleased, h.kind, uintptr(h.raw))
	}
	return h.raw, nil
}

// Equal reports whether both handles refer to the same native object. Only
// the raw value takes part; a released handle still equals its original.
func (h *Handle) Equal(other *Handle) bool {
	return h.key() == other.key()
}

// Hash returns a hash of the raw value, consistent with Equal.
func (h *Handle) Hash() uint64 {
	// splitmix64 finalizer
	z := uint64(h.key()) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (h *Handle) key() Raw {
	if h == nil {
		return 0
	}
	return h.raw
}

// String formats the handle for logs.
func (h *Handle) String() string {
	if h.IsZero() {
		return "handle(zero)"
	}
	state := "live"
	if h.released.Load() {
		state = "released"
	}
	return fmt.Sprintf("handle(%s %#x %s)", h.kind, uintptr(h.raw), state)
}

// Release gives the native object back. Destroyable handles call the native
// destroy entry point synchronously; non-destroyable handles are only detached.
// Releasing twice, or releasing a zero handle, is a no-op.
func (h *Handle) Release() error {
	if h.IsZero() || !h.released.CompareAndSwap(false, true) {
		return nil
	}
	runtime.SetFinalizer(h, nil)

	if !h.destroyable {
		logging.New("handle", "Release").WithFields(logrus.Fields{
			"kind": h.kind,
			"raw":  fmt.Sprintf("%#x", uintptr(h.raw)),
		}).Debug("Detached engine-owned handle without destroying it")
		return nil
	}

	start := time.Now()
	err := h.destroyer.Destroy(h.raw)
	elapsed := time.Since(start)

	log := logging.New("handle", "Release").WithFields(logrus.Fields{
		"kind":    h.kind,
		"raw":     fmt.Sprintf("%#x", uintptr(h.raw)),
		"elapsed": elapsed,
	})
	if err != nil {
		log.WithError(err, "destroy").Error("Native destroy failed")
		return fmt.Errorf("destroy %s: %w", h.kind, err)
	}
	if elapsed > h.slow {
		log.WithField("threshold", h.slow).Warn("Native destroy blocked longer than expected")
	}
	return nil
}
