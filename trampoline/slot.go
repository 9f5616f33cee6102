package trampoline

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/atomgo/logging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/cpu"
)

// DefaultDrainTimeout bounds how long Unregister waits for running handlers.
const DefaultDrainTimeout = 2 * time.Second

var (
	// ErrClosed indicates the slot's owner was destroyed.
	ErrClosed = errors.New("callback slot closed")

	// ErrBindFailed indicates the native side refused the entry point.
	ErrBindFailed = errors.New("native callback bind failed")

	// ErrUnbindFailed indicates the native side could not clear the slot;
	// the handler stays registered.
	ErrUnbindFailed = errors.New("native callback unbind failed")

	// ErrDrainTimeout indicates a handler was still running when the drain
	// timeout elapsed, typically because Unregister was called from inside it.
	ErrDrainTimeout = errors.New("callback still running after unregister")
)

// State is the registration state of a slot.
type State uint8

const (
	// Unregistered means the native slot holds no function pointer.
	Unregistered State = iota
	// Registered means the native slot holds the entry point.
	Registered
)

func (s State) String() string {
	if s == Registered {
		return "registered"
	}
	return "unregistered"
}

// Binder points the native slot at the entry point (Bind) or clears it
// (Unbind). Both receive the slot ID to pass as the native context value.
type Binder interface {
	Bind(id ID) error
	Unbind(id ID) error
}

type nopBinder struct{}

func (nopBinder) Bind(ID) error   { return nil }
func (nopBinder) Unbind(ID) error { return nil }

// Func is a Go callback handler. ctx is the value given to Register.
type Func[A, R any] func(ctx any, args A) R

type binding[A, R any] struct {
	fn  Func[A, R]
	ctx any
	gen uint64
}

// Stats counts slot activity.
type Stats struct {
	Registrations   uint64
	Unregistrations uint64
	Invocations     uint64
	Unhandled       uint64
	Panics          uint64
	Overruns        uint64
}

// Slot is one native callback slot.
type Slot[A, R any] struct {
	id      ID
	name    string
	neutral R
	binder  Binder
	reg     *Registry
	drain   time.Duration
	budget  time.Duration

	mu     sync.Mutex
	gen    uint64
	closed bool

	_        cpu.CacheLinePad
	cur      atomic.Pointer[binding[A, R]]
	inflight atomic.Int64
	_        cpu.CacheLinePad

	registrations   atomic.Uint64
	unregistrations atomic.Uint64
	invocations     atomic.Uint64
	unhandled       atomic.Uint64
	panics          atomic.Uint64
	overruns        atomic.Uint64
}

// Option configures a Slot.
type Option func(*slotConfig)

type slotConfig struct {
	binder Binder
	drain  time.Duration
	budget time.Duration
}

// WithBinder sets the native side of the slot. Without one the slot is
// purely in-process.
func WithBinder(b Binder) Option {
	return func(c *slotConfig) { c.binder = b }
}

// WithDrainTimeout overrides DefaultDrainTimeout.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *slotConfig) {
		if d > 0 {
			c.drain = d
		}
	}
}

// WithBudget counts handler runs longer than d as overruns. Zero disables
// timing.
func WithBudget(d time.Duration) Option {
	return func(c *slotConfig) { c.budget = d }
}

// NewSlot creates an unregistered slot in r. neutral is what Invoke returns
// when no handler is registered or the handler panics.
func NewSlot[A, R any](r *Registry, name string, neutral R, opts ...Option) *Slot[A, R] {
	cfg := slotConfig{binder: nopBinder{}, drain: DefaultDrainTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Slot[A, R]{
		name:    name,
		neutral: neutral,
		binder:  cfg.binder,
		reg:     r,
		drain:   cfg.drain,
		budget:  cfg.budget,
	}
	s.id = r.add(s)
	return s
}

// ID returns the native context value of the slot.
func (s *Slot[A, R]) ID() ID { return s.id }

// Name returns the slot name given at creation.
func (s *Slot[A, R]) Name() string { return s.name }

// Neutral returns the value Invoke yields without a handler.
func (s *Slot[A, R]) Neutral() R { return s.neutral }

// State reports whether a handler is registered.
func (s *Slot[A, R]) State() State {
	if s.cur.Load() != nil {
		return Registered
	}
	return Unregistered
}

// Context returns the context of the current registration, if any.
func (s *Slot[A, R]) Context() (any, bool) {
	b := s.cur.Load()
	if b == nil {
		return nil, false
	}
	return b.ctx, true
}

// Generation numbers registrations; it increases with every Register.
func (s *Slot[A, R]) Generation() uint64 {
	b := s.cur.Load()
	if b == nil {
		return 0
	}
	return b.gen
}

// Register installs fn with ctx, replacing any previous handler. A nil fn
// unregisters.
func (s *Slot[A, R]) Register(fn Func[A, R], ctx any) error {
	if fn == nil {
		return s.Unregister()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: %s", ErrClosed, s.name)
	}

	s.gen++
	prev := s.cur.Swap(&binding[A, R]{fn: fn, ctx: ctx, gen: s.gen})
	if prev == nil {
		if err := s.binder.Bind(s.id); err != nil {
			s.cur.Store(nil)
			s.logger("Register").WithError(err, "bind").Error("Native side refused callback entry point")
			return fmt.Errorf("%w: %s: %v", ErrBindFailed, s.name, err)
		}
	}
	s.registrations.Add(1)

	s.logger("Register").WithFields(logrus.Fields{
		"generation": s.gen,
		"replaced":   prev != nil,
	}).Debug("Callback handler registered")
	return nil
}

// Unregister clears the handler. The native slot is cleared first; when
// Unregister returns, no handler of this slot is running.
func (s *Slot[A, R]) Unregister() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unregisterLocked()
}

func (s *Slot[A, R]) unregisterLocked() error {
	if s.cur.Load() == nil {
		return nil
	}
	if err := s.binder.Unbind(s.id); err != nil {
		s.logger("Unregister").WithError(err, "unbind").Error("Native side could not clear callback")
		return fmt.Errorf("%w: %s: %v", ErrUnbindFailed, s.name, err)
	}
	s.cur.Store(nil)
	s.unregistrations.Add(1)

	if err := s.waitDrain(); err != nil {
		s.logger("Unregister").WithError(err, "drain").Warn("Callback handler did not return before drain timeout")
		return err
	}
	s.logger("Unregister").Debug("Callback handler unregistered")
	return nil
}

func (s *Slot[A, R]) waitDrain() error {
	deadline := time.Now().Add(s.drain)
	for spins := 0; s.inflight.Load() != 0; spins++ {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrDrainTimeout, s.name)
		}
		if spins < 64 {
			runtime.Gosched()
		} else {
			time.Sleep(50 * time.Microsecond)
		}
	}
	return nil
}

// Close unregisters and removes the slot from its registry. Close is called
// when the owning engine object is destroyed, before its native handle is
// released.
func (s *Slot[A, R]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	err := s.unregisterLocked()
	s.closed = true
	s.reg.remove(s.id)
	return err
}

// Invoke runs the current handler. It is called by the native entry point.
func (s *Slot[A, R]) Invoke(args A) R {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	b := s.cur.Load()
	if b == nil {
		s.unhandled.Add(1)
		return s.neutral
	}
	s.invocations.Add(1)

	if s.budget <= 0 {
		return s.call(b, args)
	}
	start := time.Now()
	r := s.call(b, args)
	if time.Since(start) > s.budget {
		s.overruns.Add(1)
	}
	return r
}

func (s *Slot[A, R]) call(b *binding[A, R], args A) (r R) {
	defer func() {
		if p := recover(); p != nil {
			s.panics.Add(1)
			s.logger("Invoke").WithFields(logrus.Fields{
				"panic":      fmt.Sprint(p),
				"generation": b.gen,
			}).Error("Callback handler panicked, returning neutral value")
			r = s.neutral
		}
	}()
	return b.fn(b.ctx, args)
}

// Stats returns a snapshot of the slot counters.
func (s *Slot[A, R]) Stats() Stats {
	return Stats{
		Registrations:   s.registrations.Load(),
		Unregistrations: s.unregistrations.Load(),
		Invocations:     s.invocations.Load(),
		Unhandled:       s.unhandled.Load(),
		Panics:          s.panics.Load(),
		Overruns:        s.overruns.Load(),
	}
}

func (s *Slot[A, R]) logger(function string) *logging.Helper {
	return logging.New("trampoline", function).WithFields(logrus.Fields{
		"slot":    s.name,
		"slot_id": uint64(s.id),
	})
}
