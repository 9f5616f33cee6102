package nativeref

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"
)

var (
	// ErrExpired indicates a reference used after its scope ended.
	ErrExpired = errors.New("native reference used outside its scope")

	// ErrNil indicates a reference to no memory.
	ErrNil = errors.New("nil native reference")

	// ErrWrongArm indicates a union read through an arm its discriminant
	// does not select.
	ErrWrongArm = errors.New("union discriminant does not match arm")

	// ErrArmTooLarge indicates an arm type larger than the union payload.
	ErrArmTooLarge = errors.New("union arm larger than payload")
)

// Ref is a read-only view of a native T.
type Ref[T any] struct {
	ptr   *T
	scope *Scope
	gen   uint64
}

// NewRef views p as a T for the lifetime of s.
func NewRef[T any](s *Scope, p unsafe.Pointer) Ref[T] {
	return Ref[T]{ptr: (*T)(p), scope: s, gen: s.token()}
}

// IsNil reports whether the reference points at nothing.
func (r Ref[T]) IsNil() bool { return r.ptr == nil }

// Valid reports whether the reference may still be dereferenced.
func (r Ref[T]) Valid() bool { return r.ptr != nil && r.scope.valid(r.gen) }

// Deref copies the referenced value out.
func (r Ref[T]) Deref() (T, error) {
	var zero T
	if r.ptr == nil {
		return zero, ErrNil
	}
	if !r.scope.valid(r.gen) {
		return zero, ErrExpired
	}
	return *r.ptr, nil
}

// Addr returns the raw address, for logging and for passing back to the
// engine inside the same scope.
func (r Ref[T]) Addr() uintptr { return uintptr(unsafe.Pointer(r.ptr)) }

// MutRef is a writable view of a native T.
type MutRef[T any] struct {
	Ref[T]
}

// NewMutRef views p as a writable T for the lifetime of s.
func NewMutRef[T any](s *Scope, p unsafe.Pointer) MutRef[T] {
	return MutRef[T]{Ref: NewRef[T](s, p)}
}

// Write stores v into the referenced memory.
func (r MutRef[T]) Write(v T) error {
	if r.ptr == nil {
		return ErrNil
	}
	if !r.scope.valid(r.gen) {
		return ErrExpired
	}
	*r.ptr = v
	return nil
}

// Union is implemented by Go mirrors of native tagged unions.
type Union interface {
	Discriminant() int32
	PayloadOffset() uintptr
	PayloadSize() uintptr
}

// Arm is implemented by the types of a union's alternatives.
type Arm interface {
	ArmTag() int32
}

// ArmOf returns a reference to the payload of the union r points at, typed as
// T. It fails unless the discriminant selects T.
func ArmOf[T Arm, U Union](r Ref[U]) (Ref[T], error) {
	u, err := r.Deref()
	if err != nil {
		return Ref[T]{}, err
	}
	var arm T
	if got, want := u.Discriminant(), arm.ArmTag(); got != want {
		return Ref[T]{}, fmt.Errorf("%w: discriminant %d, arm %T wants %d", ErrWrongArm, got, arm, want)
	}
	if size := unsafe.Sizeof(arm); size > u.PayloadSize() {
		return Ref[T]{}, fmt.Errorf("%w: %T is %d bytes, payload %d", ErrArmTooLarge, arm, size, u.PayloadSize())
	}
	p := unsafe.Add(unsafe.Pointer(r.ptr), u.PayloadOffset())
	return Ref[T]{ptr: (*T)(p), scope: r.scope, gen: r.gen}, nil
}

// Pin pins objs (pointers to Go-allocated values) for the duration of fn, so
// a native call made inside fn may hold their addresses.
func Pin(fn func(), objs ...any) {
	var p runtime.Pinner
	defer p.Unpin()
	for _, o := range objs {
		p.Pin(o)
	}
	fn()
}

// Held keeps Go memory pinned past a single call, for buffers the engine
// retains (an ACF image registered from memory, for example).
type Held struct {
	p        runtime.Pinner
	released bool
}

// Hold pins objs until Release.
func Hold(objs ...any) *Held {
	h := &Held{}
	for _, o := range objs {
		h.p.Pin(o)
	}
	return h
}

// Release unpins. It is safe to call more than once.
func (h *Held) Release() {
	if h == nil || h.released {
		return
	}
	h.released = true
	h.p.Unpin()
}

// Released reports whether Release has run. A nil Held counts as released.
func (h *Held) Released() bool {
	return h == nil || h.released
}
