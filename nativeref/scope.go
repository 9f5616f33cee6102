package nativeref

import (
	"sync"
	"sync/atomic"
)

// Scope bounds the lifetime of the references created in it.
type Scope struct {
	gen  atomic.Uint64
	open atomic.Bool
}

var scopePool = sync.Pool{New: func() any { return new(Scope) }}

// Begin opens a scope. Every Begin must be paired with End.
func Begin() *Scope {
	s := scopePool.Get().(*Scope)
	s.gen.Add(1)
	s.open.Store(true)
	return s
}

// End invalidates every reference created in the scope.
func (s *Scope) End() {
	s.open.Store(false)
	s.gen.Add(1)
	scopePool.Put(s)
}

// With runs fn inside a fresh scope.
func With(fn func(s *Scope)) {
	s := Begin()
	defer s.End()
	fn(s)
}

func (s *Scope) token() uint64 {
	if s == nil {
		return 0
	}
	return s.gen.Load()
}

func (s *Scope) valid(gen uint64) bool {
	return s != nil && s.open.Load() && s.gen.Load() == gen
}
