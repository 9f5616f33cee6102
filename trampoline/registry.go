package trampoline

import (
	"sync"
	"sync/atomic"
)

// ID identifies a slot; it is the context value the native side passes back.
type ID uint64

// Registry maps slot IDs to slots.
type Registry struct {
	mu    sync.Mutex
	next  ID
	slots atomic.Pointer[map[ID]any]
}

// NewRegistry creates an empty registry. Most callers use Default.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := make(map[ID]any)
	r.slots.Store(&empty)
	return r
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry used by the native entry points.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func (r *Registry) add(slot any) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	id := r.next
	old := *r.slots.Load()
	next := make(map[ID]any, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[id] = slot
	r.slots.Store(&next)
	return id
}

func (r *Registry) remove(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.slots.Load()
	if _, ok := old[id]; !ok {
		return
	}
	next := make(map[ID]any, len(old))
	for k, v := range old {
		if k != id {
			next[k] = v
		}
	}
	r.slots.Store(&next)
}

// Lookup returns the slot registered under id.
func (r *Registry) Lookup(id ID) (any, bool) {
	v, ok := (*r.slots.Load())[id]
	return v, ok
}

// Len returns the number of open slots.
func (r *Registry) Len() int {
	return len(*r.slots.Load())
}

// Dispatch is the body of every native entry point: it finds the slot for
// id and invokes it, or returns neutral when the slot is gone or has another
// signature.
func Dispatch[A, R any](r *Registry, id ID, args A, neutral R) R {
	v, ok := r.Lookup(id)
	if !ok {
		return neutral
	}
	s, ok := v.(*Slot[A, R])
	if !ok {
		return neutral
	}
	return s.Invoke(args)
}
