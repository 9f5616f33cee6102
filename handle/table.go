package handle

import "sync"

// Table maps live raw values to the wrapper objects that own them, so a
// callback carrying only a raw value can find its wrapper. Lookups do not
// take a lock and are safe from the engine's server thread.
type Table[T any] struct {
	m sync.Map
}

// Put associates the handle's raw value with v. Zero and released handles
// are rejected.
func (t *Table[T]) Put(h *Handle, v T) error {
	raw, err := h.Raw()
	if err != nil {
		return err
	}
	t.m.Store(raw, v)
	return nil
}

// Get returns the value stored for raw.
func (t *Table[T]) Get(raw Raw) (T, bool) {
	v, ok := t.m.Load(raw)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Delete removes the handle's entry. It accepts released handles so that
// owners can clean up after Release.
func (t *Table[T]) Delete(h *Handle) {
	if h.IsZero() {
		return
	}
	t.m.Delete(h.raw)
}

// Len counts the live entries.
func (t *Table[T]) Len() int {
	n := 0
	t.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Range calls fn for every entry until fn returns false.
func (t *Table[T]) Range(fn func(raw Raw, v T) bool) {
	t.m.Range(func(k, v any) bool {
		return fn(k.(Raw), v.(T))
	})
}
