package handle

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDestroyer stands in for a native destroy entry point.
type countingDestroyer struct {
	calls atomic.Int32
	last  atomic.Uintptr
	err   error
	delay time.Duration
}

func (d *countingDestroyer) Destroy(raw Raw) error {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	d.calls.Add(1)
	d.last.Store(uintptr(raw))
	return d.err
}

func mustNew(t *testing.T, raw Raw, destroyable bool, d Destroyer) *Handle {
	t.Helper()
	h, err := New(raw, destroyable, d)
	require.NoError(t, err)
	return h
}

func TestHandleEquality(t *testing.T) {
	d := &countingDestroyer{}
	values := []Raw{1, 2, 0x7fff0000, ^Raw(0)}

	for _, v := range values {
		a := mustNew(t, v, true, d)
		b := mustNew(t, v, false, nil)
		assert.True(t, a.Equal(b), "handles from %#x should be equal", v)
		assert.Equal(t, a.Hash(), b.Hash(), "hash mismatch for %#x", v)

		for _, w := range values {
			if w == v {
				continue
			}
			c := mustNew(t, w, true, d)
			assert.False(t, a.Equal(c), "%#x should not equal %#x", v, w)
		}
	}
}

func TestZeroHandle(t *testing.T) {
	z1 := Zero()
	z2 := mustNew(t, 0, true, nil)
	var z3 *Handle

	assert.True(t, z1.IsZero())
	assert.True(t, z1.Equal(z2))
	assert.True(t, z1.Equal(z3))
	assert.True(t, z3.Equal(z2))
	assert.Equal(t, z1.Hash(), z3.Hash())

	live := mustNew(t, 10, false, nil)
	assert.False(t, live.Equal(z1))
	assert.False(t, z3.Equal(live))

	_, err := z1.Raw()
	assert.ErrorIs(t, err, ErrZero)
	assert.NoError(t, z1.Release())
	assert.NoError(t, z3.Release())
}

func TestNewRequiresDestroyer(t *testing.T) {
	_, err := New(5, true, nil)
	assert.ErrorIs(t, err, ErrNoDestroyer)

	h, err := New(5, false, nil)
	require.NoError(t, err)
	assert.False(t, h.IsDestroyable())
}

func TestReleaseDestroyable(t *testing.T) {
	d := &countingDestroyer{}
	h := mustNew(t, 0x1234, true, d)

	raw, err := h.Raw()
	require.NoError(t, err)
	assert.Equal(t, Raw(0x1234), raw)

	require.NoError(t, h.Release())
	assert.Equal(t, int32(1), d.calls.Load())
	assert.Equal(t, uintptr(0x1234), d.last.Load())
	assert.True(t, h.IsReleased())

	_, err = h.Raw()
	assert.ErrorIs(t, err, ErrReleased)

	require.NoError(t, h.Release())
	assert.Equal(t, int32(1), d.calls.Load(), "second release must not destroy again")
}

func TestReleaseNonDestroyableNeverCallsNative(t *testing.T) {
	d := &countingDestroyer{}
	h, err := New(0x99, false, d, WithKind("output_port"))
	require.NoError(t, err)

	require.NoError(t, h.Release())
	assert.Equal(t, int32(0), d.calls.Load())
	assert.True(t, h.IsReleased())

	_, err = h.Raw()
	assert.ErrorIs(t, err, ErrReleased)
}

func TestReleasedHandleStillEqual(t *testing.T) {
	d := &countingDestroyer{}
	a := mustNew(t, 7, true, d)
	b := mustNew(t, 7, false, nil)
	require.NoError(t, a.Release())
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestReleaseDestroyError(t *testing.T) {
	d := &countingDestroyer{err: errors.New("busy")}
	h := mustNew(t, 3, true, d)

	err := h.Release()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "busy")
	assert.True(t, h.IsReleased())
}

func TestSlowReleaseIsSynchronous(t *testing.T) {
	d := &countingDestroyer{delay: 20 * time.Millisecond}
	h, err := New(3, true, d, WithSlowReleaseThreshold(time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, h.Release())
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, int32(1), d.calls.Load())
}

func TestConcurrentReleaseDestroysOnce(t *testing.T) {
	d := &countingDestroyer{}
	h := mustNew(t, 0xabc, true, d)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), d.calls.Load())
}

func TestDestroyerFunc(t *testing.T) {
	var got Raw
	h := mustNew(t, 42, true, DestroyerFunc(func(raw Raw) error {
		got = raw
		return nil
	}))
	require.NoError(t, h.Release())
	assert.Equal(t, Raw(42), got)
}

func TestString(t *testing.T) {
	h, err := New(0x10, false, nil, WithKind("player"))
	require.NoError(t, err)
	assert.Equal(t, "handle(player 0x10 live)", h.String())
	require.NoError(t, h.Release())
	assert.Equal(t, "handle(player 0x10 released)", h.String())
	assert.Equal(t, "handle(zero)", Zero().String())
}

func TestTable(t *testing.T) {
	var tbl Table[string]
	d := &countingDestroyer{}
	h := mustNew(t, 0x50, true, d)

	require.NoError(t, tbl.Put(h, "player-a"))
	v, ok := tbl.Get(0x50)
	require.True(t, ok)
	assert.Equal(t, "player-a", v)
	assert.Equal(t, 1, tbl.Len())

	var seen []Raw
	tbl.Range(func(raw Raw, v string) bool {
		seen = append(seen, raw)
		return true
	})
	assert.Equal(t, []Raw{0x50}, seen)

	assert.ErrorIs(t, tbl.Put(Zero(), "nothing"), ErrZero)

	require.NoError(t, h.Release())
	assert.ErrorIs(t, tbl.Put(h, "again"), ErrReleased)

	tbl.Delete(h)
	_, ok = tbl.Get(0x50)
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())
}
