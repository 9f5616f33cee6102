package trampoline

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBinder counts native bind/unbind calls.
type recordingBinder struct {
	binds, unbinds atomic.Int32
	bound          atomic.Bool
	failBind       error
	failUnbind     error
}

func (b *recordingBinder) Bind(ID) error {
	if b.failBind != nil {
		return b.failBind
	}
	b.binds.Add(1)
	b.bound.Store(true)
	return nil
}

func (b *recordingBinder) Unbind(ID) error {
	if b.failUnbind != nil {
		return b.failUnbind
	}
	b.unbinds.Add(1)
	b.bound.Store(false)
	return nil
}

func newTestSlot(t *testing.T, opts ...Option) (*Slot[int32, int32], *recordingBinder) {
	t.Helper()
	b := &recordingBinder{}
	s := NewSlot[int32, int32](NewRegistry(), "beat_sync", -7, append([]Option{WithBinder(b)}, opts...)...)
	t.Cleanup(func() { _ = s.Close() })
	return s, b
}

func TestUnregisteredInvokeReturnsNeutral(t *testing.T) {
	s, b := newTestSlot(t)

	assert.Equal(t, Unregistered, s.State())
	assert.Equal(t, int32(-7), s.Invoke(3))
	assert.Equal(t, uint64(1), s.Stats().Unhandled)
	assert.Equal(t, int32(0), b.binds.Load())
}

func TestSingleSlotReplacement(t *testing.T) {
	s, b := newTestSlot(t)

	var firstCalls, secondCalls atomic.Int32
	require.NoError(t, s.Register(func(ctx any, a int32) int32 {
		firstCalls.Add(1)
		return a + int32(ctx.(int))
	}, 1))
	require.NoError(t, s.Register(func(ctx any, a int32) int32 {
		secondCalls.Add(1)
		return a * int32(ctx.(int))
	}, 10))

	assert.Equal(t, int32(50), s.Invoke(5))
	assert.Equal(t, int32(0), firstCalls.Load())
	assert.Equal(t, int32(1), secondCalls.Load())
	assert.Equal(t, int32(1), b.binds.Load(), "replacement must not rebind the native slot")
	assert.Equal(t, uint64(2), s.Generation())

	ctx, ok := s.Context()
	require.True(t, ok)
	assert.Equal(t, 10, ctx)
}

func TestRegisterNilUnregisters(t *testing.T) {
	s, b := newTestSlot(t)

	require.NoError(t, s.Register(func(any, int32) int32 { return 1 }, nil))
	require.True(t, b.bound.Load())

	require.NoError(t, s.Register(nil, nil))
	assert.Equal(t, Unregistered, s.State())
	assert.False(t, b.bound.Load())
	assert.Equal(t, int32(-7), s.Invoke(0))

	// Unregister twice is a no-op on the native side.
	require.NoError(t, s.Unregister())
	assert.Equal(t, int32(1), b.unbinds.Load())

	_, ok := s.Context()
	assert.False(t, ok)
}

func TestPanicRecoveredToNeutral(t *testing.T) {
	s, _ := newTestSlot(t)
	require.NoError(t, s.Register(func(any, int32) int32 { panic("boom") }, nil))

	assert.NotPanics(t, func() {
		assert.Equal(t, int32(-7), s.Invoke(1))
	})
	st := s.Stats()
	assert.Equal(t, uint64(1), st.Panics)
	assert.Equal(t, uint64(1), st.Invocations)
}

func TestBindFailureLeavesSlotUnregistered(t *testing.T) {
	s, b := newTestSlot(t)
	b.failBind = errors.New("slot busy")

	err := s.Register(func(any, int32) int32 { return 1 }, nil)
	require.ErrorIs(t, err, ErrBindFailed)
	assert.Equal(t, Unregistered, s.State())
	assert.Equal(t, int32(-7), s.Invoke(0))
}

func TestUnbindFailureKeepsHandler(t *testing.T) {
	s, b := newTestSlot(t)
	require.NoError(t, s.Register(func(any, int32) int32 { return 9 }, nil))

	b.failUnbind = errors.New("engine busy")
	require.ErrorIs(t, s.Unregister(), ErrUnbindFailed)
	assert.Equal(t, Registered, s.State())
	assert.Equal(t, int32(9), s.Invoke(0))

	b.failUnbind = nil
	require.NoError(t, s.Unregister())
}

func TestUnregisterWaitsForRunningHandler(t *testing.T) {
	s, _ := newTestSlot(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, s.Register(func(any, int32) int32 {
		close(entered)
		<-release
		finished.Store(true)
		return 1
	}, nil))

	go s.Invoke(0)
	<-entered

	done := make(chan error, 1)
	go func() { done <- s.Unregister() }()

	select {
	case <-done:
		t.Fatal("Unregister returned while handler was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
	assert.True(t, finished.Load())
}

func TestUnregisterFromHandlerTimesOut(t *testing.T) {
	s, _ := newTestSlot(t, WithDrainTimeout(10*time.Millisecond))

	var got error
	require.NoError(t, s.Register(func(any, int32) int32 {
		got = s.Unregister()
		return 0
	}, nil))

	s.Invoke(0)
	assert.ErrorIs(t, got, ErrDrainTimeout)
	assert.Equal(t, Unregistered, s.State())
}

func TestCloseRemovesFromRegistry(t *testing.T) {
	reg := NewRegistry()
	b := &recordingBinder{}
	s := NewSlot[int32, int32](reg, "seq", 0, WithBinder(b))
	require.NoError(t, s.Register(func(any, int32) int32 { return 4 }, nil))
	id := s.ID()

	assert.Equal(t, int32(4), Dispatch[int32, int32](reg, id, 0, -1))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 0, reg.Len())
	assert.False(t, b.bound.Load())
	assert.Equal(t, int32(-1), Dispatch[int32, int32](reg, id, 0, -1))
	assert.ErrorIs(t, s.Register(func(any, int32) int32 { return 1 }, nil), ErrClosed)
}

func TestDispatchSignatureMismatch(t *testing.T) {
	reg := NewRegistry()
	s := NewSlot[int32, bool](reg, "cache", false)
	defer s.Close()
	require.NoError(t, s.Register(func(any, int32) bool { return true }, nil))

	assert.Equal(t, int32(-1), Dispatch[int32, int32](reg, s.ID(), 0, -1))
	assert.True(t, Dispatch[int32, bool](reg, s.ID(), 0, false))
}

func TestIDsNeverReused(t *testing.T) {
	reg := NewRegistry()
	a := NewSlot[int32, int32](reg, "a", 0)
	require.NoError(t, a.Close())
	b := NewSlot[int32, int32](reg, "b", 0)
	defer b.Close()
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestDefaultRegistryIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestBudgetCountsOverruns(t *testing.T) {
	s, _ := newTestSlot(t, WithBudget(time.Nanosecond))
	require.NoError(t, s.Register(func(any, int32) int32 {
		time.Sleep(time.Millisecond)
		return 0
	}, nil))
	s.Invoke(0)
	assert.Equal(t, uint64(1), s.Stats().Overruns)
}

type pair struct {
	fn  int
	ctx int
}

// TestConcurrentRegisterNoTornPairs runs 1000 native invocations while a
// second goroutine performs 10 register/unregister cycles. Every invocation
// must observe a matching handler/context pair or the neutral value.
func TestConcurrentRegisterNoTornPairs(t *testing.T) {
	reg := NewRegistry()
	s := NewSlot[int, pair](reg, "playback", pair{fn: -1, ctx: -1})
	defer s.Close()

	const (
		invokes = 1000
		cycles  = 10
	)

	handler := func(n int) Func[int, pair] {
		return func(ctx any, _ int) pair { return pair{fn: n, ctx: ctx.(int)} }
	}

	var wg sync.WaitGroup
	results := make([]pair, invokes)

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < invokes; i++ {
			results[i] = Dispatch[int, pair](reg, s.ID(), i, pair{fn: -2, ctx: -2})
		}
	}()
	go func() {
		defer wg.Done()
		for c := 0; c < cycles; c++ {
			assert.NoError(t, s.Register(handler(c), c))
			time.Sleep(50 * time.Microsecond)
			if c != cycles-1 {
				assert.NoError(t, s.Register(nil, nil))
			}
		}
	}()
	wg.Wait()

	for i, r := range results {
		if r.fn == -1 {
			assert.Equal(t, -1, r.ctx, "invocation %d", i)
			continue
		}
		assert.Equal(t, r.fn, r.ctx, "torn pair at invocation %d", i)
		assert.GreaterOrEqual(t, r.fn, 0)
		assert.Less(t, r.fn, cycles)
	}

	ctx, ok := s.Context()
	require.True(t, ok)
	assert.Equal(t, cycles-1, ctx)
	assert.Equal(t, pair{fn: cycles - 1, ctx: cycles - 1}, s.Invoke(0))

	st := s.Stats()
	assert.Equal(t, uint64(invokes+1), st.Invocations+st.Unhandled)
	assert.Equal(t, uint64(cycles), st.Registrations)
	assert.Equal(t, uint64(cycles-1), st.Unregistrations)
}
