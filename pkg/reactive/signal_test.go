package reactive

import (
	"sync"
	"testing"
)

// testListener records MarkDirty notifications for assertions.
type testListener struct {
	id    uint64
	mu    sync.Mutex
	dirty int
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() {
	l.mu.Lock()
	l.dirty++
	l.mu.Unlock()
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getDirtyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

func TestSignalBasic(t *testing.T) {
	count := NewSignal(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestSignalPeek(t *testing.T) {
	count := NewSignal(42)

	listener := newTestListener()
	WithListener(listener, func() {
		if value := count.Peek(); value != 42 {
			t.Errorf("expected 42, got %d", value)
		}
	})

	count.Set(100)
	if listener.getDirtyCount() != 0 {
		t.Errorf("Peek should not subscribe listener, got %d notifications", listener.getDirtyCount())
	}
}

func TestSignalSubscription(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = count.Get()
	})

	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}

	// Same value should not notify
	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("same value should not notify, got %d", listener.getDirtyCount())
	}

	count.Set(2)
	if listener.getDirtyCount() != 2 {
		t.Errorf("expected 2 notifications, got %d", listener.getDirtyCount())
	}
}

func TestSignalNoTrackingOutsideContext(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	// Read outside of tracking context
	_ = count.Get()

	WithListener(listener, func() {
		// Don't read the signal here
	})

	count.Set(1)
	if listener.getDirtyCount() != 0 {
		t.Errorf("expected 0 notifications when not tracking, got %d", listener.getDirtyCount())
	}
}

func TestSignalCustomEquals(t *testing.T) {
	// Treat all even numbers as equal to each other
	sig := NewSignal(0).WithEquals(func(a, b int) bool {
		return a%2 == b%2
	})
	listener := newTestListener()

	WithListener(listener, func() {
		_ = sig.Get()
	})

	sig.Set(2) // Same parity, no notification
	if listener.getDirtyCount() != 0 {
		t.Errorf("expected 0 notifications for equal values, got %d", listener.getDirtyCount())
	}

	sig.Set(3)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}
}

func TestSignalDeduplicatesSubscribers(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = count.Get()
		_ = count.Get()
		_ = count.Get()
	})

	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("repeated reads should subscribe once, got %d notifications", listener.getDirtyCount())
	}
}

func TestUntrackedSuppressesAndRestores(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = a.Get()
		Untracked(func() {
			_ = b.Get()
			// Nested untracked stays suppressed
			Untracked(func() {
				_ = b.Get()
			})
		})
		// Tracking is restored after Untracked
		_ = a.Get()
	})

	b.Set(20)
	if listener.getDirtyCount() != 0 {
		t.Errorf("untracked read should not subscribe, got %d notifications", listener.getDirtyCount())
	}

	a.Set(10)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification from tracked read, got %d", listener.getDirtyCount())
	}
}
