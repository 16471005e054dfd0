package reactive

import (
	"sync"
	"sync/atomic"
)

// Memo is a cached computation that automatically tracks its dependencies.
// When any dependency changes, the memo is invalidated and will recompute
// on the next read.
//
// Memos are lazy: they only compute their value when Get() is called.
// If multiple signals change before a read, the memo only recomputes once.
//
// Memos can also be subscribed to, behaving like signals themselves.
// This allows building chains of derived values.
//
// Dependency edges are dynamic: the source set is cleared before every
// recomputation, so a dependency that is only read under a condition stops
// invalidating the memo once the condition flips.
//
// Concurrent reads are safe: evaluation is serialized, and a reader that
// arrives while another goroutine is computing blocks and reuses the
// result. Only genuine re-entry, the computation transitively reading the
// memo itself, is a cycle.
type Memo[T any] struct {
	base signalBase

	// compute is the function that computes the memo's value.
	compute func() T

	// value is the cached computed value.
	value T

	// valueMu protects value access.
	valueMu sync.RWMutex

	// valid indicates whether the cached value is current.
	// When false, the next Get() will recompute.
	valid atomic.Bool

	// dirtyEpoch counts invalidations. A recomputation only marks the
	// value valid if no invalidation landed while it was computing, so a
	// Set racing the compute is never cached over.
	dirtyEpoch atomic.Uint64

	// computeMu serializes evaluation across goroutines.
	computeMu sync.Mutex

	// computingGID is the goroutine currently evaluating this memo, 0 if
	// none. Distinguishes re-entry (a cycle, fail fast) from a concurrent
	// reader (blocks on computeMu and reuses the result).
	computingGID atomic.Uint64

	// sources are the signals/memos this memo depends on.
	sources   []*signalBase
	sourcesMu sync.Mutex
}

// NewMemo creates a new memo with the given computation function.
// The computation is not run immediately; it runs lazily on first Get().
func NewMemo[T any](compute func() T) *Memo[T] {
	return &Memo[T]{
		base: signalBase{
			id: nextID(),
		},
		compute: compute,
	}
}

// Get returns the memo's value, recomputing if necessary.
// Creates a dependency on this memo for the current listener.
//
// Get panics with *CycleError if called from within the memo's own
// computation, i.e. the computation (transitively) reads the memo itself.
func (m *Memo[T]) Get() T {
	// Track dependency on this memo
	m.base.track()

	// Recompute if invalid
	if !m.valid.Load() {
		m.recompute()
	}

	m.valueMu.RLock()
	value := m.value
	m.valueMu.RUnlock()
	return value
}

// Peek returns the memo's value without subscribing.
// Still triggers recomputation if the value is invalid.
func (m *Memo[T]) Peek() T {
	if !m.valid.Load() {
		m.recompute()
	}
	m.valueMu.RLock()
	value := m.value
	m.valueMu.RUnlock()
	return value
}

// MarkDirty invalidates the memo and propagates to subscribers.
// Implements the Listener interface.
func (m *Memo[T]) MarkDirty() {
	m.dirtyEpoch.Add(1)

	// CAS keeps invalidation idempotent: downstream is notified once per
	// valid->invalid transition, and the next Get recomputes.
	if m.valid.CompareAndSwap(true, false) {
		m.base.notifySubscribers()
	}
}

// ID returns the unique identifier for this memo.
// Implements the Listener interface.
func (m *Memo[T]) ID() uint64 {
	return m.base.id
}

// addSource adds a source dependency.
// Implements the sourceTracker interface.
func (m *Memo[T]) addSource(source *signalBase) {
	m.sourcesMu.Lock()
	defer m.sourcesMu.Unlock()

	for _, s := range m.sources {
		if s == source {
			return
		}
	}
	m.sources = append(m.sources, source)
}

// recompute runs the computation and updates the cached value.
// Serialized by computeMu; the goroutine id guard fires only on true
// re-entry, never for a concurrent evaluator waiting its turn.
func (m *Memo[T]) recompute() {
	gid := getGoroutineID()
	if m.computingGID.Load() == gid {
		panic(&CycleError{NodeID: m.base.id})
	}

	m.computeMu.Lock()
	defer m.computeMu.Unlock()

	// A concurrent evaluator may have finished while this one waited.
	if m.valid.Load() {
		return
	}

	m.computingGID.Store(gid)
	defer m.computingGID.Store(0)

	epoch := m.dirtyEpoch.Load()

	// Unsubscribe from old sources so conditionally-read dependencies
	// from the previous run don't linger.
	m.sourcesMu.Lock()
	oldSources := m.sources
	m.sources = nil
	m.sourcesMu.Unlock()
	for _, source := range oldSources {
		source.unsubscribe(m)
	}

	// Track new sources during computation. The listener is restored via
	// defer so a panicking computation doesn't leak tracking state.
	old := setCurrentListener(m)
	defer setCurrentListener(old)

	newValue := m.compute()

	m.valueMu.Lock()
	m.value = newValue
	m.valueMu.Unlock()

	// An invalidation that landed mid-compute wins: the value stays
	// invalid and the next read recomputes from the fresh inputs.
	if m.dirtyEpoch.Load() == epoch {
		m.valid.Store(true)
	}
}

// Ensure Memo implements sourceTracker.
var _ sourceTracker = (*Memo[int])(nil)
