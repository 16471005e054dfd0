package reactive

import (
	"sync"
	"sync/atomic"
)

// Reaction is a side-effecting computation registered with a Scheduler.
// It runs once synchronously at creation (establishing its initial
// dependencies) and re-runs, batched and deferred, whenever a dependency
// invalidates. The body may return a Cleanup that runs before the next
// re-run and once more on unsubscribe.
type Reaction struct {
	id uint64

	// fn is the effect body to run.
	fn func() Cleanup

	// cleanup is the cleanup function from the last run.
	cleanup Cleanup

	// sources are the signals/memos this reaction depends on.
	sources   []*signalBase
	sourcesMu sync.Mutex

	// scheduler owns deferred re-runs of this reaction.
	scheduler *Scheduler

	// pending indicates the reaction is queued for re-run.
	// CAS on this flag is what coalesces multiple dirty notifications
	// between two flushes into a single re-run.
	pending atomic.Bool

	// disposed indicates the reaction has been unsubscribed.
	disposed atomic.Bool
}

// MarkDirty schedules the reaction to re-run.
// Implements the Listener interface.
func (r *Reaction) MarkDirty() {
	if r.disposed.Load() {
		return
	}

	if r.pending.CompareAndSwap(false, true) {
		r.scheduler.enqueue(r)
	}
}

// ID returns the unique identifier for this reaction.
// Implements the Listener interface.
func (r *Reaction) ID() uint64 {
	return r.id
}

// addSource adds a source dependency.
// Implements the sourceTracker interface.
func (r *Reaction) addSource(source *signalBase) {
	r.sourcesMu.Lock()
	defer r.sourcesMu.Unlock()

	for _, s := range r.sources {
		if s == source {
			return
		}
	}
	r.sources = append(r.sources, source)
}

// run executes the effect body under tracking.
// Called once at creation and again on every scheduled re-run.
func (r *Reaction) run() {
	if r.disposed.Load() {
		return
	}

	r.pending.Store(false)

	// Run cleanup from the previous run
	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}

	// Clear old sources so conditionally-read dependencies don't linger
	r.sourcesMu.Lock()
	oldSources := r.sources
	r.sources = nil
	r.sourcesMu.Unlock()
	for _, source := range oldSources {
		source.unsubscribe(r)
	}

	// Track new sources during execution. Restore via defer so a
	// panicking body doesn't leak the tracking context.
	old := setCurrentListener(r)
	defer setCurrentListener(old)

	r.cleanup = r.fn()
}

// dispose tears the reaction down: runs the last cleanup exactly once and
// removes it from the graph. Safe to call multiple times.
func (r *Reaction) dispose() {
	if r.disposed.Swap(true) {
		return
	}

	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}

	r.sourcesMu.Lock()
	sources := r.sources
	r.sources = nil
	r.sourcesMu.Unlock()
	for _, source := range sources {
		source.unsubscribe(r)
	}
}

// Ensure Reaction implements sourceTracker.
var _ sourceTracker = (*Reaction)(nil)

// Effect creates a reaction on the default scheduler.
// The body runs immediately and re-runs when any signal or memo it reads
// changes. The returned function unsubscribes the reaction; it is
// idempotent and runs the final cleanup exactly once.
//
// Example:
//
//	unsub := reactive.Effect(func() reactive.Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return nil
//	})
//	defer unsub()
func Effect(fn func() Cleanup) func() {
	return DefaultScheduler.Effect(fn)
}
