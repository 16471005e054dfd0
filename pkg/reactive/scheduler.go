package reactive

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// Scheduler batches reaction re-runs. Dirty reactions are queued on a
// pending set and drained on the scheduler's executor goroutine, so
// re-runs never execute synchronously inside Set.
//
// The executor alternates between flush passes and mutation jobs
// submitted through Run. Flush passes never start inside a job, so every
// write a job makes lands in the same pending set and each affected
// reaction re-runs exactly once per job, no matter how many of its
// dependencies the job wrote. Writes issued outside any job or Batch are
// flushed promptly, one notification wave per write.
//
// The pending set is swapped out at the start of each flush pass:
// reactions that go dirty while a pass is running land in a fresh set
// and are drained in a subsequent pass. Within one pass, reactions run
// in creation order, which keeps flush order deterministic for a given
// registration order.
type Scheduler struct {
	mu   sync.Mutex
	cond *sync.Cond

	// pending is the set of reactions awaiting re-run. A reaction appears
	// at most once (guarded by its own pending flag).
	pending []*Reaction

	// jobs are mutation units submitted through Run, executed in order
	// with flush passes in between.
	jobs []func()

	// running is true while the executor goroutine is live.
	running bool

	// executorGID is the goroutine id of the live executor, 0 when idle.
	// Lets Run detect calls made from the executor itself and run inline.
	executorGID atomic.Uint64

	// onError receives failures recovered from scheduled reaction runs.
	onError func(error)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithOnError sets the failure channel for reaction panics recovered
// during scheduled runs. The default logs a warning through slog.
func WithOnError(fn func(error)) SchedulerOption {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// WithSchedulerLogger routes reaction failures to the given logger.
// Shorthand for WithOnError over logger.Warn; tests use it to capture
// failure output deterministically.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.onError = func(err error) {
			logger.Warn("reaction failed", "error", err)
		}
	}
}

// NewScheduler creates a scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{}
	s.cond = sync.NewCond(&s.mu)
	s.onError = func(err error) {
		slog.Warn("reaction failed", "error", err)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultScheduler backs the package-level Effect constructor.
var DefaultScheduler = NewScheduler()

// Effect creates a reaction on this scheduler. The body runs immediately
// and re-runs, batched, when any signal or memo it reads changes. The
// returned unsubscribe function is idempotent.
//
// A panic during the initial synchronous run propagates to the caller;
// panics during scheduled re-runs are recovered, wrapped in
// *ReactionError, and handed to the error handler without blocking
// sibling reactions in the same flush.
func (s *Scheduler) Effect(fn func() Cleanup) func() {
	r := &Reaction{
		id:        nextID(),
		fn:        fn,
		scheduler: s,
	}

	// Initial run is synchronous to establish dependencies.
	r.run()

	return func() {
		r.dispose()
	}
}

// Run executes fn as one mutation unit on the executor goroutine and
// returns once fn has completed. No flush pass starts while fn runs, so
// all of its writes coalesce into one re-run per affected reaction; the
// flush itself happens after Run returns (Settle joins it). A panic in
// fn re-raises on the calling goroutine.
//
// Called from the executor itself (a reaction body, or a nested Run),
// fn runs inline.
func (s *Scheduler) Run(fn func()) {
	if s.executorGID.Load() == getGoroutineID() {
		fn()
		return
	}

	done := make(chan struct{})
	var rec any

	s.mu.Lock()
	s.jobs = append(s.jobs, func() {
		defer close(done)
		defer func() {
			rec = recover()
		}()
		fn()
	})
	s.wake()
	s.mu.Unlock()

	<-done
	if rec != nil {
		panic(rec)
	}
}

// enqueue adds a reaction to the pending set and wakes the executor.
// Called from MarkDirty with the reaction's pending flag held.
func (s *Scheduler) enqueue(r *Reaction) {
	s.mu.Lock()
	s.pending = append(s.pending, r)
	s.wake()
	s.mu.Unlock()
}

// wake starts the executor goroutine if none is live. Caller holds mu.
func (s *Scheduler) wake() {
	if !s.running {
		s.running = true
		go s.loop()
	}
}

// loop is the executor: flush passes first, then the next job, until
// both queues stay empty. Checking pending before jobs means a job's
// writes are fully flushed, follow-up passes included, before the next
// job starts.
func (s *Scheduler) loop() {
	s.executorGID.Store(getGoroutineID())
	defer s.executorGID.Store(0)

	s.mu.Lock()
	for {
		switch {
		case len(s.pending) > 0:
			batch := s.pending
			s.pending = nil
			s.mu.Unlock()

			// Creation order keeps flush order deterministic.
			sort.Slice(batch, func(i, j int) bool {
				return batch[i].id < batch[j].id
			})

			for _, r := range batch {
				if r.disposed.Load() || !r.pending.Load() {
					continue
				}
				s.runRecovered(r)
			}

			s.mu.Lock()

		case len(s.jobs) > 0:
			job := s.jobs[0]
			s.jobs = s.jobs[1:]
			s.mu.Unlock()

			job()

			s.mu.Lock()

		default:
			s.running = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
	}
}

// runRecovered runs one reaction, containing panics so one failure never
// blocks the rest of the flush or corrupts scheduler bookkeeping.
func (s *Scheduler) runRecovered(r *Reaction) {
	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			s.onError(&ReactionError{ReactionID: r.id, Recovered: err})
		}
	}()
	r.run()
}

// Settle blocks until the job queue and pending set are empty and the
// executor has gone idle. Writes issued after Settle returns start a
// fresh executor. Must not be called from the executor itself.
//
// Settle does not terminate if a reaction perpetually re-dirties its own
// dependencies; that loop is a bug in the reaction, not the scheduler.
func (s *Scheduler) Settle() {
	s.mu.Lock()
	for s.running {
		s.cond.Wait()
	}
	s.mu.Unlock()
}
