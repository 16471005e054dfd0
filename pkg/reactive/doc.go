// Package reactive provides the fine-grained reactive core for refrakt.
//
// Dependencies are tracked automatically at runtime: reading a signal
// inside a tracked evaluation (a memo computation or an effect body)
// subscribes the current listener to that signal's changes.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := reactive.NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (notifies subscribers)
//	count.Update(func(n int) int { return n + 1 })
//
// Memo[T] is a cached derived computation:
//
//	doubled := reactive.NewMemo(func() int { return count.Get() * 2 })
//	value := doubled.Get()  // Recomputes only if dependencies changed
//
// Effect runs side effects when dependencies change:
//
//	unsub := reactive.Effect(func() reactive.Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* cleanup */ }
//	})
//	defer unsub()
//
// # Scheduling
//
// Effect re-runs never happen synchronously inside Set. Dirty effects are
// queued on a Scheduler and flushed on its executor goroutine; writes made
// within one Scheduler.Run job (or one Batch) coalesce into a single
// re-run per effect, because flush passes only run between jobs.
// Scheduler.Settle blocks until the queue is empty, which keeps tests
// deterministic.
//
// # Batching
//
// Multiple signal updates can additionally be batched so downstream
// notification fires once:
//
//	reactive.Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})
package reactive
