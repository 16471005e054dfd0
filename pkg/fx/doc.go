// Package fx provides the managed-effect (saga) middleware for refrakt
// stores.
//
// For every dispatched message, the runner invokes a user-supplied effect
// function on its own goroutine. The effect yields follow-up messages,
// each of which re-enters the same wrapped send, so yielded messages flow
// through the reducer and trigger further effect drains:
//
//	runner := fx.New(func(ctx context.Context, get func() model, msg msg, yield func(msg)) error {
//	    if msg.Kind == "async_increment" {
//	        yield(msg{Kind: "increment"})
//	        yield(msg{Kind: "set", Value: get().Count + 5})
//	    }
//	    return nil
//	})
//
//	s := store.New(reducer, model{},
//	    store.WithMiddleware(runner.Middleware()))
//
//	s.Send(msg{Kind: "async_increment"})
//	runner.Wait() // join in-flight drains (tests, shutdown)
//
// Drains for different dispatches run concurrently and interleave freely;
// no cross-drain ordering is guaranteed. There is no forced cancellation:
// a long-lived effect should read get() between yields and stop on its
// own once state says so. An effect that returns an error or panics is
// logged once with the label "fx: effect failure" and abandoned; state
// already applied from earlier yields stays in effect, and other drains
// are untouched.
package fx
