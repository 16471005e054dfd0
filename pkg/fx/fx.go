package fx

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonbrander/refrakt/pkg/store"
)

// EffectFn is a managed effect: a per-dispatch producer of follow-up
// messages. It runs on its own goroutine; yield blocks until the drain
// loop has applied the yielded message, so a get() after yield observes
// its effect on state. Returning an error (or panicking) abandons the
// remainder of this invocation only.
//
// Cancellation is cooperative: the runner never interrupts a drain. Use
// get between yields and stop producing once state indicates to.
type EffectFn[Model, Msg any] func(ctx context.Context, get func() Model, msg Msg, yield func(Msg)) error

// Runner owns the drains spawned by its middleware. Each dispatch gets an
// independent session: a producer goroutine running the effect function,
// a channel it yields onto, and a drain loop forwarding every yielded
// message back into the wrapped send.
type Runner[Model, Msg any] struct {
	fn     EffectFn[Model, Msg]
	ctx    context.Context
	logger *slog.Logger
	wg     sync.WaitGroup
}

// Option configures a Runner.
type Option[Model, Msg any] func(*Runner[Model, Msg])

// WithContext sets the context handed to every effect invocation.
// The runner itself never cancels it; it exists so effect bodies have a
// context for their own suspension points (HTTP calls, timers).
func WithContext[Model, Msg any](ctx context.Context) Option[Model, Msg] {
	return func(r *Runner[Model, Msg]) {
		r.ctx = ctx
	}
}

// WithLogger sets the logger used for effect-failure warnings.
// Defaults to slog.Default().
func WithLogger[Model, Msg any](logger *slog.Logger) Option[Model, Msg] {
	return func(r *Runner[Model, Msg]) {
		r.logger = logger
	}
}

// New creates a runner for the given effect function.
func New[Model, Msg any](fn EffectFn[Model, Msg], opts ...Option[Model, Msg]) *Runner[Model, Msg] {
	r := &Runner[Model, Msg]{
		fn:     fn,
		ctx:    context.Background(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Middleware returns the store middleware for this runner. For each
// message it first lets the rest of the chain (and the reducer) process
// the message, then spawns an independent drain whose yielded messages
// re-enter this same send, fx layer included.
func (r *Runner[Model, Msg]) Middleware() store.Middleware[Model, Msg] {
	return func(get func() Model) func(next store.SendFunc[Msg]) store.SendFunc[Msg] {
		return func(next store.SendFunc[Msg]) store.SendFunc[Msg] {
			var send store.SendFunc[Msg]
			send = func(msg Msg) {
				next(msg)
				r.spawn(get, msg, send)
			}
			return send
		}
	}
}

// spawn starts one drain session for a single dispatch: a producer
// goroutine running the effect function and a consumer loop forwarding
// yielded messages. The channel closes when the producer returns, ending
// the drain.
func (r *Runner[Model, Msg]) spawn(get func() Model, msg Msg, send store.SendFunc[Msg]) {
	ch := make(chan Msg)
	ack := make(chan struct{})

	r.wg.Add(2)

	// Producer: run the effect, yield onto the channel. Yield blocks until
	// the drain has applied the message, so a get() after yield observes
	// that message's reducer result.
	go func() {
		defer r.wg.Done()
		defer close(ch)
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Warn("fx: effect failure", "msg", store.MsgType(msg), "error", fmt.Sprint(rec))
			}
		}()

		yield := func(m Msg) {
			ch <- m
			<-ack
		}
		if err := r.fn(r.ctx, get, msg, yield); err != nil {
			r.logger.Warn("fx: effect failure", "msg", store.MsgType(msg), "error", err)
		}
	}()

	// Drain: forward until the producer finishes or fails.
	go func() {
		defer r.wg.Done()
		for m := range ch {
			send(m)
			ack <- struct{}{}
		}
	}()
}

// Wait blocks until every drain spawned so far has finished, including
// drains transitively spawned by yielded messages. Used by tests and at
// shutdown; an effect that never completes makes Wait block forever,
// mirroring the no-forced-cancellation contract.
func (r *Runner[Model, Msg]) Wait() {
	r.wg.Wait()
}
