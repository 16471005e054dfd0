package store

import (
	"log/slog"
	"sync"

	"github.com/gordonbrander/refrakt/pkg/reactive"
)

// Reducer computes the next state from the current state and a message.
// Reducers must be pure: no I/O, no sends, no mutation of shared state.
// Unrecognized messages should fall through a default branch that returns
// the state unchanged (see UnknownMessage).
type Reducer[Model, Msg any] func(Model, Msg) Model

// SendFunc dispatches a message. Send never returns a value; results are
// observed via subsequent Get calls or middleware side channels.
type SendFunc[Msg any] func(Msg)

// Middleware wraps a store's send path. It receives an untracked state
// getter, then the next stage of the chain, and returns the replacement
// send. Omitting the call to next suppresses the message and everything
// downstream of it.
type Middleware[Model, Msg any] func(get func() Model) func(next SendFunc[Msg]) SendFunc[Msg]

// Accessor is the read/dispatch surface shared by root stores and scoped
// stores, letting scope adapters chain without special cases.
type Accessor[Model, Msg any] interface {
	// Get returns the current state as a tracked read.
	Get() Model

	// Peek returns the current state without creating a dependency.
	Peek() Model

	// Send dispatches a message through the store's pipeline.
	Send(msg Msg)
}

// Store pairs one root signal (the application state) with a reducer and
// a send entry point assembled by folding middleware over the base send.
type Store[Model, Msg any] struct {
	state  *reactive.Signal[Model]
	send   SendFunc[Msg]
	logger *slog.Logger

	// reduceMu makes the read-reduce-write step atomic so concurrent
	// senders (fx drains, goroutines) preserve single-writer semantics on
	// the root cell. Reducers must not Send; a reentrant Send through the
	// reducer deadlocks here rather than corrupting state.
	reduceMu sync.Mutex
}

// Option configures a Store at construction.
type Option[Model, Msg any] func(*config[Model, Msg])

type config[Model, Msg any] struct {
	middlewares []Middleware[Model, Msg]
	logger      *slog.Logger
}

// WithMiddleware appends middlewares to the store's pipeline, in listed
// order. The first-listed middleware is the outermost onion layer.
func WithMiddleware[Model, Msg any](mw ...Middleware[Model, Msg]) Option[Model, Msg] {
	return func(c *config[Model, Msg]) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

// WithLogger sets the store's diagnostic logger.
// Defaults to slog.Default(). Tests inject a buffer-backed handler to
// capture warnings deterministically.
func WithLogger[Model, Msg any](logger *slog.Logger) Option[Model, Msg] {
	return func(c *config[Model, Msg]) {
		c.logger = logger
	}
}

// New creates a store from a reducer, an initial state, and options.
//
// The middleware chain is composed once, here: middlewares are folded
// right-to-left over the base send so that the last-listed middleware sits
// closest to the reducer and the first-listed one is outermost.
func New[Model, Msg any](reducer Reducer[Model, Msg], initial Model, opts ...Option[Model, Msg]) *Store[Model, Msg] {
	cfg := config[Model, Msg]{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Store[Model, Msg]{
		state:  reactive.NewSignal(initial),
		logger: cfg.logger,
	}

	// Base send: apply the reducer, then write the root signal. The write
	// happens only after the reducer returns.
	send := SendFunc[Msg](func(msg Msg) {
		s.reduceMu.Lock()
		defer s.reduceMu.Unlock()
		next := reducer(s.state.Peek(), msg)
		s.state.Set(next)
	})

	for i := len(cfg.middlewares) - 1; i >= 0; i-- {
		send = cfg.middlewares[i](s.Peek)(send)
	}
	s.send = send

	return s
}

// Get returns the current state as a tracked read: it participates in the
// reactive dependency graph like any signal read.
func (s *Store[Model, Msg]) Get() Model {
	return s.state.Get()
}

// Peek returns the current state without creating a dependency.
func (s *Store[Model, Msg]) Peek() Model {
	return s.state.Peek()
}

// Send dispatches a message through the composed middleware chain.
// The entire chain and the reducer run synchronously before Send returns;
// reactions re-run later, in the scheduler's deferred flush.
func (s *Store[Model, Msg]) Send(msg Msg) {
	s.send(msg)
}

// Logger returns the store's diagnostic logger, for reducers and
// middlewares that want to share the store's sink.
func (s *Store[Model, Msg]) Logger() *slog.Logger {
	return s.logger
}

var _ Accessor[int, string] = (*Store[int, string])(nil)
