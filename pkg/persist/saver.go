package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordonbrander/refrakt/pkg/store"
)

// Saver serializes store state after each dispatch and writes it to a
// Snapshotter on a background goroutine. Pending writes coalesce: if a
// new snapshot arrives while an older one is still queued, the older one
// is dropped.
type Saver[Model, Msg any] struct {
	snap   Snapshotter
	ctx    context.Context
	logger *slog.Logger
	ch     chan []byte
	done   chan struct{}
}

// SaverOption configures a Saver.
type SaverOption func(*saverConfig)

type saverConfig struct {
	ctx    context.Context
	logger *slog.Logger
}

// WithContext sets the context passed to Snapshotter.Save.
func WithContext(ctx context.Context) SaverOption {
	return func(c *saverConfig) {
		c.ctx = ctx
	}
}

// WithLogger sets the logger for snapshot failures.
func WithLogger(logger *slog.Logger) SaverOption {
	return func(c *saverConfig) {
		c.logger = logger
	}
}

// NewSaver creates a Saver and starts its background writer.
func NewSaver[Model, Msg any](snap Snapshotter, opts ...SaverOption) *Saver[Model, Msg] {
	config := saverConfig{
		ctx:    context.Background(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	s := &Saver[Model, Msg]{
		snap:   snap,
		ctx:    config.ctx,
		logger: config.logger,
		ch:     make(chan []byte, 1),
		done:   make(chan struct{}),
	}

	go s.write()

	return s
}

func (s *Saver[Model, Msg]) write() {
	defer close(s.done)
	for data := range s.ch {
		if err := s.snap.Save(s.ctx, data); err != nil {
			s.logger.Warn("persist: snapshot failed", "error", err)
		}
	}
}

// enqueue replaces any pending snapshot with data.
func (s *Saver[Model, Msg]) enqueue(data []byte) {
	for {
		select {
		case s.ch <- data:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Middleware returns a middleware that snapshots the post-dispatch state.
// Serialization happens on the dispatching goroutine; the write happens
// in the background and its failure never reaches the caller.
func (s *Saver[Model, Msg]) Middleware() store.Middleware[Model, Msg] {
	return func(get func() Model) func(next store.SendFunc[Msg]) store.SendFunc[Msg] {
		return func(next store.SendFunc[Msg]) store.SendFunc[Msg] {
			return func(msg Msg) {
				next(msg)

				data, err := json.Marshal(get())
				if err != nil {
					s.logger.Warn("persist: encode snapshot failed", "error", err)
					return
				}
				s.enqueue(data)
			}
		}
	}
}

// Close flushes any pending snapshot and stops the writer. Call it only
// after all dispatching has stopped.
func (s *Saver[Model, Msg]) Close() {
	close(s.ch)
	<-s.done
}

// Load reads the latest snapshot and decodes it into a model. A missing
// snapshot returns the fallback with no error.
func Load[Model any](ctx context.Context, snap Snapshotter, fallback Model) (Model, error) {
	data, err := snap.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return fallback, fmt.Errorf("persist: decode snapshot: %w", err)
	}
	return m, nil
}
