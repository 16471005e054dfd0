package fx_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gordonbrander/refrakt/pkg/fx"
	"github.com/gordonbrander/refrakt/pkg/store"
)

type model struct {
	Count   int
	Loading bool
}

type msg struct {
	Kind  string
	Value int
}

func (m msg) MsgType() string { return m.Kind }

func reducer(m model, message msg) model {
	switch message.Kind {
	case "increment":
		m.Count++
	case "set":
		m.Count = message.Value
	case "load":
		m.Loading = true
	}
	return m
}

func TestEffectFanOut(t *testing.T) {
	runner := fx.New(func(ctx context.Context, get func() model, message msg, yield func(msg)) error {
		if message.Kind == "async_increment" {
			yield(msg{Kind: "increment"})
			yield(msg{Kind: "set", Value: get().Count + 5})
		}
		return nil
	})

	s := store.New(reducer, model{},
		store.WithMiddleware(runner.Middleware()))

	s.Send(msg{Kind: "async_increment"})
	runner.Wait()

	assert.Equal(t, 6, s.Get().Count)
}

func TestEffectFailureIsIsolated(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&syncWriter{buf: &buf, mu: &mu}, nil))

	runner := fx.New(func(ctx context.Context, get func() model, message msg, yield func(msg)) error {
		if message.Kind == "load" {
			return errors.New("backend unavailable")
		}
		return nil
	}, fx.WithLogger[model, msg](logger))

	s := store.New(reducer, model{},
		store.WithMiddleware(runner.Middleware()))

	s.Send(msg{Kind: "load"})
	runner.Wait()

	// Reducer-applied state from the triggering message persists; the
	// failure does not roll it back.
	assert.Equal(t, model{Count: 0, Loading: true}, s.Get())

	// Subsequent dispatches are unaffected.
	s.Send(msg{Kind: "increment"})
	runner.Wait()
	assert.Equal(t, 1, s.Get().Count)

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	require.Contains(t, out, "fx: effect failure")
	require.Contains(t, out, "backend unavailable")
}

func TestEffectPanicIsContained(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&syncWriter{buf: &buf, mu: &mu}, nil))

	runner := fx.New(func(ctx context.Context, get func() model, message msg, yield func(msg)) error {
		if message.Kind == "load" {
			yield(msg{Kind: "increment"})
			panic("exploded mid-drain")
		}
		return nil
	}, fx.WithLogger[model, msg](logger))

	s := store.New(reducer, model{},
		store.WithMiddleware(runner.Middleware()))

	s.Send(msg{Kind: "load"})
	runner.Wait()

	// The message yielded before the panic was applied; nothing after.
	assert.Equal(t, model{Count: 1, Loading: true}, s.Get())

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	assert.Contains(t, out, "fx: effect failure")
}

func TestConcurrentDrainsInterleave(t *testing.T) {
	runner := fx.New(func(ctx context.Context, get func() model, message msg, yield func(msg)) error {
		if message.Kind == "async_increment" {
			yield(msg{Kind: "increment"})
		}
		return nil
	})

	s := store.New(reducer, model{},
		store.WithMiddleware(runner.Middleware()))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Send(msg{Kind: "async_increment"})
		}()
	}
	wg.Wait()
	runner.Wait()

	assert.Equal(t, n, s.Get().Count)
}

func TestCooperativeStop(t *testing.T) {
	// The effect keeps yielding increments until state says stop; the
	// runner never interrupts it.
	runner := fx.New(func(ctx context.Context, get func() model, message msg, yield func(msg)) error {
		if message.Kind != "run_until_five" {
			return nil
		}
		for get().Count < 5 {
			yield(msg{Kind: "increment"})
		}
		return nil
	})

	s := store.New(reducer, model{},
		store.WithMiddleware(runner.Middleware()))

	s.Send(msg{Kind: "run_until_five"})
	runner.Wait()

	assert.Equal(t, 5, s.Get().Count)
}

// syncWriter serializes writes from drain goroutines.
type syncWriter struct {
	buf *bytes.Buffer
	mu  *sync.Mutex
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}
