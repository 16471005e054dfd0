package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gordonbrander/refrakt/pkg/reactive"
	"github.com/gordonbrander/refrakt/pkg/store"
)

const writeTimeout = 10 * time.Second

// Server serves a store's state over HTTP and WebSocket.
type Server[Model, Msg any] struct {
	store     store.Accessor[Model, Msg]
	scheduler *reactive.Scheduler
	logger    *slog.Logger
	gatherer  prometheus.Gatherer
	upgrader  websocket.Upgrader
	router    chi.Router
}

// Option configures a Server.
type Option func(*config)

type config struct {
	scheduler   *reactive.Scheduler
	logger      *slog.Logger
	gatherer    prometheus.Gatherer
	checkOrigin func(*http.Request) bool
}

// WithScheduler sets the scheduler used to observe state changes.
// Default: reactive.DefaultScheduler.
func WithScheduler(scheduler *reactive.Scheduler) Option {
	return func(c *config) {
		c.scheduler = scheduler
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithGatherer sets the Prometheus gatherer served at /metrics.
// Default: prometheus.DefaultGatherer.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(c *config) {
		c.gatherer = gatherer
	}
}

// WithCheckOrigin sets the WebSocket origin check.
func WithCheckOrigin(check func(*http.Request) bool) Option {
	return func(c *config) {
		c.checkOrigin = check
	}
}

// New creates a devtools server for a store.
func New[Model, Msg any](st store.Accessor[Model, Msg], opts ...Option) *Server[Model, Msg] {
	cfg := config{
		scheduler: reactive.DefaultScheduler,
		logger:    slog.Default(),
		gatherer:  prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server[Model, Msg]{
		store:     st,
		scheduler: cfg.scheduler,
		logger:    cfg.logger,
		gatherer:  cfg.gatherer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.checkOrigin,
		},
	}

	r := chi.NewRouter()
	r.Get("/state", s.handleState)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWS)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server[Model, Msg]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns an http.Handler for mounting in external routers.
func (s *Server[Model, Msg]) Handler() http.Handler {
	return s.router
}

func (s *Server[Model, Msg]) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.store.Peek()); err != nil {
		s.logger.Error("state encode failed", "error", err)
	}
}

// handleWS upgrades the connection and pushes state JSON on every change.
// The initial state is pushed immediately after the upgrade.
func (s *Server[Model, Msg]) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	// Latest-wins buffer between the scheduler goroutine and the writer.
	// A slow client sees fewer intermediate states, never a stale final one.
	updates := make(chan Model, 1)
	unsub := s.scheduler.Effect(func() reactive.Cleanup {
		m := s.store.Get()
		for {
			select {
			case updates <- m:
				return nil
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})

	// Read loop exists to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer conn.Close()
		defer unsub()

		for {
			select {
			case m := <-updates:
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(m); err != nil {
					if websocket.IsUnexpectedCloseError(err,
						websocket.CloseGoingAway,
						websocket.CloseNormalClosure) {
						s.logger.Error("websocket write failed", "error", err)
					}
					return
				}

			case <-done:
				return
			}
		}
	}()
}
