package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gordonbrander/refrakt/pkg/store"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "refrakt").
	Namespace string

	// Subsystem is the metrics subsystem (default: "store").
	Subsystem string

	// ConstLabels are constant labels added to all metrics. Use these to
	// distinguish stores when several register in one process.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "refrakt",
		Subsystem: "store",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// storeMetrics holds the Prometheus collectors for one middleware instance.
type storeMetrics struct {
	messagesTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
}

func newStoreMetrics(config MetricsConfig) *storeMetrics {
	factory := promauto.With(config.Registry)

	return &storeMetrics{
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_total",
			Help:        "Total number of messages dispatched, by message type and status",
			ConstLabels: config.ConstLabels,
		}, []string{"msg", "status"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Dispatch duration in seconds (downstream middleware plus reducer)",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"msg"}),
	}
}

// Prometheus creates a middleware that records dispatch metrics.
//
// Metrics:
//   - refrakt_store_messages_total: counter by message type and status
//   - refrakt_store_dispatch_duration_seconds: histogram by message type
//
// Collectors are registered when the middleware is created; give each
// store its own Registry or ConstLabels to avoid duplicate registration.
//
// Example:
//
//	s := store.New(reducer, initial,
//	    store.WithMiddleware(
//	        middleware.Prometheus[model, msg](
//	            middleware.WithNamespace("myapp"),
//	        ),
//	    ),
//	)
//
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus[Model, Msg any](opts ...MetricsOption) store.Middleware[Model, Msg] {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	m := newStoreMetrics(config)

	return func(get func() Model) func(next store.SendFunc[Msg]) store.SendFunc[Msg] {
		return func(next store.SendFunc[Msg]) store.SendFunc[Msg] {
			return func(msg Msg) {
				label := store.MsgType(msg)
				start := time.Now()

				status := "ok"
				defer func() {
					m.dispatchDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
					m.messagesTotal.WithLabelValues(label, status).Inc()
				}()
				defer func() {
					if rec := recover(); rec != nil {
						status = "panic"
						panic(rec)
					}
				}()

				next(msg)
			}
		}
	}
}
