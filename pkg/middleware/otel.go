package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gordonbrander/refrakt/pkg/store"
)

// OTelConfig configures the OpenTelemetry tracing middleware.
type OTelConfig struct {
	// TracerName is the name passed to otel.Tracer (default: "refrakt").
	TracerName string

	// TracerProvider supplies the tracer. Default: the global provider.
	TracerProvider trace.TracerProvider

	// Filter decides whether a message is traced. Nil traces everything.
	Filter func(msgType string) bool

	// Attributes extracts extra span attributes from a message.
	Attributes func(msg any) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry tracing middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(provider trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = provider
	}
}

// WithFilter sets a predicate over message type names. Messages whose
// type name the predicate rejects are dispatched without a span.
func WithFilter(filter func(msgType string) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributes sets an attribute extractor applied per message.
func WithAttributes(extract func(msg any) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.Attributes = extract
	}
}

func recoveredError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", rec)
}

// OpenTelemetry creates a middleware that wraps each dispatch in a span.
//
// The span is named "store.dispatch <msgType>" and carries a refrakt.msg
// attribute. A panicking dispatch records the error and marks the span
// before re-panicking.
//
// Dispatches are synchronous, so the span covers the downstream pipeline
// and the reducer but not any async work a later fx middleware spawns.
func OpenTelemetry[Model, Msg any](opts ...OTelOption) store.Middleware[Model, Msg] {
	config := OTelConfig{
		TracerName: "refrakt",
	}
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return func(get func() Model) func(next store.SendFunc[Msg]) store.SendFunc[Msg] {
		return func(next store.SendFunc[Msg]) store.SendFunc[Msg] {
			return func(msg Msg) {
				msgType := store.MsgType(msg)
				if config.Filter != nil && !config.Filter(msgType) {
					next(msg)
					return
				}

				attrs := []attribute.KeyValue{
					attribute.String("refrakt.msg", msgType),
				}
				if config.Attributes != nil {
					attrs = append(attrs, config.Attributes(msg)...)
				}

				_, span := tracer.Start(context.Background(), "store.dispatch "+msgType,
					trace.WithSpanKind(trace.SpanKindInternal),
					trace.WithAttributes(attrs...),
				)
				defer span.End()

				defer func() {
					if rec := recover(); rec != nil {
						span.RecordError(recoveredError(rec))
						span.SetStatus(codes.Error, "dispatch panicked")
						panic(rec)
					}
					span.SetStatus(codes.Ok, "")
				}()

				next(msg)
			}
		}
	}
}
