// Package middleware provides observability middlewares for refrakt
// stores: Prometheus metrics and OpenTelemetry tracing.
//
// Both are ordinary store middlewares and compose like any other. Placed
// before an fx middleware they observe external dispatches only; placed
// after it they also observe effect-yielded messages.
package middleware
