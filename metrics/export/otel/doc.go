// Package otel binds codec metrics to OpenTelemetry instruments.
//
// [NewExporter] registers an Int64ObservableCounter per codec counter and an
// Int64ObservableGauge per histogram bucket. A single callback reads every
// source's MetricsSnapshot on each collection and tags the observations with
// the codec kind.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate codec state.
package otel
