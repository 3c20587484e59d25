// Package prometheus exposes codec metrics through client_golang.
//
// [NewCollector] implements prometheus.Collector over one or more codecs and
// labels every series with the codec kind. [NewExporter] wraps it in a
// private registry with an [http.Handler]. Counter names are gotoken_*_total;
// the single histogram is gotoken_deserialize_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate codec state.
package prometheus
