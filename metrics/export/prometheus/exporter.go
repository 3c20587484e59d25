package prometheus

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/metrics/export/internaldefs"
)

// Source is satisfied by *goToken.Codec.
type Source interface {
	Kind() string
	MetricsSnapshot() goToken.MetricsSnapshot
	AuditDropped() uint64
}

// Collector exposes codec counters as Prometheus metrics, one series per
// codec kind. Values are read from the sources on every scrape.
type Collector struct {
	sources    []Source
	counters   []*prometheus.Desc
	histograms []*prometheus.Desc
	dropped    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(sources ...Source) *Collector {
	c := &Collector{
		sources:    make([]Source, 0, len(sources)),
		counters:   make([]*prometheus.Desc, len(internaldefs.CounterDefs)),
		histograms: make([]*prometheus.Desc, len(internaldefs.HistogramDefs)),
	}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	labels := []string{internaldefs.KindLabel}
	for i, def := range internaldefs.CounterDefs {
		c.counters[i] = prometheus.NewDesc(def.Name, def.Help, labels, nil)
	}
	for i, def := range internaldefs.HistogramDefs {
		c.histograms[i] = prometheus.NewDesc(def.Name, def.Help, labels, nil)
	}
	c.dropped = prometheus.NewDesc(internaldefs.AuditDroppedName, "Dropped audit events due to dispatcher backpressure.", labels, nil)
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.counters {
		ch <- d
	}
	for _, d := range c.histograms {
		ch <- d
	}
	ch <- c.dropped
}

// Collect skips sources whose metrics are disabled.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, src := range c.sources {
		snapshot := src.MetricsSnapshot()
		dropped := src.AuditDropped()
		if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
			continue
		}
		kind := src.Kind()

		for i, def := range internaldefs.CounterDefs {
			ch <- prometheus.MustNewConstMetric(c.counters[i], prometheus.CounterValue, float64(snapshot.Counters[def.ID]), kind)
		}

		for i, def := range internaldefs.HistogramDefs {
			raw, ok := snapshot.Histograms[def.ID]
			if !ok {
				continue
			}
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
			buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
			for j, le := range internaldefs.HistogramBounds {
				buckets[le] = cumulative[j]
			}
			// the snapshot keeps no sum
			ch <- prometheus.MustNewConstHistogram(c.histograms[i], cumulative[len(cumulative)-1], 0, buckets, kind)
		}

		ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(dropped), kind)
	}
}

// Exporter owns a private registry holding one Collector.
type Exporter struct {
	registry *prometheus.Registry
}

// NewExporter registers a collector for sources on a fresh registry.
func NewExporter(sources ...Source) (*Exporter, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(sources...)); err != nil {
		return nil, err
	}
	return &Exporter{registry: reg}, nil
}

// Registry lets callers add their own collectors next to the codec metrics.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Render returns the current metrics as Prometheus text, or "" when no
// source has metrics enabled.
func (e *Exporter) Render() (string, error) {
	if e == nil || e.registry == nil {
		return "", nil
	}
	families, err := e.registry.Gather()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&b, mf); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}
