package goToken

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a codec counter.
type MetricID uint16

const (
	// MetricTokenIssued counts successful Serialize calls.
	MetricTokenIssued MetricID = iota
	// MetricSerializeFailure counts Serialize calls that returned an error.
	MetricSerializeFailure
	// MetricTokenAccepted counts tokens that passed every Deserialize check.
	MetricTokenAccepted
	// MetricMalformedToken counts tokens rejected as undecodable.
	MetricMalformedToken
	// MetricIntegrityFailure counts signature mismatches.
	MetricIntegrityFailure
	// MetricDecryptionFailure counts bodies that failed to decrypt.
	MetricDecryptionFailure
	// MetricExpiredToken counts tokens older than MaxAge.
	MetricExpiredToken
	// MetricReplayDetected counts reused nonces.
	MetricReplayDetected
	// MetricReplayCheckUnavailable counts nonce store failures.
	MetricReplayCheckUnavailable
	// MetricValidationFailure counts payloads that failed Validate.
	MetricValidationFailure
	// MetricDeserializeLatency is the Deserialize latency histogram.
	MetricDeserializeLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters plus one latency histogram.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram of id. Only MetricDeserializeLatency
// carries a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricDeserializeLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricDeserializeLatency].buckets[i])
		}
		s.Histograms[MetricDeserializeLatency] = buckets
	}

	return s
}

// Deserialize runs in microseconds unless the nonce store is remote, so the
// buckets span 50us to 100ms.
func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 50:
		return 0
	case us <= 100:
		return 1
	case us <= 250:
		return 2
	case us <= 500:
		return 3
	case us <= 1000:
		return 4
	case us <= 5000:
		return 5
	case us <= 100000:
		return 6
	default:
		return 7
	}
}

func stageMetric(kind error) MetricID {
	switch kind {
	case ErrIntegrity:
		return MetricIntegrityFailure
	case ErrDecryption:
		return MetricDecryptionFailure
	case ErrExpiredToken:
		return MetricExpiredToken
	case ErrReplay:
		return MetricReplayDetected
	case ErrReplayCheckUnavailable:
		return MetricReplayCheckUnavailable
	case ErrValidation:
		return MetricValidationFailure
	default:
		return MetricMalformedToken
	}
}
