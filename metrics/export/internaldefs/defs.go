package internaldefs

import (
	goToken "github.com/MrEthical07/goToken"
)

// CounterDef maps a codec counter to its exported name.
type CounterDef struct {
	ID   goToken.MetricID
	Name string
	Help string
}

// HistogramDef maps a codec histogram to its exported name.
type HistogramDef struct {
	ID   goToken.MetricID
	Name string
	Help string
}

// KindLabel carries the codec payload kind on every exported series.
const KindLabel = "kind"

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "gotoken_audit_dropped_total"

var CounterDefs = []CounterDef{
	{ID: goToken.MetricTokenIssued, Name: "gotoken_token_issued_total", Help: "Tokens serialized."},
	{ID: goToken.MetricSerializeFailure, Name: "gotoken_serialize_failure_total", Help: "Serialize calls that returned an error."},
	{ID: goToken.MetricTokenAccepted, Name: "gotoken_token_accepted_total", Help: "Tokens that passed every deserialize check."},
	{ID: goToken.MetricMalformedToken, Name: "gotoken_malformed_token_total", Help: "Tokens rejected as undecodable."},
	{ID: goToken.MetricIntegrityFailure, Name: "gotoken_integrity_failure_total", Help: "Tokens rejected for a bad signature."},
	{ID: goToken.MetricDecryptionFailure, Name: "gotoken_decryption_failure_total", Help: "Tokens whose body failed to decrypt."},
	{ID: goToken.MetricExpiredToken, Name: "gotoken_expired_token_total", Help: "Tokens older than MaxAge."},
	{ID: goToken.MetricReplayDetected, Name: "gotoken_replay_detected_total", Help: "Tokens presented a second time."},
	{ID: goToken.MetricReplayCheckUnavailable, Name: "gotoken_replay_check_unavailable_total", Help: "Deserialize calls failed by the nonce store."},
	{ID: goToken.MetricValidationFailure, Name: "gotoken_validation_failure_total", Help: "Payloads rejected by their own Validate."},
}

var HistogramDefs = []HistogramDef{
	{ID: goToken.MetricDeserializeLatency, Name: "gotoken_deserialize_latency_seconds", Help: "Deserialize latency histogram."},
}

// HistogramBounds are the bucket upper bounds in seconds. The last bucket is
// unbounded.
var HistogramBounds = []float64{
	0.00005,
	0.0001,
	0.00025,
	0.0005,
	0.001,
	0.005,
	0.1,
}

var HistogramBoundLabels = []string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.1",
	"+Inf",
}

// HistogramBoundSuffix renders bounds for instrument names that cannot carry
// dots.
var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_1",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
