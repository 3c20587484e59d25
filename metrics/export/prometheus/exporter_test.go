package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/fields"
	"github.com/MrEthical07/goToken/metrics/export/internaldefs"
)

type fakeSource struct {
	kind     string
	snapshot goToken.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) Kind() string                             { return f.kind }
func (f fakeSource) MetricsSnapshot() goToken.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func emptySource(kind string) fakeSource {
	return fakeSource{
		kind: kind,
		snapshot: goToken.MetricsSnapshot{
			Counters:   map[goToken.MetricID]uint64{},
			Histograms: map[goToken.MetricID][]uint64{},
		},
	}
}

func mustRender(t *testing.T, exp *Exporter) string {
	t.Helper()
	out, err := exp.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return out
}

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp, err := NewExporter(emptySource("a"))
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	if got := mustRender(t, exp); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp, err := NewExporter(fakeSource{
		kind: "oauth.refresh_token",
		snapshot: goToken.MetricsSnapshot{
			Counters: map[goToken.MetricID]uint64{
				goToken.MetricTokenIssued: 7,
			},
			Histograms: map[goToken.MetricID][]uint64{
				goToken.MetricDeserializeLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	out := mustRender(t, exp)
	if !strings.Contains(out, `gotoken_token_issued_total{kind="oauth.refresh_token"} 7`) {
		t.Fatalf("expected token_issued counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, `gotoken_deserialize_latency_seconds_bucket{kind="oauth.refresh_token",le="+Inf"} 36`) {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, `gotoken_deserialize_latency_seconds_count{kind="oauth.refresh_token"} 36`) {
		t.Fatalf("expected histogram count in output, got:\n%s", out)
	}
	if !strings.Contains(out, `gotoken_audit_dropped_total{kind="oauth.refresh_token"} 2`) {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

func TestCollectorLabelsEachSource(t *testing.T) {
	a := emptySource("a")
	a.snapshot.Counters[goToken.MetricReplayDetected] = 3
	b := emptySource("b")
	b.snapshot.Counters[goToken.MetricReplayDetected] = 4
	disabled := emptySource("c")

	c := NewCollector(a, b, disabled, nil)
	// counters plus audit_dropped, for two enabled sources
	want := 2 * (len(internaldefs.CounterDefs) + 1)
	if got := testutil.CollectAndCount(c); got != want {
		t.Fatalf("expected %d series, got %d", want, got)
	}
	if got := testutil.CollectAndCount(c, "gotoken_replay_detected_total"); got != 2 {
		t.Fatalf("expected 2 replay series, got %d", got)
	}
}

func TestHandlerServesCodecMetrics(t *testing.T) {
	codec, err := goToken.NewCodec[grant](goToken.Config{
		Signing: goToken.SymmetricSigning([]byte("0123456789abcdef0123456789abcdef"), 0),
		Metrics: goToken.MetricsConfig{Enabled: true},
	})
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	defer codec.Close()

	if _, err := codec.Serialize(context.Background(), &grant{}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	exp, err := NewExporter(codec)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), `gotoken_token_issued_total{kind="test.grant"} 1`) {
		t.Fatalf("expected issued counter, got:\n%s", rec.Body.String())
	}
}

func BenchmarkRender(b *testing.B) {
	exp, err := NewExporter(fakeSource{
		kind: "bench",
		snapshot: goToken.MetricsSnapshot{
			Counters: map[goToken.MetricID]uint64{
				goToken.MetricTokenIssued:      1000,
				goToken.MetricTokenAccepted:    800,
				goToken.MetricReplayDetected:   10,
				goToken.MetricExpiredToken:     40,
				goToken.MetricIntegrityFailure: 3,
			},
			Histograms: map[goToken.MetricID][]uint64{
				goToken.MetricDeserializeLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = exp.Render()
	}
}

type grant struct {
	goToken.Metadata
}

func (*grant) TokenKind() string { return "test.grant" }

func (g *grant) EncodeFields() ([]byte, error) { return fields.NewWriter(1).Finish() }

func (g *grant) DecodeFields(b []byte) error { return fields.NewReader(b, 1).Finish() }

func (g *grant) Validate() error { return nil }
