package goToken

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goToken/noncestore"
)

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricTokenAccepted)
	}
}

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricTokenAccepted)
		}
	})
}

func benchCodec(b *testing.B, cfg Config) *Codec[testGrant, *testGrant] {
	b.Helper()
	c, err := NewCodec[testGrant](cfg)
	if err != nil {
		b.Fatalf("NewCodec failed: %v", err)
	}
	b.Cleanup(c.Close)
	return c
}

func BenchmarkSerializeHMACAESGCM(b *testing.B) {
	codec := benchCodec(b, Config{
		Signing:    SymmetricSigning(testSecret, 0),
		Encryption: SymmetricEncryption(testSecret),
	})
	payload := &testGrant{Subject: "user-42", Scopes: []string{"openid", "profile"}}
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := codec.Serialize(ctx, payload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDeserializeHMACAESGCMWithReplay(b *testing.B) {
	codec := benchCodec(b, Config{
		Signing:     SymmetricSigning(testSecret, 0),
		Encryption:  SymmetricEncryption(testSecret),
		MaxAge:      time.Minute,
		ReplayGuard: noncestore.NewMemory(time.Hour),
	})
	ctx := context.Background()
	tokens := make([]string, b.N)
	for i := range tokens {
		tok, err := codec.Serialize(ctx, &testGrant{Subject: "user-42"})
		if err != nil {
			b.Fatal(err)
		}
		tokens[i] = tok
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := codec.Deserialize(ctx, tokens[i]); err != nil {
			b.Fatal(err)
		}
	}
}
