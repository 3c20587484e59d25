package goToken

import (
	"errors"
	"time"

	"github.com/MrEthical07/goToken/compression"
	"github.com/rs/zerolog"
)

// Builder assembles a Config step by step. A Builder builds exactly one
// codec.
type Builder struct {
	config Config
	built  bool
}

// NewBuilder starts from the defaults: no signing, no encryption, deflate
// selected but disabled, metrics on, audit off.
func NewBuilder() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces everything set so far.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

func (b *Builder) WithSigning(s SigningKeyMaterial) *Builder {
	b.config.Signing = s
	return b
}

func (b *Builder) WithEncryption(e EncryptionKeyMaterial) *Builder {
	b.config.Encryption = e
	return b
}

// WithCompression enables compression with alg. An empty alg keeps the
// current algorithm.
func (b *Builder) WithCompression(alg compression.Algorithm) *Builder {
	b.config.Compression.Enabled = true
	if alg != "" {
		b.config.Compression.Algorithm = alg
	}
	return b
}

func (b *Builder) WithMaxDecompressedSize(n int) *Builder {
	b.config.Compression.MaxDecompressedSize = n
	return b
}

func (b *Builder) WithMaxAge(d time.Duration) *Builder {
	b.config.MaxAge = d
	return b
}

func (b *Builder) WithReplayGuard(store NonceStore) *Builder {
	b.config.ReplayGuard = store
	return b
}

func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.config.Clock = clock
	return b
}

func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.config.Logger = &logger
	return b
}

// WithAuditSink enables audit dispatch to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.config.Audit.Enabled = sink != nil
	b.config.Audit.Sink = sink
	return b
}

func (b *Builder) WithAuditBuffer(size int, dropIfFull bool) *Builder {
	b.config.Audit.BufferSize = size
	b.config.Audit.DropIfFull = dropIfFull
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Config returns a copy of the configuration assembled so far.
func (b *Builder) Config() Config {
	return cloneConfig(b.config)
}

// Build validates the configuration and returns a codec for T.
func Build[T any, P PayloadPtr[T]](b *Builder) (*Codec[T, P], error) {
	if b == nil {
		return nil, configError("nil builder")
	}
	if b.built {
		return nil, errors.New("builder already used")
	}

	c, err := NewCodec[T, P](b.config)
	if err != nil {
		return nil, err
	}

	b.built = true
	return c, nil
}
