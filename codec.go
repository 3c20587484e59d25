package goToken

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goToken/encrypt"
	"github.com/MrEthical07/goToken/internal/envelope"
	"github.com/rs/zerolog"
)

var errNilPayload = errors.New("nil payload")

// Codec turns payloads of type T into opaque token strings and back.
//
// A Codec is immutable after construction and safe for concurrent use. Close
// flushes pending audit events.
type Codec[T any, P PayloadPtr[T]] struct {
	cfg      Config
	pipeline pipeline
	guard    *ReplayGuard
	kind     string
	clock    func() time.Time
	logger   zerolog.Logger
	metrics  *Metrics
	audit    *auditDispatcher
}

// NewCodec validates cfg and builds a codec for payload type T. All
// configuration errors wrap ErrConfiguration.
func NewCodec[T any, P PayloadPtr[T]](cfg Config) (*Codec[T, P], error) {
	cfg = cloneConfig(cfg)

	p, err := cfg.pipeline()
	if err != nil {
		return nil, err
	}

	c := &Codec[T, P]{
		cfg:      cfg,
		pipeline: p,
		kind:     ContextKey[T, P](),
		clock:    cfg.Clock,
		logger:   zerolog.Nop(),
		metrics:  NewMetrics(cfg.Metrics),
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if cfg.Logger != nil {
		c.logger = *cfg.Logger
	}
	c.logger = c.logger.With().Str("component", "gotoken").Str("kind", c.kind).Logger()
	c.audit = newAuditDispatcher(cfg.Audit, c.logger)
	if cfg.ReplayGuard != nil {
		c.guard = NewReplayGuard(cfg.ReplayGuard)
	}

	c.logger.Debug().
		Str("signing", cfg.Signing.String()).
		Str("encryption", cfg.Encryption.String()).
		Bool("compression", cfg.Compression.Enabled).
		Dur("max_age", cfg.MaxAge).
		Bool("replay_guard", c.guard != nil).
		Msg("codec ready")

	return c, nil
}

// Kind is the replay namespace of T.
func (c *Codec[T, P]) Kind() string {
	return c.kind
}

func (c *Codec[T, P]) now() time.Time {
	return c.clock().UTC()
}

// nowMillis is now at the precision CreatedAt is stored with.
func (c *Codec[T, P]) nowMillis() time.Time {
	return time.UnixMilli(c.clock().UnixMilli()).UTC()
}

// Serialize stamps CreatedAt, Nonce and Signature on payload and returns the
// token string.
func (c *Codec[T, P]) Serialize(ctx context.Context, payload P) (string, error) {
	if payload == nil {
		return "", c.issueFailed(ctx, nil, errNilPayload, errNilPayload)
	}
	meta := payload.TokenMetadata()

	if c.pipeline.signer != nil && !c.pipeline.canSign {
		return "", c.issueFailed(ctx, meta.Exchange, ErrMissingPrivateKey, nil)
	}

	meta.CreatedAt = c.nowMillis()
	meta.Nonce = nil
	meta.Signature = nil
	if c.guard != nil {
		nonce, err := c.guard.Generate()
		if err != nil {
			return "", c.issueFailed(ctx, meta.Exchange, err, nil)
		}
		meta.Nonce = nonce
	}

	fieldBytes, err := payload.EncodeFields()
	if err != nil {
		return "", c.issueFailed(ctx, meta.Exchange, err, nil)
	}
	body := make([]byte, 0, 16+NonceSize+len(fieldBytes))
	body, err = envelope.AppendHeader(body, meta.CreatedAt.UnixMilli(), meta.Nonce)
	if err != nil {
		return "", c.issueFailed(ctx, meta.Exchange, err, nil)
	}
	body = append(body, fieldBytes...)

	if c.pipeline.compressor != nil {
		if body, err = c.pipeline.compressor.Compress(body); err != nil {
			return "", c.issueFailed(ctx, meta.Exchange, err, nil)
		}
	}

	if c.pipeline.encrypter != nil {
		if body, err = c.pipeline.encrypter.Encrypt(body); err != nil {
			return "", c.issueFailed(ctx, meta.Exchange, err, nil)
		}
	}

	var signature []byte
	if c.pipeline.signer != nil {
		if signature, err = c.pipeline.signer.Sign(body); err != nil {
			return "", c.issueFailed(ctx, meta.Exchange, err, nil)
		}
		meta.Signature = signature
	}

	raw, err := envelope.Frame(signature, body, c.pipeline.signer != nil)
	if err != nil {
		return "", c.issueFailed(ctx, meta.Exchange, err, nil)
	}

	c.metrics.Inc(MetricTokenIssued)
	c.emitAudit(ctx, newAuditEvent(AuditTokenIssued, c.kind, meta.CreatedAt), true)

	return envelope.Encode(raw), nil
}

// Deserialize decodes value into a fresh T.
//
// Checks run in a fixed order and the first failure is returned: signature,
// decryption, decompression and field decoding, expiry, replay, and finally
// the payload's own Validate. A failed signature therefore always reports
// ErrIntegrity, even for a token that is also expired or replayed. Every
// error is a *TokenError.
func (c *Codec[T, P]) Deserialize(ctx context.Context, value string) (P, error) {
	started := time.Now()
	exchange := exchangeFromContext(ctx)

	raw, err := envelope.Decode(value)
	if err != nil {
		return nil, c.reject(ctx, StageDecode, ErrMalformedToken, exchange, err, started)
	}

	signed := c.pipeline.signer != nil
	signature, body, err := envelope.Split(raw, signed)
	if err != nil {
		if signed {
			return nil, c.reject(ctx, StageIntegrity, ErrIntegrity, exchange, err, started)
		}
		return nil, c.reject(ctx, StageDecode, ErrMalformedToken, exchange, err, started)
	}

	if signed && !c.pipeline.signer.Verify(body, signature) {
		return nil, c.reject(ctx, StageIntegrity, ErrIntegrity, exchange, nil, started)
	}

	if c.pipeline.encrypter != nil {
		if body, err = c.pipeline.encrypter.Decrypt(body); err != nil {
			return nil, c.reject(ctx, StageDecryption, ErrDecryption, exchange, decryptCause(err), started)
		}
	}

	if c.pipeline.compressor != nil {
		if body, err = c.pipeline.compressor.Decompress(body); err != nil {
			return nil, c.reject(ctx, StageDecompress, ErrMalformedToken, exchange, err, started)
		}
	}

	createdAt, nonce, fieldBytes, err := envelope.ReadHeader(body)
	if err != nil {
		return nil, c.reject(ctx, StageFields, ErrMalformedToken, exchange, err, started)
	}

	payload := P(new(T))
	if err := payload.DecodeFields(fieldBytes); err != nil {
		return nil, c.reject(ctx, StageFields, ErrMalformedToken, exchange, err, started)
	}

	meta := payload.TokenMetadata()
	meta.CreatedAt = time.UnixMilli(createdAt).UTC()
	meta.Nonce = nil
	if len(nonce) > 0 {
		meta.Nonce = cloneBytes(nonce)
	}
	meta.Signature = cloneBytes(signature)
	meta.Exchange = exchange

	if c.cfg.MaxAge > 0 && meta.CreatedAt.Add(c.cfg.MaxAge).Before(c.nowMillis()) {
		return nil, c.reject(ctx, StageExpiry, ErrExpiredToken, exchange, nil, started)
	}

	if c.guard != nil {
		fresh, err := c.guard.StoreAndCheck(ctx, c.kind, meta.Nonce, meta.CreatedAt)
		switch {
		case errors.Is(err, errMissingNonce):
			return nil, c.reject(ctx, StageReplay, ErrReplay, exchange, err, started)
		case err != nil:
			c.logger.Warn().Err(err).Msg("nonce store unavailable")
			return nil, c.reject(ctx, StageReplay, ErrReplayCheckUnavailable, exchange, err, started)
		case !fresh:
			return nil, c.reject(ctx, StageReplay, ErrReplay, exchange, nil, started)
		}
	}

	if err := payload.Validate(); err != nil {
		return nil, c.reject(ctx, StageValidation, ErrValidation, exchange, err, started)
	}

	c.metrics.Inc(MetricTokenAccepted)
	c.metrics.Observe(MetricDeserializeLatency, time.Since(started))
	c.emitAudit(ctx, newAuditEvent(AuditTokenAccepted, c.kind, c.now()), true)

	return payload, nil
}

// decryptCause keeps ciphertext details out of errors while preserving the
// missing-key case.
func decryptCause(err error) error {
	if errors.Is(err, encrypt.ErrNoPrivateKey) {
		return ErrMissingPrivateKey
	}
	return err
}

func (c *Codec[T, P]) reject(ctx context.Context, stage Stage, kind error, exchange any, cause error, started time.Time) error {
	c.metrics.Inc(stageMetric(kind))
	c.metrics.Observe(MetricDeserializeLatency, time.Since(started))

	c.logger.Debug().
		Str("stage", string(stage)).
		AnErr("cause", cause).
		Msg("token rejected")

	ev := newAuditEvent(AuditTokenRejected, c.kind, c.now())
	ev.Stage = stage
	ev.Error = kind.Error()
	c.emitAudit(ctx, ev, false)

	return newTokenError(stage, kind, c.kind, exchange, cause)
}

func (c *Codec[T, P]) issueFailed(ctx context.Context, exchange any, kind, cause error) error {
	c.metrics.Inc(MetricSerializeFailure)
	c.logger.Debug().AnErr("cause", cause).Err(kind).Msg("token not issued")

	ev := newAuditEvent(AuditTokenIssued, c.kind, c.now())
	ev.Stage = StageEncode
	ev.Error = kind.Error()
	c.emitAudit(ctx, ev, false)

	return newTokenError(StageEncode, kind, c.kind, exchange, cause)
}

func (c *Codec[T, P]) emitAudit(ctx context.Context, event AuditEvent, success bool) {
	if c.audit == nil {
		return
	}
	event.Success = success
	c.audit.Emit(ctx, event)
}

// MetricsSnapshot returns the codec's counters.
func (c *Codec[T, P]) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped reports events dropped because the audit buffer was full.
func (c *Codec[T, P]) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// AuditDroppedByType splits AuditDropped by event type, so lost rejections
// can be told apart from lost issue or accept events.
func (c *Codec[T, P]) AuditDroppedByType() map[string]uint64 {
	return c.audit.DroppedByType()
}

// Close drains the audit dispatcher. The codec keeps working afterwards but
// emits no further audit events.
func (c *Codec[T, P]) Close() {
	c.audit.Close()
}
