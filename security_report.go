package goToken

import (
	"time"

	"github.com/MrEthical07/goToken/signer"
)

type keyBitsReporter interface {
	KeyBits() int
}

// SecurityReport summarizes the protections a codec applies. MACBytes is the
// HMAC digest length and stays zero for asymmetric signing.
type SecurityReport struct {
	PayloadKind         string
	SigningVariant      string
	SigningAlgorithm    string
	SigningKeyBits      int
	MACBytes            int
	CanSign             bool
	EncryptionVariant   string
	EncryptionAlgorithm string
	EncryptionKeyBits   int
	Compression         string
	MaxDecompressedSize int
	MaxAge              time.Duration
	ReplayGuard         bool
	NonceRetention      time.Duration
	AuditEnabled        bool
	MetricsEnabled      bool
	LintCodes           []string
}

func (c *Codec[T, P]) SecurityReport() SecurityReport {
	if c == nil {
		return SecurityReport{}
	}

	r := SecurityReport{
		PayloadKind:       c.kind,
		SigningVariant:    c.cfg.Signing.String(),
		CanSign:           c.pipeline.canSign,
		EncryptionVariant: c.cfg.Encryption.String(),
		MaxAge:            c.cfg.MaxAge,
		ReplayGuard:       c.guard != nil,
		AuditEnabled:      c.audit != nil,
		MetricsEnabled:    c.metrics.Enabled(),
		LintCodes:         c.cfg.Lint().Codes(),
	}
	switch s := c.pipeline.signer.(type) {
	case *signer.HMAC:
		r.SigningAlgorithm = s.Algorithm()
		r.SigningKeyBits = s.KeySize() * 8
		r.MACBytes = s.HashSize()
	case *signer.Asymmetric:
		r.SigningAlgorithm = s.Algorithm()
		r.SigningKeyBits = s.KeyBits()
	case nil:
	default:
		r.SigningAlgorithm = s.Algorithm()
	}
	if c.pipeline.encrypter != nil {
		r.EncryptionAlgorithm = c.pipeline.encrypter.Algorithm()
		if kb, ok := c.pipeline.encrypter.(keyBitsReporter); ok {
			r.EncryptionKeyBits = kb.KeyBits()
		}
	}
	if c.pipeline.compressor != nil {
		r.Compression = c.pipeline.compressor.Name()
		r.MaxDecompressedSize = c.cfg.Compression.MaxDecompressedSize
	}
	if rr, ok := c.cfg.ReplayGuard.(RetentionReporter); ok {
		r.NonceRetention = rr.Retention()
	}
	return r
}
