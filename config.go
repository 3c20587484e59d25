package goToken

import (
	"context"
	"crypto"
	"time"

	"github.com/MrEthical07/goToken/compression"
	"github.com/MrEthical07/goToken/encrypt"
	"github.com/MrEthical07/goToken/signer"
	"github.com/rs/zerolog"
)

// Config is the codec configuration. It is copied by NewCodec and Build and
// never read again afterwards.
type Config struct {
	Signing     SigningKeyMaterial
	Encryption  EncryptionKeyMaterial
	Compression CompressionConfig
	// MaxAge rejects tokens older than this on Deserialize. Zero disables
	// expiry.
	MaxAge time.Duration
	// ReplayGuard makes every token single-use. Requires signing and MaxAge.
	ReplayGuard NonceStore

	Clock   func() time.Time
	Logger  *zerolog.Logger
	Metrics MetricsConfig
	Audit   AuditConfig
}

/*
====================================
KEY MATERIAL
====================================
*/

// KeyPair holds asymmetric key halves. Either half may be nil: a missing
// private key gives a verify-only signer or an encrypt-only encrypter; a
// missing public key is derived from the private key.
type KeyPair struct {
	Private crypto.PrivateKey
	Public  crypto.PublicKey
}

type materialKind int

const (
	materialNone materialKind = iota
	materialSymmetric
	materialAsymmetric
)

func (k materialKind) String() string {
	switch k {
	case materialSymmetric:
		return "symmetric"
	case materialAsymmetric:
		return "asymmetric"
	default:
		return "none"
	}
}

// SigningKeyMaterial selects the signing variant. The zero value is
// NoSigning.
type SigningKeyMaterial struct {
	kind   materialKind
	secret []byte
	keys   KeyPair
	hash   crypto.Hash
	pss    bool
}

func NoSigning() SigningKeyMaterial {
	return SigningKeyMaterial{}
}

// SymmetricSigning signs with HMAC. A zero hash selects SHA-256.
func SymmetricSigning(secret []byte, hash crypto.Hash) SigningKeyMaterial {
	if hash == 0 {
		hash = crypto.SHA256
	}
	return SigningKeyMaterial{kind: materialSymmetric, secret: cloneBytes(secret), hash: hash}
}

// AsymmetricSigning signs with RSA PKCS#1 v1.5, ECDSA or Ed25519 depending on
// the key type. A zero hash selects the key's natural hash.
func AsymmetricSigning(keys KeyPair, hash crypto.Hash) SigningKeyMaterial {
	return SigningKeyMaterial{kind: materialAsymmetric, keys: keys, hash: hash}
}

// AsymmetricSigningPSS signs with RSA-PSS.
func AsymmetricSigningPSS(keys KeyPair, hash crypto.Hash) SigningKeyMaterial {
	return SigningKeyMaterial{kind: materialAsymmetric, keys: keys, hash: hash, pss: true}
}

func (s SigningKeyMaterial) Enabled() bool  { return s.kind != materialNone }
func (s SigningKeyMaterial) String() string { return s.kind.String() }

func (s SigningKeyMaterial) build() (signer.Signer, error) {
	switch s.kind {
	case materialSymmetric:
		return signer.NewHMAC(s.secret, s.hash)
	case materialAsymmetric:
		if s.pss {
			return signer.NewRSAPSS(s.keys.Private, s.keys.Public, s.hash)
		}
		return signer.NewAsymmetric(s.keys.Private, s.keys.Public, s.hash)
	default:
		return nil, nil
	}
}

// EncryptionKeyMaterial selects the encryption variant. The zero value is
// NoEncryption.
type EncryptionKeyMaterial struct {
	kind   materialKind
	secret []byte
	cipher encrypt.Cipher
	keys   KeyPair
}

func NoEncryption() EncryptionKeyMaterial {
	return EncryptionKeyMaterial{}
}

// SymmetricEncryption encrypts with AES-GCM. The secret must be 16, 24 or 32
// bytes.
func SymmetricEncryption(secret []byte) EncryptionKeyMaterial {
	return SymmetricEncryptionWith(secret, encrypt.CipherAESGCM)
}

func SymmetricEncryptionWith(secret []byte, c encrypt.Cipher) EncryptionKeyMaterial {
	return EncryptionKeyMaterial{kind: materialSymmetric, secret: cloneBytes(secret), cipher: c}
}

// AsymmetricEncryption seals each token under a fresh content key wrapped for
// an RSA or X25519 recipient.
func AsymmetricEncryption(keys KeyPair) EncryptionKeyMaterial {
	return EncryptionKeyMaterial{kind: materialAsymmetric, keys: keys}
}

func (e EncryptionKeyMaterial) Enabled() bool  { return e.kind != materialNone }
func (e EncryptionKeyMaterial) String() string { return e.kind.String() }

func (e EncryptionKeyMaterial) build() (encrypt.Encrypter, error) {
	switch e.kind {
	case materialSymmetric:
		return encrypt.NewAEAD(e.secret, e.cipher)
	case materialAsymmetric:
		return encrypt.NewAsymmetric(e.keys.Private, e.keys.Public)
	default:
		return nil, nil
	}
}

/*
====================================
PIPELINE OPTIONS
====================================
*/

// CompressionConfig enables body compression before encryption.
type CompressionConfig struct {
	Enabled bool
	// Algorithm defaults to deflate.
	Algorithm compression.Algorithm
	// MaxDecompressedSize bounds Deserialize output. Zero selects
	// compression.DefaultMaxDecompressedSize.
	MaxDecompressedSize int
}

// NonceStore records consumed nonces. StoreIfAbsent must be atomic: exactly
// one concurrent caller wins for a given (contextKey, nonce).
type NonceStore interface {
	StoreIfAbsent(ctx context.Context, contextKey, nonce string, issuedAt time.Time) (bool, error)
}

// RetentionReporter is implemented by stores that forget nonces after a fixed
// window. The window must cover MaxAge.
type RetentionReporter interface {
	Retention() time.Duration
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// Sink receives events on the dispatcher goroutine. Nil discards them.
	Sink AuditSink
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Compression: CompressionConfig{
			Algorithm:           compression.AlgorithmDeflate,
			MaxDecompressedSize: compression.DefaultMaxDecompressedSize,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Signing.secret = cloneBytes(cfg.Signing.secret)
	out.Encryption.secret = cloneBytes(cfg.Encryption.secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports configuration combinations that cannot be used together
// and key material the primitives reject. Errors wrap ErrConfiguration.
func (c *Config) Validate() error {
	_, err := c.pipeline()
	return err
}

// pipeline is the set of primitives a valid Config resolves to.
type pipeline struct {
	signer     signer.Signer
	encrypter  encrypt.Encrypter
	compressor compression.Compressor
	canSign    bool
}

func (c *Config) pipeline() (pipeline, error) {
	var p pipeline

	if c.MaxAge < 0 {
		return p, configError("MaxAge must be >= 0")
	}

	if c.ReplayGuard != nil {
		if !c.Signing.Enabled() {
			return p, configError("replay guard requires signing")
		}
		if c.MaxAge <= 0 {
			return p, configError("replay guard requires MaxAge > 0")
		}
		if r, ok := c.ReplayGuard.(RetentionReporter); ok && r.Retention() < c.MaxAge {
			return p, configError("replay store retention %s is shorter than MaxAge %s", r.Retention(), c.MaxAge)
		}
	}

	s, err := c.Signing.build()
	if err != nil {
		return p, configError("%s signing: %v", c.Signing, err)
	}
	p.signer = s
	p.canSign = true
	if a, ok := s.(*signer.Asymmetric); ok {
		p.canSign = a.CanSign()
	}

	e, err := c.Encryption.build()
	if err != nil {
		return p, configError("%s encryption: %v", c.Encryption, err)
	}
	p.encrypter = e

	if c.Compression.MaxDecompressedSize < 0 {
		return p, configError("Compression MaxDecompressedSize must be >= 0")
	}
	if c.Compression.Enabled {
		comp, err := compression.New(c.Compression.Algorithm, c.Compression.MaxDecompressedSize)
		if err != nil {
			return p, configError("compression %q: %v", c.Compression.Algorithm, err)
		}
		p.compressor = comp
	}

	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return p, configError("Audit BufferSize must be >= 0")
	}

	return p, nil
}
