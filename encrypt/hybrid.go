package encrypt

import (
	"crypto"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"io"

	"github.com/MrEthical07/goToken/internal/envelope"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const contentKeySize = 32

var (
	oaepLabel   = []byte("goToken content key")
	x25519Info  = []byte("goToken x25519 key wrap")
	minOAEPSize = 2*sha256.Size + 2 + contentKeySize
)

// KeyWrapper protects a per-token content key under a recipient key pair.
type KeyWrapper interface {
	Wrap(contentKey []byte) ([]byte, error)
	Unwrap(wrapped []byte) ([]byte, error)
	Algorithm() string
}

// Hybrid seals each body under a fresh AES-256-GCM content key and wraps that
// key for the recipient. Output is [u32 len][wrapped key][nonce|ciphertext].
type Hybrid struct {
	wrapper KeyWrapper
}

// NewHybrid builds a hybrid encrypter around a key wrapper.
func NewHybrid(w KeyWrapper) *Hybrid {
	return &Hybrid{wrapper: w}
}

// NewAsymmetric selects the key wrapper from the key types: RSA keys use
// RSA-OAEP, X25519 ECDH keys use an ephemeral-static exchange. private may be
// nil for an encrypt-only instance.
func NewAsymmetric(private crypto.PrivateKey, public crypto.PublicKey) (*Hybrid, error) {
	w, err := newWrapper(private, public)
	if err != nil {
		return nil, err
	}
	return NewHybrid(w), nil
}

func newWrapper(private crypto.PrivateKey, public crypto.PublicKey) (KeyWrapper, error) {
	if private == nil && public == nil {
		return nil, ErrInvalidKey
	}

	switch key := private.(type) {
	case *rsa.PrivateKey:
		if public != nil && !key.PublicKey.Equal(public) {
			return nil, ErrInvalidKey
		}
		return NewRSAWrapper(key, &key.PublicKey)
	case *ecdh.PrivateKey:
		if public != nil && !key.PublicKey().Equal(public) {
			return nil, ErrInvalidKey
		}
		return NewX25519Wrapper(key, key.PublicKey())
	case nil:
	default:
		return nil, ErrInvalidKey
	}

	switch key := public.(type) {
	case *rsa.PublicKey:
		return NewRSAWrapper(nil, key)
	case *ecdh.PublicKey:
		return NewX25519Wrapper(nil, key)
	default:
		return nil, ErrInvalidKey
	}
}

func (h *Hybrid) Encrypt(plaintext []byte) ([]byte, error) {
	contentKey := make([]byte, contentKeySize)
	if _, err := io.ReadFull(rand.Reader, contentKey); err != nil {
		return nil, err
	}

	sealer, err := NewAEAD(contentKey, CipherAESGCM)
	if err != nil {
		return nil, err
	}
	sealed, err := sealer.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}

	wrapped, err := h.wrapper.Wrap(contentKey)
	if err != nil {
		return nil, err
	}

	out, err := envelope.AppendField(make([]byte, 0, 4+len(wrapped)+len(sealed)), wrapped)
	if err != nil {
		return nil, err
	}
	return append(out, sealed...), nil
}

func (h *Hybrid) Decrypt(ciphertext []byte) ([]byte, error) {
	wrapped, sealed, err := envelope.ReadField(ciphertext)
	if err != nil {
		return nil, ErrDecrypt
	}

	contentKey, err := h.wrapper.Unwrap(wrapped)
	if err != nil {
		return nil, err
	}
	if len(contentKey) != contentKeySize {
		return nil, ErrDecrypt
	}

	opener, err := NewAEAD(contentKey, CipherAESGCM)
	if err != nil {
		return nil, ErrDecrypt
	}
	return opener.Decrypt(sealed)
}

func (h *Hybrid) Algorithm() string { return h.wrapper.Algorithm() + "+A256GCM" }

// KeyBits reports the recipient key size, or 0 for wrappers that do not say.
func (h *Hybrid) KeyBits() int {
	if kb, ok := h.wrapper.(interface{ KeyBits() int }); ok {
		return kb.KeyBits()
	}
	return 0
}

// CanDecrypt reports whether the private half is present.
func (h *Hybrid) CanDecrypt() bool {
	switch w := h.wrapper.(type) {
	case *RSAWrapper:
		return w.private != nil
	case *X25519Wrapper:
		return w.private != nil
	}
	return true
}

// RSAWrapper wraps content keys with RSA-OAEP (SHA-256).
type RSAWrapper struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

func NewRSAWrapper(private *rsa.PrivateKey, public *rsa.PublicKey) (*RSAWrapper, error) {
	if public == nil {
		return nil, ErrInvalidKey
	}
	if public.Size() < minOAEPSize {
		return nil, ErrInvalidKey
	}
	return &RSAWrapper{private: private, public: public}, nil
}

func (w *RSAWrapper) Wrap(contentKey []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, w.public, contentKey, oaepLabel)
}

func (w *RSAWrapper) Unwrap(wrapped []byte) ([]byte, error) {
	if w.private == nil {
		return nil, ErrNoPrivateKey
	}
	key, err := rsa.DecryptOAEP(sha256.New(), nil, w.private, wrapped, oaepLabel)
	if err != nil {
		return nil, ErrDecrypt
	}
	return key, nil
}

func (w *RSAWrapper) Algorithm() string { return "RSA-OAEP-256" }

// KeyBits reports the modulus size.
func (w *RSAWrapper) KeyBits() int { return w.public.N.BitLen() }

// X25519Wrapper derives a one-time key-encryption key from an ephemeral X25519
// exchange with the recipient and seals the content key under it. Wrapped form
// is ephemeral public key || ChaCha20-Poly1305(content key).
type X25519Wrapper struct {
	private *ecdh.PrivateKey
	public  *ecdh.PublicKey
}

func NewX25519Wrapper(private *ecdh.PrivateKey, public *ecdh.PublicKey) (*X25519Wrapper, error) {
	if public == nil || public.Curve() != ecdh.X25519() {
		return nil, ErrInvalidKey
	}
	if private != nil && private.Curve() != ecdh.X25519() {
		return nil, ErrInvalidKey
	}
	return &X25519Wrapper{private: private, public: public}, nil
}

const x25519KeySize = 32

func (w *X25519Wrapper) Wrap(contentKey []byte) ([]byte, error) {
	ephemeral, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	shared, err := ephemeral.ECDH(w.public)
	if err != nil {
		return nil, err
	}

	ephPub := ephemeral.PublicKey().Bytes()
	kek, err := deriveKEK(shared, ephPub, w.public.Bytes())
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, x25519KeySize+len(contentKey)+chacha20poly1305.Overhead)
	out = append(out, ephPub...)
	return kek.Seal(out, make([]byte, chacha20poly1305.NonceSize), contentKey, nil), nil
}

func (w *X25519Wrapper) Unwrap(wrapped []byte) ([]byte, error) {
	if w.private == nil {
		return nil, ErrNoPrivateKey
	}
	if len(wrapped) < x25519KeySize+chacha20poly1305.Overhead {
		return nil, ErrDecrypt
	}

	ephPub, err := ecdh.X25519().NewPublicKey(wrapped[:x25519KeySize])
	if err != nil {
		return nil, ErrDecrypt
	}
	shared, err := w.private.ECDH(ephPub)
	if err != nil {
		return nil, ErrDecrypt
	}
	kek, err := deriveKEK(shared, wrapped[:x25519KeySize], w.public.Bytes())
	if err != nil {
		return nil, ErrDecrypt
	}

	key, err := kek.Open(nil, make([]byte, chacha20poly1305.NonceSize), wrapped[x25519KeySize:], nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return key, nil
}

func (w *X25519Wrapper) Algorithm() string { return "X25519-HKDF-SHA256" }

func (w *X25519Wrapper) KeyBits() int { return 256 }

// Each derived KEK seals exactly one content key, hence the fixed zero nonce.
func deriveKEK(shared, ephemeralPub, recipientPub []byte) (cipher.AEAD, error) {
	salt := make([]byte, 0, len(ephemeralPub)+len(recipientPub))
	salt = append(salt, ephemeralPub...)
	salt = append(salt, recipientPub...)

	kek := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, salt, x25519Info), kek); err != nil {
		return nil, err
	}
	return chacha20poly1305.New(kek)
}
