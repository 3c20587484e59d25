package signer

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rsa"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"crypto/subtle"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidKey is returned when key material is empty or of an unsupported type.
	ErrInvalidKey = errors.New("invalid signing key")
	// ErrUnsupportedHash is returned when the hash cannot be used with the key.
	ErrUnsupportedHash = errors.New("unsupported signing hash")
	// ErrKeyMismatch is returned when the supplied public key does not belong to the private key.
	ErrKeyMismatch = errors.New("signing key pair mismatch")
	// ErrNoPrivateKey is returned by Sign on a verify-only signer.
	ErrNoPrivateKey = errors.New("signing private key not configured")
)

// Signer is the signing half of the crypto backend.
//
// Implementations are immutable and safe for concurrent use.
type Signer interface {
	Sign(data []byte) ([]byte, error)
	Verify(data, signature []byte) bool
	Algorithm() string
}

// HMAC signs with a shared secret.
type HMAC struct {
	key  []byte
	hash crypto.Hash
	alg  string
}

// NewHMAC builds a keyed-hash signer. Supported hashes are SHA-256, SHA-384
// and SHA-512.
func NewHMAC(secret []byte, hash crypto.Hash) (*HMAC, error) {
	if len(secret) == 0 {
		return nil, ErrInvalidKey
	}
	alg, ok := hmacAlgorithms[hash]
	if !ok {
		return nil, ErrUnsupportedHash
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &HMAC{key: key, hash: hash, alg: alg}, nil
}

var hmacAlgorithms = map[crypto.Hash]string{
	crypto.SHA256: "HS256",
	crypto.SHA384: "HS384",
	crypto.SHA512: "HS512",
}

func (h *HMAC) Sign(data []byte) ([]byte, error) {
	mac := hmac.New(h.hash.New, h.key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// Verify recomputes the MAC and compares in constant time.
func (h *HMAC) Verify(data, signature []byte) bool {
	expected, _ := h.Sign(data)
	return subtle.ConstantTimeCompare(expected, signature) == 1
}

func (h *HMAC) Algorithm() string { return h.alg }

// KeySize reports the secret length in bytes.
func (h *HMAC) KeySize() int { return len(h.key) }

// HashSize reports the digest length in bytes.
func (h *HMAC) HashSize() int { return h.hash.Size() }

// Asymmetric signs with a private key and verifies with the matching public
// key. Signatures are produced by the golang-jwt signing method selected from
// the key type and hash.
type Asymmetric struct {
	method  jwt.SigningMethod
	private crypto.PrivateKey
	public  crypto.PublicKey
}

// NewAsymmetric builds an RSA PKCS#1 v1.5, ECDSA or Ed25519 signer.
//
// private may be nil for a verify-only signer; public may be nil when it can be
// derived from private. A zero hash selects the key's natural hash (SHA-256 for
// RSA, the curve size for ECDSA). ECDSA requires the hash to match the curve and
// Ed25519 accepts only zero or SHA-512.
func NewAsymmetric(private crypto.PrivateKey, public crypto.PublicKey, hash crypto.Hash) (*Asymmetric, error) {
	return newAsymmetric(private, public, hash, false)
}

// NewRSAPSS is NewAsymmetric with RSA-PSS padding. Only RSA keys are accepted.
func NewRSAPSS(private crypto.PrivateKey, public crypto.PublicKey, hash crypto.Hash) (*Asymmetric, error) {
	return newAsymmetric(private, public, hash, true)
}

func newAsymmetric(private crypto.PrivateKey, public crypto.PublicKey, hash crypto.Hash, pss bool) (*Asymmetric, error) {
	pub, err := resolvePublic(private, public)
	if err != nil {
		return nil, err
	}

	method, err := selectMethod(pub, hash, pss)
	if err != nil {
		return nil, err
	}

	return &Asymmetric{
		method:  method,
		private: private,
		public:  pub,
	}, nil
}

func (a *Asymmetric) Sign(data []byte) ([]byte, error) {
	if a.private == nil {
		return nil, ErrNoPrivateKey
	}
	return a.method.Sign(string(data), a.private)
}

func (a *Asymmetric) Verify(data, signature []byte) bool {
	if len(signature) == 0 {
		return false
	}
	return a.method.Verify(string(data), signature, a.public) == nil
}

func (a *Asymmetric) Algorithm() string { return a.method.Alg() }

// CanSign reports whether the private half is present.
func (a *Asymmetric) CanSign() bool { return a.private != nil }

// Public returns the verification key.
func (a *Asymmetric) Public() crypto.PublicKey { return a.public }

// KeyBits reports the RSA modulus or curve size.
func (a *Asymmetric) KeyBits() int {
	switch k := a.public.(type) {
	case *rsa.PublicKey:
		return k.N.BitLen()
	case *ecdsa.PublicKey:
		return k.Curve.Params().BitSize
	case ed25519.PublicKey:
		return 256
	}
	return 0
}

type equalKey interface {
	Equal(x crypto.PublicKey) bool
}

func resolvePublic(private crypto.PrivateKey, public crypto.PublicKey) (crypto.PublicKey, error) {
	if private == nil && public == nil {
		return nil, ErrInvalidKey
	}
	if private == nil {
		return public, nil
	}

	s, ok := private.(crypto.Signer)
	if !ok {
		return nil, ErrInvalidKey
	}
	derived := s.Public()
	if public == nil {
		return derived, nil
	}

	eq, ok := derived.(equalKey)
	if !ok || !eq.Equal(public) {
		return nil, ErrKeyMismatch
	}
	return public, nil
}

func selectMethod(public crypto.PublicKey, hash crypto.Hash, pss bool) (jwt.SigningMethod, error) {
	switch key := public.(type) {
	case *rsa.PublicKey:
		if hash == 0 {
			hash = crypto.SHA256
		}
		return rsaMethod(hash, pss)
	case *ecdsa.PublicKey:
		if pss {
			return nil, ErrInvalidKey
		}
		return ecdsaMethod(key.Curve, hash)
	case ed25519.PublicKey:
		if pss {
			return nil, ErrInvalidKey
		}
		if len(key) != ed25519.PublicKeySize {
			return nil, ErrInvalidKey
		}
		if hash != 0 && hash != crypto.SHA512 {
			return nil, ErrUnsupportedHash
		}
		return jwt.SigningMethodEdDSA, nil
	default:
		return nil, ErrInvalidKey
	}
}

func rsaMethod(hash crypto.Hash, pss bool) (jwt.SigningMethod, error) {
	switch {
	case hash == crypto.SHA256 && pss:
		return jwt.SigningMethodPS256, nil
	case hash == crypto.SHA384 && pss:
		return jwt.SigningMethodPS384, nil
	case hash == crypto.SHA512 && pss:
		return jwt.SigningMethodPS512, nil
	case hash == crypto.SHA256:
		return jwt.SigningMethodRS256, nil
	case hash == crypto.SHA384:
		return jwt.SigningMethodRS384, nil
	case hash == crypto.SHA512:
		return jwt.SigningMethodRS512, nil
	}
	return nil, ErrUnsupportedHash
}

func ecdsaMethod(curve elliptic.Curve, hash crypto.Hash) (jwt.SigningMethod, error) {
	var method *jwt.SigningMethodECDSA
	var natural crypto.Hash

	switch curve {
	case elliptic.P256():
		method, natural = jwt.SigningMethodES256, crypto.SHA256
	case elliptic.P384():
		method, natural = jwt.SigningMethodES384, crypto.SHA384
	case elliptic.P521():
		method, natural = jwt.SigningMethodES512, crypto.SHA512
	default:
		return nil, ErrInvalidKey
	}

	if hash != 0 && hash != natural {
		return nil, ErrUnsupportedHash
	}
	return method, nil
}
