package encrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrInvalidKey is returned when key material is missing, mis-sized or of an unsupported type.
	ErrInvalidKey = errors.New("invalid encryption key")
	// ErrDecrypt is returned for malformed, truncated or corrupted ciphertext.
	ErrDecrypt = errors.New("decryption failed")
	// ErrNoPrivateKey is returned by Decrypt on an encrypt-only hybrid encrypter.
	ErrNoPrivateKey = errors.New("decryption private key not configured")
	// ErrUnknownCipher is returned for an unsupported Cipher value.
	ErrUnknownCipher = errors.New("unknown cipher")
)

// Encrypter is the encryption half of the crypto backend.
type Encrypter interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
	Algorithm() string
}

// Cipher selects the AEAD used for shared-secret encryption.
type Cipher int

const (
	// CipherAESGCM is AES in GCM mode with a 16, 24 or 32 byte key.
	CipherAESGCM Cipher = iota
	// CipherXChaCha20Poly1305 is XChaCha20-Poly1305 with a 32 byte key.
	CipherXChaCha20Poly1305
)

func (c Cipher) String() string {
	switch c {
	case CipherAESGCM:
		return "aes-gcm"
	case CipherXChaCha20Poly1305:
		return "xchacha20-poly1305"
	default:
		return "unknown"
	}
}

// AEAD encrypts with a shared secret. Output is nonce || ciphertext || tag.
type AEAD struct {
	aead    cipher.AEAD
	alg     string
	keyBits int
}

// NewAEAD builds a shared-secret encrypter.
func NewAEAD(key []byte, c Cipher) (*AEAD, error) {
	switch c {
	case CipherAESGCM:
		switch len(key) {
		case 16, 24, 32:
		default:
			return nil, ErrInvalidKey
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, ErrInvalidKey
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return &AEAD{aead: gcm, alg: aesAlgorithm(len(key)), keyBits: len(key) * 8}, nil
	case CipherXChaCha20Poly1305:
		if len(key) != chacha20poly1305.KeySize {
			return nil, ErrInvalidKey
		}
		x, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, ErrInvalidKey
		}
		return &AEAD{aead: x, alg: "XC20P", keyBits: 256}, nil
	default:
		return nil, ErrUnknownCipher
	}
}

func aesAlgorithm(keyLen int) string {
	switch keyLen {
	case 16:
		return "A128GCM"
	case 24:
		return "A192GCM"
	default:
		return "A256GCM"
	}
}

func (a *AEAD) Encrypt(plaintext []byte) ([]byte, error) {
	ns := a.aead.NonceSize()
	out := make([]byte, ns, ns+len(plaintext)+a.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, out); err != nil {
		return nil, err
	}
	return a.aead.Seal(out, out[:ns], plaintext, nil), nil
}

func (a *AEAD) Decrypt(ciphertext []byte) ([]byte, error) {
	ns := a.aead.NonceSize()
	if len(ciphertext) < ns+a.aead.Overhead() {
		return nil, ErrDecrypt
	}
	plaintext, err := a.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func (a *AEAD) Algorithm() string { return a.alg }

// KeyBits reports the secret size.
func (a *AEAD) KeyBits() int { return a.keyBits }
