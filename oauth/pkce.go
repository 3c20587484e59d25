package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
)

const (
	PKCEMethodPlain = "plain"
	PKCEMethodS256  = "S256"

	minVerifierLen = 43
	maxVerifierLen = 128
)

var (
	ErrPKCEMethod   = errors.New("unsupported code challenge method")
	ErrPKCEVerifier = errors.New("code verifier invalid")
	ErrPKCEMismatch = errors.New("code verifier does not match challenge")
)

// NewCodeVerifier returns 32 random bytes, base64url encoded without padding
// (43 characters).
func NewCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CodeChallenge derives the challenge for verifier under method.
func CodeChallenge(verifier, method string) (string, error) {
	switch method {
	case PKCEMethodPlain:
		return verifier, nil
	case PKCEMethodS256:
		sum := sha256.Sum256([]byte(verifier))
		return base64.RawURLEncoding.EncodeToString(sum[:]), nil
	default:
		return "", ErrPKCEMethod
	}
}

func verifyPKCE(challenge, method, verifier string) error {
	if !validVerifier(verifier) {
		return ErrPKCEVerifier
	}
	want, err := CodeChallenge(verifier, method)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(challenge)) != 1 {
		return ErrPKCEMismatch
	}
	return nil
}

// RFC 7636 section 4.1: 43-128 chars of [A-Z] [a-z] [0-9] "-" "." "_" "~".
func validVerifier(v string) bool {
	if len(v) < minVerifierLen || len(v) > maxVerifierLen {
		return false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-', c == '.', c == '_', c == '~':
		default:
			return false
		}
	}
	return true
}
