package signer

import (
	"crypto"
	"crypto/ed25519"

	"github.com/golang-jwt/jwt/v5"
)

// ParsePrivateKey accepts a raw 64-byte Ed25519 key or a PEM encoded RSA,
// ECDSA or Ed25519 private key.
func ParsePrivateKey(key []byte) (crypto.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	if k, err := jwt.ParseRSAPrivateKeyFromPEM(key); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseECPrivateKeyFromPEM(key); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseEdPrivateKeyFromPEM(key); err == nil {
		return k, nil
	}
	return nil, ErrInvalidKey
}

// ParsePublicKey accepts a raw 32-byte Ed25519 key or a PEM encoded RSA,
// ECDSA or Ed25519 public key.
func ParsePublicKey(key []byte) (crypto.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	if k, err := jwt.ParseRSAPublicKeyFromPEM(key); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseECPublicKeyFromPEM(key); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseEdPublicKeyFromPEM(key); err == nil {
		return k, nil
	}
	return nil, ErrInvalidKey
}
