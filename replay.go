package goToken

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"time"
)

// NonceSize is the length of a replay nonce in bytes.
const NonceSize = 6

var errMissingNonce = errors.New("token carries no nonce")

// ReplayGuard generates nonces and records their first use in a NonceStore.
type ReplayGuard struct {
	store  NonceStore
	random io.Reader
}

func NewReplayGuard(store NonceStore) *ReplayGuard {
	return &ReplayGuard{store: store, random: rand.Reader}
}

// Generate returns NonceSize random bytes.
func (g *ReplayGuard) Generate() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(g.random, nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}

// StoreAndCheck records nonce under contextKey and reports whether this was
// its first use. The nonce reaches the store base64 encoded.
func (g *ReplayGuard) StoreAndCheck(ctx context.Context, contextKey string, nonce []byte, issuedAt time.Time) (bool, error) {
	if len(nonce) == 0 {
		return false, errMissingNonce
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return g.store.StoreIfAbsent(ctx, contextKey, base64.StdEncoding.EncodeToString(nonce), issuedAt)
}
