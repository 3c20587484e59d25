package goToken

import (
	"context"
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goToken/fields"
)

var errInvalidSubject = errors.New("subject rejected")

type testGrant struct {
	Metadata

	Subject string
	Scopes  []string
	Uses    uint32
}

func (g *testGrant) EncodeFields() ([]byte, error) {
	w := fields.NewWriter(1)
	w.String(g.Subject)
	w.Strings(g.Scopes)
	w.Uint32(g.Uses)
	return w.Finish()
}

func (g *testGrant) DecodeFields(data []byte) error {
	r := fields.NewReader(data, 1)
	g.Subject = r.String()
	g.Scopes = r.Strings()
	g.Uses = r.Uint32()
	return r.Finish()
}

func (g *testGrant) Validate() error {
	if g.Subject == "rejected" {
		return errInvalidSubject
	}
	return nil
}

type otherGrant struct {
	testGrant
}

type kindedGrant struct {
	testGrant
}

func (*kindedGrant) TokenKind() string { return "custom.kind" }

// inheritedKindGrant picks up TokenKind from kindedGrant by promotion only.
type inheritedKindGrant struct {
	kindedGrant
}

type redeclaredKindGrant struct {
	kindedGrant
}

func (*redeclaredKindGrant) TokenKind() string { return "outer.kind" }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func mustCodec[T any, P PayloadPtr[T]](t *testing.T, cfg Config) *Codec[T, P] {
	t.Helper()
	c, err := NewCodec[T, P](cfg)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

var testRSAKey = sync.OnceValues(func() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, 2048)
})

func mustRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	k, err := testRSAKey()
	if err != nil {
		t.Fatalf("rsa key: %v", err)
	}
	return k
}

func mustEd25519(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ed25519 key: %v", err)
	}
	return priv
}

func mustX25519(t *testing.T) *ecdh.PrivateKey {
	t.Helper()
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("x25519 key: %v", err)
	}
	return priv
}

// flipByte decodes token, flips the byte at index i (negative counts from the
// end) and re-encodes.
func flipByte(t *testing.T, token string, i int) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if i < 0 {
		i += len(raw)
	}
	raw[i] ^= 0x01
	return base64.StdEncoding.EncodeToString(raw)
}

type failingStore struct {
	err error
}

func (s failingStore) StoreIfAbsent(ctx context.Context, contextKey, nonce string, issuedAt time.Time) (bool, error) {
	return false, s.err
}

type shortStore struct{ failingStore }

func (shortStore) Retention() time.Duration { return time.Minute }
