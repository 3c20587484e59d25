package signer

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHMACSignVerify(t *testing.T) {
	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err)

	for hash, alg := range map[crypto.Hash]string{
		crypto.SHA256: "HS256",
		crypto.SHA384: "HS384",
		crypto.SHA512: "HS512",
	} {
		s, err := NewHMAC(secret, hash)
		require.NoError(t, err)
		require.Equal(t, alg, s.Algorithm())

		sig, err := s.Sign([]byte("payload"))
		require.NoError(t, err)
		require.Len(t, sig, hash.Size())
		require.True(t, s.Verify([]byte("payload"), sig))
		require.False(t, s.Verify([]byte("payload!"), sig))

		sig[0] ^= 0x01
		require.False(t, s.Verify([]byte("payload"), sig))
		require.False(t, s.Verify([]byte("payload"), sig[:len(sig)-1]))
		require.False(t, s.Verify([]byte("payload"), nil))
	}
}

func TestHMACRejectsBadConfig(t *testing.T) {
	_, err := NewHMAC(nil, crypto.SHA256)
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewHMAC([]byte("k"), crypto.MD5)
	require.ErrorIs(t, err, ErrUnsupportedHash)
}

func TestHMACCopiesSecret(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	s, err := NewHMAC(secret, crypto.SHA256)
	require.NoError(t, err)
	sig, _ := s.Sign([]byte("x"))

	secret[0] = 'X'
	require.True(t, s.Verify([]byte("x"), sig))
}

func TestAsymmetricEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	s, err := NewAsymmetric(priv, nil, 0)
	require.NoError(t, err)
	require.Equal(t, "EdDSA", s.Algorithm())

	sig, err := s.Sign([]byte("data"))
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	verifier, err := NewAsymmetric(nil, pub, 0)
	require.NoError(t, err)
	require.False(t, verifier.CanSign())
	require.True(t, verifier.Verify([]byte("data"), sig))
	require.False(t, verifier.Verify([]byte("data2"), sig))

	_, err = verifier.Sign([]byte("data"))
	require.ErrorIs(t, err, ErrNoPrivateKey)

	_, err = NewAsymmetric(priv, nil, crypto.SHA256)
	require.ErrorIs(t, err, ErrUnsupportedHash)
}

func TestAsymmetricWrongPublicKeyFails(t *testing.T) {
	_, privA, _ := ed25519.GenerateKey(rand.Reader)
	pubB, _, _ := ed25519.GenerateKey(rand.Reader)

	signerA, err := NewAsymmetric(privA, nil, 0)
	require.NoError(t, err)
	sig, err := signerA.Sign([]byte("data"))
	require.NoError(t, err)

	verifierB, err := NewAsymmetric(nil, pubB, 0)
	require.NoError(t, err)
	require.False(t, verifierB.Verify([]byte("data"), sig))

	_, err = NewAsymmetric(privA, pubB, 0)
	require.ErrorIs(t, err, ErrKeyMismatch)
}

func TestAsymmetricRSA(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	for _, tc := range []struct {
		hash crypto.Hash
		pss  bool
		alg  string
	}{
		{0, false, "RS256"},
		{crypto.SHA384, false, "RS384"},
		{crypto.SHA512, true, "PS512"},
	} {
		var s *Asymmetric
		if tc.pss {
			s, err = NewRSAPSS(key, &key.PublicKey, tc.hash)
		} else {
			s, err = NewAsymmetric(key, &key.PublicKey, tc.hash)
		}
		require.NoError(t, err)
		require.Equal(t, tc.alg, s.Algorithm())

		sig, err := s.Sign([]byte("rsa-data"))
		require.NoError(t, err)
		require.True(t, s.Verify([]byte("rsa-data"), sig))
		sig[len(sig)-1] ^= 0xFF
		require.False(t, s.Verify([]byte("rsa-data"), sig))
	}
}

func TestAsymmetricECDSACurveMustMatchHash(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	s, err := NewAsymmetric(key, nil, crypto.SHA256)
	require.NoError(t, err)
	require.Equal(t, "ES256", s.Algorithm())

	sig, err := s.Sign([]byte("ec"))
	require.NoError(t, err)
	require.True(t, s.Verify([]byte("ec"), sig))

	_, err = NewAsymmetric(key, nil, crypto.SHA512)
	require.ErrorIs(t, err, ErrUnsupportedHash)

	_, err = NewRSAPSS(key, nil, crypto.SHA256)
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestAsymmetricRejectsMissingKeys(t *testing.T) {
	_, err := NewAsymmetric(nil, nil, 0)
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewAsymmetric(nil, []byte("not a key"), 0)
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestParseKeys(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	parsedPriv, err := ParsePrivateKey(priv)
	require.NoError(t, err)
	require.Equal(t, priv, parsedPriv)

	pkcs8, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	parsedPriv, err = ParsePrivateKey(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}))
	require.NoError(t, err)
	require.Equal(t, priv, parsedPriv)

	pkix, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	parsedPub, err := ParsePublicKey(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pkix}))
	require.NoError(t, err)
	require.Equal(t, pub, parsedPub)

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	rsaPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rsaKey)})
	parsedRSA, err := ParsePrivateKey(rsaPEM)
	require.NoError(t, err)
	require.True(t, rsaKey.Equal(parsedRSA))

	_, err = ParsePrivateKey([]byte("garbage"))
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = ParsePublicKey([]byte("garbage"))
	require.ErrorIs(t, err, ErrInvalidKey)
}
