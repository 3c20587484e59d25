package oauth_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/noncestore"
	"github.com/MrEthical07/goToken/oauth"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func codeCodec(t *testing.T, now func() time.Time) *goToken.Codec[oauth.VerificationCode, *oauth.VerificationCode] {
	t.Helper()
	codec, err := goToken.NewCodec[oauth.VerificationCode](goToken.Config{
		Signing:     goToken.SymmetricSigning(secret, 0),
		Encryption:  goToken.SymmetricEncryption(secret),
		MaxAge:      10 * time.Minute,
		ReplayGuard: noncestore.NewMemory(time.Hour),
		Clock:       now,
	})
	require.NoError(t, err)
	t.Cleanup(codec.Close)
	return codec
}

func TestCodeChallengeS256KnownVector(t *testing.T) {
	// RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	challenge, err := oauth.CodeChallenge(verifier, oauth.PKCEMethodS256)
	require.NoError(t, err)
	require.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", challenge)
}

func TestCodeChallengeUnknownMethod(t *testing.T) {
	_, err := oauth.CodeChallenge("x", "S512")
	require.ErrorIs(t, err, oauth.ErrPKCEMethod)
}

func TestNewCodeVerifier(t *testing.T) {
	a, err := oauth.NewCodeVerifier()
	require.NoError(t, err)
	b, err := oauth.NewCodeVerifier()
	require.NoError(t, err)

	require.Len(t, a, 43)
	require.NotEqual(t, a, b)
}

func TestVerificationCodePKCE(t *testing.T) {
	verifier, err := oauth.NewCodeVerifier()
	require.NoError(t, err)

	for _, method := range []string{oauth.PKCEMethodS256, oauth.PKCEMethodPlain} {
		t.Run(method, func(t *testing.T) {
			challenge, err := oauth.CodeChallenge(verifier, method)
			require.NoError(t, err)

			code := &oauth.VerificationCode{CodeChallenge: challenge, CodeChallengeMethod: method}
			require.True(t, code.RequiresPKCE())
			require.NoError(t, code.VerifyPKCE(verifier))

			other, err := oauth.NewCodeVerifier()
			require.NoError(t, err)
			require.ErrorIs(t, code.VerifyPKCE(other), oauth.ErrPKCEMismatch)
			require.ErrorIs(t, code.VerifyPKCE("short"), oauth.ErrPKCEVerifier)
			require.ErrorIs(t, code.VerifyPKCE(strings.Repeat("a", 42)+"!"), oauth.ErrPKCEVerifier)
		})
	}
}

func TestVerificationCodeWithoutPKCE(t *testing.T) {
	code := &oauth.VerificationCode{}
	require.False(t, code.RequiresPKCE())
	require.NoError(t, code.VerifyPKCE(""))
	require.ErrorIs(t, code.VerifyPKCE(strings.Repeat("a", 43)), oauth.ErrPKCEMismatch)
}

func TestVerificationCodeValidate(t *testing.T) {
	valid := func() oauth.VerificationCode {
		return oauth.VerificationCode{
			ClientID:    "client-1",
			Subject:     "user-1",
			RedirectURI: "https://app.example.com/callback",
		}
	}

	cases := []struct {
		name   string
		mutate func(*oauth.VerificationCode)
		want   error
	}{
		{"valid", func(*oauth.VerificationCode) {}, nil},
		{"no redirect", func(v *oauth.VerificationCode) { v.RedirectURI = "" }, nil},
		{"missing client", func(v *oauth.VerificationCode) { v.ClientID = "" }, oauth.ErrMissingClientID},
		{"missing subject", func(v *oauth.VerificationCode) { v.Subject = "" }, oauth.ErrMissingSubject},
		{"relative redirect", func(v *oauth.VerificationCode) { v.RedirectURI = "/callback" }, oauth.ErrInvalidRedirectURI},
		{"redirect fragment", func(v *oauth.VerificationCode) { v.RedirectURI = "https://a.example/cb#x" }, oauth.ErrInvalidRedirectURI},
		{"bad method", func(v *oauth.VerificationCode) {
			v.CodeChallenge = "abc"
			v.CodeChallengeMethod = "S512"
		}, oauth.ErrPKCEMethod},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := valid()
			tc.mutate(&v)
			err := v.Validate()
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVerificationCodeRoundTripSingleUse(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	codec := codeCodec(t, func() time.Time { return now })
	require.Equal(t, oauth.VerificationCodeKind, codec.Kind())

	verifier, err := oauth.NewCodeVerifier()
	require.NoError(t, err)
	challenge, err := oauth.CodeChallenge(verifier, oauth.PKCEMethodS256)
	require.NoError(t, err)

	issued := &oauth.VerificationCode{
		ClientID:            "client-1",
		RedirectURI:         "https://app.example.com/callback",
		Subject:             "user-1",
		Scopes:              []string{"openid", "email"},
		CodeChallenge:       challenge,
		CodeChallengeMethod: oauth.PKCEMethodS256,
		AuthTime:            now.Add(-time.Minute),
	}
	token, err := codec.Serialize(context.Background(), issued)
	require.NoError(t, err)
	require.Len(t, issued.Nonce, goToken.NonceSize)

	ctx := goToken.WithExchange(context.Background(), "req-7")
	got, err := codec.Deserialize(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "client-1", got.ClientID)
	require.Equal(t, issued.Scopes, got.Scopes)
	require.True(t, got.HasScope("email"))
	require.False(t, got.HasScope("admin"))
	require.True(t, got.AuthTime.Equal(issued.AuthTime))
	require.Equal(t, "req-7", got.Exchange)
	require.NoError(t, got.VerifyPKCE(verifier))

	_, err = codec.Deserialize(ctx, token)
	require.ErrorIs(t, err, goToken.ErrReplay)
}

func TestVerificationCodeRejectedByValidate(t *testing.T) {
	now := time.Now()
	codec := codeCodec(t, func() time.Time { return now })

	token, err := codec.Serialize(context.Background(), &oauth.VerificationCode{Subject: "user-1"})
	require.NoError(t, err)

	_, err = codec.Deserialize(context.Background(), token)
	require.ErrorIs(t, err, goToken.ErrValidation)
	require.ErrorIs(t, err, oauth.ErrMissingClientID)
}

func TestVerificationCodeExpires(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	codec := codeCodec(t, func() time.Time { return now })

	token, err := codec.Serialize(context.Background(), &oauth.VerificationCode{ClientID: "c", Subject: "s"})
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	_, err = codec.Deserialize(context.Background(), token)
	require.ErrorIs(t, err, goToken.ErrExpiredToken)
}

func TestRefreshTokenValidate(t *testing.T) {
	tok := &oauth.RefreshToken{ClientID: "c", Subject: "s"}
	require.ErrorIs(t, tok.Validate(), oauth.ErrInvalidGeneration)

	tok.Generation = 1
	require.NoError(t, tok.Validate())

	tok.ClientID = ""
	require.ErrorIs(t, tok.Validate(), oauth.ErrMissingClientID)
}

func TestRefreshTokenRotate(t *testing.T) {
	tok := &oauth.RefreshToken{
		ClientID:   "c",
		Subject:    "s",
		Scopes:     []string{"read", "write"},
		Generation: 3,
	}

	next := tok.Rotate()
	require.Equal(t, uint32(4), next.Generation)
	require.Equal(t, tok.Scopes, next.Scopes)
	next.Scopes[0] = "mutated"
	require.Equal(t, "read", tok.Scopes[0])

	narrowed := tok.Rotate("write", "admin")
	require.Equal(t, []string{"write"}, narrowed.Scopes)
	require.Nil(t, narrowed.Nonce)
}

func TestRefreshTokenChainWithAsymmetricKeys(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	issuer, err := goToken.NewCodec[oauth.RefreshToken](goToken.Config{
		Signing:     goToken.AsymmetricSigning(goToken.KeyPair{Private: priv}, 0),
		MaxAge:      24 * time.Hour,
		ReplayGuard: noncestore.NewMemory(48 * time.Hour),
	})
	require.NoError(t, err)
	t.Cleanup(issuer.Close)

	first, err := issuer.Serialize(context.Background(), &oauth.RefreshToken{
		ClientID: "c", Subject: "s", Scopes: []string{"read"}, Generation: 1,
	})
	require.NoError(t, err)

	grant, err := issuer.Deserialize(context.Background(), first)
	require.NoError(t, err)

	second, err := issuer.Serialize(context.Background(), grant.Rotate())
	require.NoError(t, err)

	rotated, err := issuer.Deserialize(context.Background(), second)
	require.NoError(t, err)
	require.Equal(t, uint32(2), rotated.Generation)

	_, err = issuer.Deserialize(context.Background(), first)
	var tokErr *goToken.TokenError
	require.True(t, errors.As(err, &tokErr))
	require.Equal(t, goToken.StageReplay, tokErr.Stage)
	require.Equal(t, oauth.RefreshTokenKind, tokErr.PayloadKind)
}
