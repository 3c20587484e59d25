// Package oauth provides OAuth 2.0 payload types for goToken codecs:
// authorization codes with PKCE (RFC 7636) and rotating refresh grants.
//
//	codec, err := goToken.NewCodec[oauth.VerificationCode](cfg)
//	code, err := codec.Serialize(ctx, &oauth.VerificationCode{...})
//	grant, err := codec.Deserialize(ctx, code)
//	err = grant.VerifyPKCE(verifier)
package oauth
