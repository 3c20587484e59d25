package goToken

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned by NewCodec and Build for an unsound configuration.
	ErrConfiguration = errors.New("invalid codec configuration")
	// ErrIntegrity is returned when the signature does not match the token bytes.
	ErrIntegrity = errors.New("token integrity check failed")
	// ErrDecryption is returned when the token body cannot be decrypted.
	ErrDecryption = errors.New("token decryption failed")
	// ErrExpiredToken is returned when the token is older than the configured max age.
	ErrExpiredToken = errors.New("token expired")
	// ErrReplay is returned when the token nonce has already been consumed.
	ErrReplay = errors.New("token replay detected")
	// ErrValidation is returned when the decoded payload fails its own validation.
	ErrValidation = errors.New("token payload invalid")
	// ErrMalformedToken is returned for tokens that cannot be decoded and carry no signature to blame.
	ErrMalformedToken = errors.New("malformed token")
	// ErrReplayCheckUnavailable is returned when the nonce store cannot answer.
	ErrReplayCheckUnavailable = errors.New("replay check backend unavailable")
	// ErrMissingPrivateKey is returned by Serialize on a verify-only or encrypt-only codec.
	ErrMissingPrivateKey = errors.New("private key not configured")
)

// Stage identifies the pipeline step that rejected a token.
type Stage string

const (
	StageDecode     Stage = "decode"
	StageIntegrity  Stage = "integrity"
	StageDecryption Stage = "decryption"
	StageDecompress Stage = "decompress"
	StageFields     Stage = "fields"
	StageExpiry     Stage = "expiry"
	StageReplay     Stage = "replay"
	StageValidation Stage = "validation"
	StageEncode     Stage = "encode"
)

// TokenError reports a Serialize or Deserialize failure. It unwraps to the
// stage sentinel (ErrIntegrity, ErrReplay, ...) and to the underlying cause.
type TokenError struct {
	Stage       Stage
	PayloadKind string
	// Exchange is the value attached with WithExchange, if any.
	Exchange any

	kind  error
	cause error
}

func newTokenError(stage Stage, kind error, payloadKind string, exchange any, cause error) *TokenError {
	return &TokenError{
		Stage:       stage,
		PayloadKind: payloadKind,
		Exchange:    exchange,
		kind:        kind,
		cause:       cause,
	}
}

func (e *TokenError) Error() string {
	if e.cause == nil || e.cause == e.kind {
		return fmt.Sprintf("goToken: %s: %v", e.PayloadKind, e.kind)
	}
	return fmt.Sprintf("goToken: %s: %v: %v", e.PayloadKind, e.kind, e.cause)
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As.
func (e *TokenError) Unwrap() []error {
	if e.cause == nil || e.cause == e.kind {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Kind returns the stage sentinel.
func (e *TokenError) Kind() error {
	return e.kind
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...)
}
