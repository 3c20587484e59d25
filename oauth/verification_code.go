package oauth

import (
	"errors"
	"net/url"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/fields"
)

const verificationCodeVersion = 1

// VerificationCodeKind is the replay namespace of VerificationCode.
const VerificationCodeKind = "oauth.verification_code"

var (
	ErrMissingClientID    = errors.New("client_id required")
	ErrMissingSubject     = errors.New("subject required")
	ErrInvalidRedirectURI = errors.New("redirect_uri must be an absolute URI")
)

// VerificationCode is an OAuth 2.0 authorization code. It carries the
// authorization decision from the authorize endpoint to the token endpoint.
type VerificationCode struct {
	goToken.Metadata

	ClientID            string
	RedirectURI         string
	Subject             string
	Scopes              []string
	CodeChallenge       string
	CodeChallengeMethod string
	AuthTime            time.Time
}

func (v *VerificationCode) TokenKind() string { return VerificationCodeKind }

func (v *VerificationCode) EncodeFields() ([]byte, error) {
	w := fields.NewWriter(verificationCodeVersion)
	w.String(v.ClientID)
	w.String(v.RedirectURI)
	w.String(v.Subject)
	w.Strings(v.Scopes)
	w.String(v.CodeChallenge)
	w.String(v.CodeChallengeMethod)
	w.Time(v.AuthTime)
	return w.Finish()
}

func (v *VerificationCode) DecodeFields(data []byte) error {
	r := fields.NewReader(data, verificationCodeVersion)
	v.ClientID = r.String()
	v.RedirectURI = r.String()
	v.Subject = r.String()
	v.Scopes = r.Strings()
	v.CodeChallenge = r.String()
	v.CodeChallengeMethod = r.String()
	v.AuthTime = r.Time()
	return r.Finish()
}

func (v *VerificationCode) Validate() error {
	if v.ClientID == "" {
		return ErrMissingClientID
	}
	if v.Subject == "" {
		return ErrMissingSubject
	}
	if v.RedirectURI != "" {
		u, err := url.Parse(v.RedirectURI)
		if err != nil || !u.IsAbs() || u.Fragment != "" {
			return ErrInvalidRedirectURI
		}
	}
	if v.CodeChallenge != "" {
		switch v.CodeChallengeMethod {
		case PKCEMethodPlain, PKCEMethodS256:
		default:
			return ErrPKCEMethod
		}
	}
	return nil
}

// RequiresPKCE reports whether the code was issued with a challenge.
func (v *VerificationCode) RequiresPKCE() bool {
	return v.CodeChallenge != ""
}

// VerifyPKCE checks verifier against the stored challenge. A code issued
// without a challenge accepts only an empty verifier.
func (v *VerificationCode) VerifyPKCE(verifier string) error {
	if !v.RequiresPKCE() {
		if verifier != "" {
			return ErrPKCEMismatch
		}
		return nil
	}
	return verifyPKCE(v.CodeChallenge, v.CodeChallengeMethod, verifier)
}

// HasScope reports whether scope was granted.
func (v *VerificationCode) HasScope(scope string) bool {
	for _, s := range v.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
