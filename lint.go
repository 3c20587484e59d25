package goToken

import (
	"crypto/rsa"
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks configuration warnings.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a configuration that is valid but likely unintended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

type LintResult []LintWarning

func (r LintResult) Codes() []string {
	codes := make([]string, 0, len(r))
	for _, w := range r {
		codes = append(codes, w.Code)
	}
	return codes
}

// BySeverity returns warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds warnings at or above min into one error, or returns nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

const (
	minHMACKeySize = 32
	minRSABits     = 2048
	longMaxAge     = 24 * time.Hour
)

// Lint reports sound but questionable settings. It does not validate; call
// Validate for hard errors.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if !c.Signing.Enabled() {
		sev := LintWarn
		if !c.Encryption.Enabled() {
			sev = LintHigh
		}
		add("signing_disabled", sev, "tokens are not signed and can be forged by anyone who knows the field layout")
	}

	if c.Signing.kind == materialSymmetric && len(c.Signing.secret) < minHMACKeySize {
		add("hmac_key_short", LintHigh, "HMAC secret is %d bytes, want at least %d", len(c.Signing.secret), minHMACKeySize)
	}

	if c.MaxAge == 0 {
		add("max_age_unset", LintWarn, "tokens never expire")
	} else if c.MaxAge > longMaxAge {
		add("max_age_long", LintInfo, "MaxAge %s exceeds %s", c.MaxAge, longMaxAge)
	}

	if c.Compression.Enabled && c.Encryption.Enabled() {
		add("compression_with_encryption", LintInfo, "compressing before encryption leaks plaintext length patterns")
	}

	if c.Encryption.kind == materialAsymmetric && !c.Signing.Enabled() {
		add("encryption_without_signing", LintHigh, "asymmetric encryption alone does not authenticate the issuer")
	}

	if c.Signing.kind == materialAsymmetric {
		if bits := rsaBits(c.Signing.keys); bits > 0 && bits < minRSABits {
			add("rsa_key_small", LintHigh, "RSA signing key is %d bits, want at least %d", bits, minRSABits)
		}
	}
	if c.Encryption.kind == materialAsymmetric {
		if bits := rsaBits(c.Encryption.keys); bits > 0 && bits < minRSABits {
			add("rsa_key_small", LintHigh, "RSA encryption key is %d bits, want at least %d", bits, minRSABits)
		}
	}

	if c.ReplayGuard == nil && c.Signing.Enabled() && c.MaxAge > 0 {
		add("replay_guard_disabled", LintInfo, "tokens can be redeemed more than once within MaxAge")
	}

	return ws
}

func rsaBits(keys KeyPair) int {
	switch k := keys.Private.(type) {
	case *rsa.PrivateKey:
		return k.N.BitLen()
	}
	switch k := keys.Public.(type) {
	case *rsa.PublicKey:
		return k.N.BitLen()
	}
	return 0
}
