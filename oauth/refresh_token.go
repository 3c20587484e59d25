package oauth

import (
	"errors"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/fields"
)

const refreshTokenVersion = 1

// RefreshTokenKind is the replay namespace of RefreshToken.
const RefreshTokenKind = "oauth.refresh_token"

var ErrInvalidGeneration = errors.New("refresh generation must be > 0")

// RefreshToken is a self-contained refresh grant. Generation counts rotations
// from the original authorization so a server can cap chain length.
type RefreshToken struct {
	goToken.Metadata

	ClientID   string
	Subject    string
	Scopes     []string
	Generation uint32
}

func (t *RefreshToken) TokenKind() string { return RefreshTokenKind }

func (t *RefreshToken) EncodeFields() ([]byte, error) {
	w := fields.NewWriter(refreshTokenVersion)
	w.String(t.ClientID)
	w.String(t.Subject)
	w.Strings(t.Scopes)
	w.Uint32(t.Generation)
	return w.Finish()
}

func (t *RefreshToken) DecodeFields(data []byte) error {
	r := fields.NewReader(data, refreshTokenVersion)
	t.ClientID = r.String()
	t.Subject = r.String()
	t.Scopes = r.Strings()
	t.Generation = r.Uint32()
	return r.Finish()
}

func (t *RefreshToken) Validate() error {
	if t.ClientID == "" {
		return ErrMissingClientID
	}
	if t.Subject == "" {
		return ErrMissingSubject
	}
	if t.Generation == 0 {
		return ErrInvalidGeneration
	}
	return nil
}

// Rotate returns the successor grant with the same client, subject and
// scopes. Scopes may be narrowed by passing a subset; scopes not held are
// dropped.
func (t *RefreshToken) Rotate(narrow ...string) *RefreshToken {
	scopes := t.Scopes
	if len(narrow) > 0 {
		held := make(map[string]struct{}, len(t.Scopes))
		for _, s := range t.Scopes {
			held[s] = struct{}{}
		}
		scopes = make([]string, 0, len(narrow))
		for _, s := range narrow {
			if _, ok := held[s]; ok {
				scopes = append(scopes, s)
			}
		}
	} else {
		scopes = append([]string(nil), scopes...)
	}
	return &RefreshToken{
		ClientID:   t.ClientID,
		Subject:    t.Subject,
		Scopes:     scopes,
		Generation: t.Generation + 1,
	}
}
