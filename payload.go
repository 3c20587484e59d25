package goToken

import (
	"reflect"
	"time"
)

// Payload is implemented by every token payload type through its pointer.
//
// Embed Metadata to satisfy TokenMetadata. EncodeFields and DecodeFields
// cover only the application fields; the codec writes CreatedAt and Nonce
// itself. Validate runs last during Deserialize, after integrity, expiry and
// replay checks have passed.
type Payload interface {
	TokenMetadata() *Metadata
	EncodeFields() ([]byte, error)
	DecodeFields(data []byte) error
	Validate() error
}

// PayloadPtr constrains P to *T implementing Payload, so the codec can
// allocate a fresh T per Deserialize.
type PayloadPtr[T any] interface {
	*T
	Payload
}

// Kinded lets a payload choose its replay namespace. Without it the Go
// package path and type name are used.
//
// Only a TokenKind declared on the payload type itself counts. A type that
// embeds a Kinded payload gets its own type-name namespace unless it declares
// a TokenKind of its own that differs from the embedded one.
type Kinded interface {
	TokenKind() string
}

// Metadata is the envelope state shared by all payloads.
type Metadata struct {
	// CreatedAt is set by Serialize: UTC, millisecond precision.
	CreatedAt time.Time
	// Nonce is 6 random bytes when a replay guard is configured, else nil.
	Nonce []byte
	// Signature is set by Serialize and restored by Deserialize. Informational.
	Signature []byte
	// Exchange is taken from the context on Deserialize and never serialized.
	Exchange any
}

func (m *Metadata) TokenMetadata() *Metadata {
	return m
}

// ContextKey returns the replay namespace of payload type T.
func ContextKey[T any, P PayloadPtr[T]]() string {
	t := reflect.TypeFor[T]()
	var zero T
	if k, ok := any(P(&zero)).(Kinded); ok {
		if kind := k.TokenKind(); kind != "" && !embeddedKinds(t)[kind] {
			return kind
		}
	}
	return typeKey(t)
}

var kindedType = reflect.TypeFor[Kinded]()

// embeddedKinds collects the kinds of Kinded types embedded in t. A method
// promoted from one of them reports one of these kinds.
func embeddedKinds(t reflect.Type) map[string]bool {
	kinds := make(map[string]bool)
	if t.Kind() != reflect.Struct {
		return kinds
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		base := f.Type
		if base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		if !reflect.PointerTo(base).Implements(kindedType) {
			continue
		}
		if k, ok := reflect.New(base).Interface().(Kinded); ok {
			kinds[k.TokenKind()] = true
		}
	}
	return kinds
}

func typeKey(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
