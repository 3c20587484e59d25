package envelope

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
)

const (
	lengthSize = 4

	headerVersion1 = 1
	headerFixed    = 1 + 8
)

var (
	ErrTruncated     = errors.New("envelope truncated")
	ErrTrailingData  = errors.New("envelope trailing data")
	ErrFieldTooLarge = errors.New("envelope field too large")
	ErrBadEncoding   = errors.New("envelope encoding invalid")
	ErrEmpty         = errors.New("envelope empty")
	ErrHeaderVersion = errors.New("envelope header version unsupported")
)

// Frame lays out [len|signature][len|body] when signed and [len|body]
// otherwise.
func Frame(signature, body []byte, signed bool) ([]byte, error) {
	size := lengthSize + len(body)
	if signed {
		size += lengthSize + len(signature)
	}
	out := make([]byte, 0, size)

	var err error
	if signed {
		if out, err = AppendField(out, signature); err != nil {
			return nil, err
		}
	}
	return AppendField(out, body)
}

// Split is the inverse of Frame. Truncated, over-long and trailing input is
// rejected.
func Split(data []byte, signed bool) (signature, body []byte, err error) {
	rest := data
	if signed {
		signature, rest, err = ReadField(rest)
		if err != nil {
			return nil, nil, err
		}
	}
	body, rest, err = ReadField(rest)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) != 0 {
		return nil, nil, ErrTrailingData
	}
	return signature, body, nil
}

// AppendField appends a u32 big-endian length followed by field.
func AppendField(dst, field []byte) ([]byte, error) {
	if uint64(len(field)) > math.MaxUint32 {
		return nil, ErrFieldTooLarge
	}
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(field)))
	return append(dst, field...), nil
}

// ReadField reads one length-prefixed field and returns the remainder.
// The returned field aliases data.
func ReadField(data []byte) (field, rest []byte, err error) {
	if len(data) < lengthSize {
		return nil, nil, ErrTruncated
	}
	n := binary.BigEndian.Uint32(data[:lengthSize])
	data = data[lengthSize:]
	if uint64(n) > uint64(len(data)) {
		return nil, nil, ErrTruncated
	}
	return data[:n:n], data[n:], nil
}

// Encode returns the transport form: standard padded base64, no line breaks.
func Encode(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// Decode parses the transport form.
func Decode(value string) ([]byte, error) {
	if value == "" {
		return nil, ErrEmpty
	}
	raw, err := base64.StdEncoding.Strict().DecodeString(value)
	if err != nil {
		return nil, ErrBadEncoding
	}
	return raw, nil
}

// AppendHeader writes the metadata header the codec places in front of a
// payload's field bytes: [u8 version][i64 createdAt ms][len|nonce].
func AppendHeader(dst []byte, createdAtMillis int64, nonce []byte) ([]byte, error) {
	dst = append(dst, headerVersion1)
	dst = binary.BigEndian.AppendUint64(dst, uint64(createdAtMillis))
	return AppendField(dst, nonce)
}

// ReadHeader parses the metadata header and returns the payload field bytes
// that follow it.
func ReadHeader(data []byte) (createdAtMillis int64, nonce, rest []byte, err error) {
	if len(data) < headerFixed {
		return 0, nil, nil, ErrTruncated
	}
	if data[0] != headerVersion1 {
		return 0, nil, nil, ErrHeaderVersion
	}
	createdAtMillis = int64(binary.BigEndian.Uint64(data[1:headerFixed]))
	nonce, rest, err = ReadField(data[headerFixed:])
	if err != nil {
		return 0, nil, nil, err
	}
	return createdAtMillis, nonce, rest, nil
}
