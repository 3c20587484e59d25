package fields

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"
)

var (
	// ErrTooLong is returned when a string, byte field or list exceeds the u32 length prefix.
	ErrTooLong = errors.New("field too long")
	// ErrTrailingBytes is returned by Reader.Finish when input remains.
	ErrTrailingBytes = errors.New("trailing field bytes")
	// ErrVersion is returned when a record carries an unexpected version byte.
	ErrVersion = errors.New("unsupported field record version")
)

// Writer encodes fields big-endian with u32 length prefixes. The first error
// sticks and later writes are ignored.
type Writer struct {
	buf bytes.Buffer
	err error
}

// NewWriter starts a record with a version byte.
func NewWriter(version byte) *Writer {
	w := &Writer{}
	w.buf.WriteByte(version)
	return w
}

func (w *Writer) String(s string) {
	if w.err != nil {
		return
	}
	if uint64(len(s)) > math.MaxUint32 {
		w.err = ErrTooLong
		return
	}
	w.Uint32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *Writer) Bytes(b []byte) {
	if w.err != nil {
		return
	}
	if uint64(len(b)) > math.MaxUint32 {
		w.err = ErrTooLong
		return
	}
	w.Uint32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *Writer) Strings(list []string) {
	if w.err != nil {
		return
	}
	if uint64(len(list)) > math.MaxUint32 {
		w.err = ErrTooLong
		return
	}
	w.Uint32(uint32(len(list)))
	for _, s := range list {
		w.String(s)
	}
}

func (w *Writer) Uint32(v uint32) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(&w.buf, binary.BigEndian, v)
}

func (w *Writer) Uint64(v uint64) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(&w.buf, binary.BigEndian, v)
}

func (w *Writer) Int64(v int64) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(&w.buf, binary.BigEndian, v)
}

func (w *Writer) Bool(v bool) {
	if w.err != nil {
		return
	}
	if v {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

// Time stores Unix milliseconds; the zero time is stored as 0.
func (w *Writer) Time(t time.Time) {
	if t.IsZero() {
		w.Int64(0)
		return
	}
	w.Int64(t.UnixMilli())
}

// Finish returns the encoded record or the first error.
func (w *Writer) Finish() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// Reader decodes a record written by Writer. The first error sticks; reads
// after an error return zero values.
type Reader struct {
	r   *bytes.Reader
	err error
}

// NewReader checks the version byte and positions after it.
func NewReader(data []byte, version byte) *Reader {
	rd := &Reader{r: bytes.NewReader(data)}
	v, err := rd.r.ReadByte()
	if err != nil {
		rd.err = err
		return rd
	}
	if v != version {
		rd.err = ErrVersion
	}
	return rd
}

func (rd *Reader) String() string {
	return string(rd.Bytes())
}

func (rd *Reader) Bytes() []byte {
	n := rd.Uint32()
	if rd.err != nil {
		return nil
	}
	if int64(n) > int64(rd.r.Len()) {
		rd.err = io.ErrUnexpectedEOF
		return nil
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(rd.r, out); err != nil {
		rd.err = err
		return nil
	}
	return out
}

func (rd *Reader) Strings() []string {
	n := rd.Uint32()
	if rd.err != nil {
		return nil
	}
	// each entry needs at least its own length prefix
	if int64(n)*4 > int64(rd.r.Len()) {
		rd.err = io.ErrUnexpectedEOF
		return nil
	}
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		s := rd.String()
		if rd.err != nil {
			return nil
		}
		out = append(out, s)
	}
	return out
}

func (rd *Reader) Uint32() uint32 {
	var v uint32
	rd.read(&v)
	return v
}

func (rd *Reader) Uint64() uint64 {
	var v uint64
	rd.read(&v)
	return v
}

func (rd *Reader) Int64() int64 {
	var v int64
	rd.read(&v)
	return v
}

func (rd *Reader) Bool() bool {
	if rd.err != nil {
		return false
	}
	b, err := rd.r.ReadByte()
	if err != nil {
		rd.err = err
		return false
	}
	return b != 0
}

func (rd *Reader) Time() time.Time {
	ms := rd.Int64()
	if rd.err != nil || ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func (rd *Reader) read(v any) {
	if rd.err != nil {
		return
	}
	rd.err = binary.Read(rd.r, binary.BigEndian, v)
}

// Finish returns the first error, or ErrTrailingBytes if input remains.
func (rd *Reader) Finish() error {
	if rd.err != nil {
		return rd.err
	}
	if rd.r.Len() != 0 {
		return ErrTrailingBytes
	}
	return nil
}
