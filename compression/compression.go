package compression

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
)

// DefaultMaxDecompressedSize bounds decompression output when no limit is set.
const DefaultMaxDecompressedSize = 1 << 20

var (
	// ErrCorrupt is returned for input that is not a valid compressed stream.
	ErrCorrupt = errors.New("compressed data corrupt")
	// ErrTooLarge is returned when output would exceed the configured limit.
	ErrTooLarge = errors.New("decompressed data exceeds limit")
	// ErrUnknownAlgorithm is returned by New for an unsupported algorithm.
	ErrUnknownAlgorithm = errors.New("unknown compression algorithm")
)

// Compressor is the compression collaborator of the codec pipeline.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Algorithm names a built-in compressor.
type Algorithm string

const (
	AlgorithmDeflate Algorithm = "deflate"
	AlgorithmZstd    Algorithm = "zstd"
)

// New returns the built-in compressor for alg. An empty alg selects deflate;
// maxSize <= 0 selects DefaultMaxDecompressedSize.
func New(alg Algorithm, maxSize int) (Compressor, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxDecompressedSize
	}
	switch alg {
	case "", AlgorithmDeflate:
		return NewDeflate(maxSize), nil
	case AlgorithmZstd:
		return NewZstd(maxSize)
	default:
		return nil, ErrUnknownAlgorithm
	}
}

// Deflate is raw DEFLATE (RFC 1951).
type Deflate struct {
	maxSize int
	writers sync.Pool
}

func NewDeflate(maxSize int) *Deflate {
	if maxSize <= 0 {
		maxSize = DefaultMaxDecompressedSize
	}
	return &Deflate{maxSize: maxSize}
}

func (d *Deflate) Name() string { return string(AlgorithmDeflate) }

func (d *Deflate) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, _ := d.writers.Get().(*flate.Writer)
	if w == nil {
		var err error
		w, err = flate.NewWriter(&buf, flate.BestCompression)
		if err != nil {
			return nil, err
		}
	} else {
		w.Reset(&buf)
	}
	defer d.writers.Put(w)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Deflate) Decompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, int64(d.maxSize)+1))
	if err != nil {
		return nil, ErrCorrupt
	}
	if len(out) > d.maxSize {
		return nil, ErrTooLarge
	}
	return out, nil
}

const minZstdMemory = 1 << 10

// Zstd is Zstandard. Encoder and decoder are shared; EncodeAll and DecodeAll
// are safe for concurrent use.
type Zstd struct {
	maxSize int
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

func NewZstd(maxSize int) (*Zstd, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxDecompressedSize
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	// The decoder refuses windows below 1 KiB; smaller limits are enforced on
	// the output in Decompress.
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0), zstd.WithDecoderMaxMemory(uint64(max(maxSize, minZstdMemory))))
	if err != nil {
		return nil, err
	}
	return &Zstd{maxSize: maxSize, enc: enc, dec: dec}, nil
}

func (z *Zstd) Name() string { return string(AlgorithmZstd) }

func (z *Zstd) Compress(data []byte) ([]byte, error) {
	return z.enc.EncodeAll(data, nil), nil
}

func (z *Zstd) Decompress(data []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(data, nil)
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return nil, ErrTooLarge
		}
		return nil, ErrCorrupt
	}
	if len(out) > z.maxSize {
		return nil, ErrTooLarge
	}
	return out, nil
}
