// Package compress wraps text streams in transparent decompression and
// compression.
//
// Readers detect the codec from magic bytes; writers choose it from the
// file extension. Plain text passes through unchanged.
package compress

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies a stream compression format.
type Codec uint8

const (
	None Codec = iota
	Gzip
	Zstd
	LZ4
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Detect reports the codec whose magic number prefixes head.
func Detect(head []byte) Codec {
	switch {
	case bytes.HasPrefix(head, magicZstd):
		return Zstd
	case bytes.HasPrefix(head, magicLZ4):
		return LZ4
	case bytes.HasPrefix(head, magicGzip):
		return Gzip
	}
	return None
}

// FromName picks a codec from a file name extension.
func FromName(name string) Codec {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	}
	return None
}

// NewReader returns a reader yielding the decompressed content of r and
// the codec it detected. Close releases decoder resources; it does not
// close r.
func NewReader(r io.Reader) (io.ReadCloser, Codec, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, None, fmt.Errorf("compress: sniff: %w", err)
	}
	switch c := Detect(head); c {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("compress: gzip: %w", err)
		}
		return zr, c, nil
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("compress: zstd: %w", err)
		}
		return zr.IOReadCloser(), c, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(br)), c, nil
	default:
		return io.NopCloser(br), c, nil
	}
}

// NewWriter compresses into w with the codec FromName(name) selects.
// Close flushes the codec; it does not close w.
func NewWriter(w io.Writer, name string) (io.WriteCloser, error) {
	switch FromName(name) {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("compress: zstd: %w", err)
		}
		return zw, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
