package core

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// CompressionType identifies how an input file is encoded
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionGzip
	CompressionSnappy
	CompressionZstd
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionSnappy:
		return "snappy"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// DetectCompression picks the codec from the file suffix.
func DetectCompression(path string) CompressionType {
	// drop any URL query before looking at the suffix
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(path, ".sz"):
		return CompressionSnappy
	case strings.HasSuffix(path, ".zst"):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// Decompressor turns an encoded input stream into plain rows
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
	Type() CompressionType
}

// NewDecompressor returns the codec for a compression type
func NewDecompressor(ct CompressionType) (Decompressor, error) {
	switch ct {
	case CompressionNone:
		return noopDecompressor{}, nil
	case CompressionGzip:
		return GzipDecompressor{}, nil
	case CompressionSnappy:
		return SnappyDecompressor{}, nil
	case CompressionZstd:
		return ZstdDecompressor{}, nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %d", ct)
	}
}

type noopDecompressor struct{}

func (noopDecompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
func (noopDecompressor) Type() CompressionType                  { return CompressionNone }

// SnappyDecompressor reads the snappy framing format (.sz)
type SnappyDecompressor struct{}

func (SnappyDecompressor) Decompress(data []byte) ([]byte, error) {
	return io.ReadAll(snappy.NewReader(bytes.NewReader(data)))
}

func (SnappyDecompressor) Type() CompressionType {
	return CompressionSnappy
}

// ZstdDecompressor reads Zstandard frames (.zst)
type ZstdDecompressor struct{}

func (ZstdDecompressor) Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()
	return decoder.DecodeAll(data, nil)
}

func (ZstdDecompressor) Type() CompressionType {
	return CompressionZstd
}

// GzipDecompressor reads gzip streams (.gz)
type GzipDecompressor struct{}

func (GzipDecompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (GzipDecompressor) Type() CompressionType {
	return CompressionGzip
}
