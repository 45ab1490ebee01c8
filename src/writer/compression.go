package writer

import (
	"strings"

	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/pingcap/errors"
)

// Compression is the codec applied to every column chunk of an output file.
type Compression int

const (
	CompressionUncompressed Compression = iota
	CompressionSnappy
	CompressionGzip
	CompressionLz4
	CompressionZstd
)

// ParseCompression resolves a codec name as written in the config file.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "snappy":
		return CompressionSnappy, nil
	case "zstd":
		return CompressionZstd, nil
	case "gzip":
		return CompressionGzip, nil
	case "lz4_raw", "lz4":
		return CompressionLz4, nil
	case "uncompressed", "none", "":
		return CompressionUncompressed, nil
	default:
		return CompressionUncompressed, errors.Errorf("unsupported parquet compression: %q", name)
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionUncompressed:
		return "uncompressed"
	case CompressionSnappy:
		return "snappy"
	case CompressionGzip:
		return "gzip"
	case CompressionLz4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Codec maps the compression to the arrow-go codec. LZ4 is written as
// LZ4_RAW, the variant current Parquet readers expect.
func (c Compression) Codec() compress.Compression {
	switch c {
	case CompressionSnappy:
		return compress.Codecs.Snappy
	case CompressionGzip:
		return compress.Codecs.Gzip
	case CompressionLz4:
		return compress.Codecs.Lz4Raw
	case CompressionZstd:
		return compress.Codecs.Zstd
	default:
		return compress.Codecs.Uncompressed
	}
}
