package decompress

import (
	"fmt"
	"io"

	"dits/internal/ditserr"
)

// Options configures decompression-bomb protection.
type Options struct {
	// MaxDecompressedBytes is the absolute decompressed-size ceiling.
	MaxDecompressedBytes int64
	// MaxRatio is the compressed-to-decompressed ratio ceiling.
	MaxRatio float64
}

// DefaultOptions matches config.Default()'s transparent-decompression bounds.
var DefaultOptions = Options{
	MaxDecompressedBytes: 2 << 30, // 2 GiB
	MaxRatio:             100,
}

// boundedReader enforces both ceilings as the caller streams through it,
// so ingest can cancel at a chunk boundary instead of exhausting memory.
type boundedReader struct {
	r              io.Reader
	compressedSize int64
	opts           Options
	read           int64
}

func newBoundedReader(r io.Reader, compressedSize int64, opts Options) *boundedReader {
	if opts.MaxDecompressedBytes <= 0 {
		opts.MaxDecompressedBytes = DefaultOptions.MaxDecompressedBytes
	}
	if opts.MaxRatio <= 0 {
		opts.MaxRatio = DefaultOptions.MaxRatio
	}
	return &boundedReader{r: r, compressedSize: compressedSize, opts: opts}
}

func (b *boundedReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.read += int64(n)

	if b.read > b.opts.MaxDecompressedBytes {
		return n, fmt.Errorf("decompress: decompressed size exceeds %d bytes: %w", b.opts.MaxDecompressedBytes, ditserr.ErrDecompressionBomb)
	}
	if b.compressedSize > 0 {
		if float64(b.read) > float64(b.compressedSize)*b.opts.MaxRatio {
			return n, fmt.Errorf("decompress: ratio exceeds %.0fx: %w", b.opts.MaxRatio, ditserr.ErrDecompressionBomb)
		}
	}
	return n, err
}
