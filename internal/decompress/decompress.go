package decompress

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"dits/internal/container"

	"github.com/klauspost/compress/zstd"
)

// Result is what Decompress hands to the chunker: a stream to read
// decompressed bytes from, and the recipe needed to reverse the process.
type Result struct {
	Stream io.Reader
	Recipe Recipe
}

// Decompress strips the outer container identified by info from r (whose
// compressed size is size, or 0 if unknown) and returns a decompressed
// byte stream plus the reconstruction recipe. r must support io.ReaderAt
// when info.Outer == container.Zip.
func Decompress(r io.Reader, size int64, info container.FormatInfo, opts Options) (Result, error) {
	switch info.Outer {
	case container.GZip:
		return decompressGzip(r, size, opts)
	case container.Zstandard:
		return decompressZstd(r, size, opts)
	case container.Zip:
		ra, ok := r.(io.ReaderAt)
		if !ok {
			return Result{}, fmt.Errorf("decompress: zip requires io.ReaderAt")
		}
		return decompressZip(ra, size, opts)
	default:
		// SQLite, OLE, KnownBinary, TextContainer, Generic: no outer
		// compression. Still passes through the bomb guard since a
		// malformed size claim can otherwise exhaust memory downstream.
		return Result{Stream: newBoundedReader(r, size, opts), Recipe: Recipe{Kind: Direct}}, nil
	}
}

func decompressGzip(r io.Reader, size int64, opts Options) (Result, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("decompress: gzip header: %w", err)
	}
	recipe := Recipe{
		Kind:        Gzip,
		GzipName:    gz.Name,
		GzipModTime: gz.ModTime,
		GzipOS:      gz.OS,
		GzipLevel:   gzip.DefaultCompression,
	}
	return Result{Stream: newBoundedReader(gz, size, opts), Recipe: recipe}, nil
}

func decompressZstd(r io.Reader, size int64, opts Options) (Result, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("decompress: zstd header: %w", err)
	}
	// 3 is zstd's default numeric level; EncoderLevelFromZstd in
	// Recompress maps it back to SpeedDefault.
	recipe := Recipe{Kind: Zstd, ZstdLevel: 3}
	return Result{Stream: newBoundedReader(dec.IOReadCloser(), size, opts), Recipe: recipe}, nil
}

// decompressZip enumerates ZIP entries in their original central-directory
// order, decompresses each, and concatenates them into one logical stream
// so the chunker sees a single [0, totalSize) byte range, exactly as every
// other handler provides. The recipe records each entry's name, original
// compression method, and length so Recompress can re-split and rewrap in
// the same order. Archive order is preserved rather than sorted: it is the
// only order Recompress can reproduce byte-for-byte, since the writer's
// original placement isn't otherwise recoverable once entries are
// concatenated.
func decompressZip(ra io.ReaderAt, size int64, opts Options) (Result, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return Result{}, fmt.Errorf("decompress: zip central directory: %w", err)
	}

	var buf bytes.Buffer
	var entries []ZipEntryMeta

	// One accumulator shared across every entry, so the decompressed-size
	// and ratio ceilings apply to the archive as a whole rather than
	// resetting per entry.
	accumulator := newBoundedReader(nil, size, opts)

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return Result{}, fmt.Errorf("decompress: open zip entry %s: %w", f.Name, err)
		}
		accumulator.r = rc
		n, err := io.Copy(&buf, accumulator)
		rc.Close()
		if err != nil {
			return Result{}, fmt.Errorf("decompress: read zip entry %s: %w", f.Name, err)
		}
		entries = append(entries, ZipEntryMeta{
			Name:    f.Name,
			ModTime: f.Modified,
			Method:  f.Method,
			Length:  uint64(n),
		})
	}

	return Result{Stream: bytes.NewReader(buf.Bytes()), Recipe: Recipe{Kind: Zip, ZipEntries: entries}}, nil
}

// Recompress rewraps a reassembled decompressed stream back into the
// original on-disk form per recipe, writing the result to w.
//
// Gzip and zstd output matches the original bytes only when the original
// was written by the same encoder at the same settings: gzip is always
// rewritten at the default level, since the header does not record one,
// and zstd at the default level.
func Recompress(decompressed io.Reader, recipe Recipe, w io.Writer) error {
	switch recipe.Kind {
	case Direct:
		_, err := io.Copy(w, decompressed)
		return err
	case Gzip:
		gw, err := gzip.NewWriterLevel(w, recipe.GzipLevel)
		if err != nil {
			return fmt.Errorf("recompress: gzip writer: %w", err)
		}
		gw.Name = recipe.GzipName
		gw.ModTime = recipe.GzipModTime
		gw.OS = recipe.GzipOS
		if _, err := io.Copy(gw, decompressed); err != nil {
			gw.Close()
			return fmt.Errorf("recompress: gzip write: %w", err)
		}
		return gw.Close()
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(recipe.ZstdLevel)))
		if err != nil {
			return fmt.Errorf("recompress: zstd writer: %w", err)
		}
		if _, err := io.Copy(enc, decompressed); err != nil {
			enc.Close()
			return fmt.Errorf("recompress: zstd write: %w", err)
		}
		return enc.Close()
	case Zip:
		return recompressZip(decompressed, recipe, w)
	default:
		return fmt.Errorf("recompress: unknown recipe kind %d", recipe.Kind)
	}
}

func recompressZip(decompressed io.Reader, recipe Recipe, w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, e := range recipe.ZipEntries {
		fh := &zip.FileHeader{Name: e.Name, Method: e.Method, Modified: e.ModTime}
		ew, err := zw.CreateHeader(fh)
		if err != nil {
			return fmt.Errorf("recompress: create zip entry %s: %w", e.Name, err)
		}
		if _, err := io.CopyN(ew, decompressed, int64(e.Length)); err != nil {
			return fmt.Errorf("recompress: write zip entry %s: %w", e.Name, err)
		}
	}
	return zw.Close()
}
