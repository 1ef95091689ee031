// Package decompress implements the transparent decompressor: it
// strips outer compression so the chunker operates on decompressed bytes,
// and records a reconstruction recipe sufficient to rewrap the reassembled
// stream back into the original on-disk form.
package decompress

import "time"

// RecipeKind is the closed set of reconstruction strategies, modeled as a
// tagged variant rather than dynamic per-format handler dispatch by
// string tag.
type RecipeKind int

const (
	// Direct means the stored chunks ARE the original bytes; no rewrap
	// needed (plain files, SQLite, OLE, KnownBinary, text containers,
	// Generic).
	Direct RecipeKind = iota
	Gzip
	Zstd
	Zip
)

// ZipEntryMeta captures one ZIP entry's identity and placement in the
// concatenated decompressed stream the chunker saw.
type ZipEntryMeta struct {
	Name    string
	ModTime time.Time
	Method  uint16 // original compression method, e.g. zip.Deflate or zip.Store
	Length  uint64 // decompressed length of this entry within the stream
}

// Recipe is the data needed to rewrap a manifest's reassembled chunk
// concatenation back into the original on-disk bytes.
type Recipe struct {
	Kind RecipeKind

	// GzipName/GzipModTime/GzipOS let the gzip recompressor reproduce the
	// original header fields; GzipLevel is the level Recompress writes at.
	// The gzip header does not record a level, so Decompress always sets
	// gzip.DefaultCompression (see Recompress's caveat).
	GzipName    string
	GzipModTime time.Time
	GzipOS      byte
	GzipLevel   int

	ZstdLevel int

	ZipEntries []ZipEntryMeta
}
