// Package container implements the Format Detector: given the first
// bytes of a file routed to the binary engine, identify the outer container
// so the decompressor knows which handler owns it.
package container

import (
	"bytes"
	"path/filepath"
	"strings"
)

// OuterFormat is the closed set of outer container kinds the detector
// recognizes, modeled as a tagged variant: new formats extend this enum,
// never a runtime string-keyed lookup table.
type OuterFormat int

const (
	Generic OuterFormat = iota
	GZip
	Zstandard
	Zip
	SQLite
	OLE
	KnownBinary
	TextContainer
)

func (f OuterFormat) String() string {
	switch f {
	case GZip:
		return "gzip"
	case Zstandard:
		return "zstd"
	case Zip:
		return "zip"
	case SQLite:
		return "sqlite"
	case OLE:
		return "ole"
	case KnownBinary:
		return "known-binary"
	case TextContainer:
		return "text"
	default:
		return "generic"
	}
}

// BinaryKind identifies a recognized section-structured binary format for
// the KnownBinary variant.
type BinaryKind string

const (
	KindPhotoshop    BinaryKind = "psd"
	KindBlender      BinaryKind = "blender"
	KindRIFX         BinaryKind = "riff-big-endian"
	KindUnrealAsset  BinaryKind = "unreal-asset"
	KindPDF          BinaryKind = "pdf"
	KindFLStudio     BinaryKind = "flstudio"
	KindDaVinciProj  BinaryKind = "davinci-resolve-proprietary"
	KindUnknownMagic BinaryKind = ""
)

// FormatInfo is the detector's output, carried alongside the file through
// the rest of the ingest pipeline.
type FormatInfo struct {
	Outer   OuterFormat
	Binary  BinaryKind // only meaningful when Outer == KnownBinary
	Handler string     // human-readable handler id, for logging/diagnostics
}

var sqliteMagic = []byte("SQLite format 3\x00")
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// sectionStructuredExt maps extensions of known section-structured binaries
// to their BinaryKind, consulted when magic bytes alone are ambiguous
// (e.g. newer .blend headers, or extensions that share the OLE container).
var sectionStructuredExt = map[string]BinaryKind{
	".psd":  KindPhotoshop,
	".blend": KindBlender,
	".aep":  KindRIFX,
	".uasset": KindUnrealAsset,
	".pdf":  KindPDF,
	".flp":  KindFLStudio,
	// .drp is DaVinci Resolve's project container; some variants are
	// internally zlib-wrapped, but it is always treated as opaque
	// proprietary binary rather than guessed at and partially unpacked.
	".drp": KindDaVinciProj,
}

// textContainerExt are extensions whose content is textual even though the
// classifier routed the file to the binary engine (e.g. via an attributes
// override), so the small-file chunk profile still applies.
var textContainerExt = map[string]bool{
	".xml": true, ".yaml": true, ".yml": true, ".json": true,
}

// Detect identifies the outer container format of a file from its path and
// up to the first 8 KiB of content: magic bytes first, then extension,
// then Generic.
func Detect(path string, prefix []byte) FormatInfo {
	if info, ok := detectMagic(prefix); ok {
		return info
	}
	if info, ok := detectExtension(path); ok {
		return info
	}
	return FormatInfo{Outer: Generic, Handler: "generic"}
}

func detectMagic(prefix []byte) (FormatInfo, bool) {
	switch {
	case bytes.HasPrefix(prefix, []byte{0x1F, 0x8B}):
		return FormatInfo{Outer: GZip, Handler: "gzip"}, true
	case bytes.HasPrefix(prefix, []byte{0x28, 0xB5, 0x2F, 0xFD}):
		return FormatInfo{Outer: Zstandard, Handler: "zstd"}, true
	case bytes.HasPrefix(prefix, []byte{0x50, 0x4B, 0x03, 0x04}):
		return FormatInfo{Outer: Zip, Handler: "zip"}, true
	case bytes.HasPrefix(prefix, sqliteMagic):
		return FormatInfo{Outer: SQLite, Handler: "sqlite"}, true
	case bytes.HasPrefix(prefix, oleMagic):
		return FormatInfo{Outer: OLE, Handler: "ole"}, true
	case bytes.HasPrefix(prefix, []byte("8BPS")):
		return FormatInfo{Outer: KnownBinary, Binary: KindPhotoshop, Handler: "psd"}, true
	case bytes.HasPrefix(prefix, []byte("BLENDER")):
		return FormatInfo{Outer: KnownBinary, Binary: KindBlender, Handler: "blend"}, true
	case bytes.HasPrefix(prefix, []byte("RIFX")):
		return FormatInfo{Outer: KnownBinary, Binary: KindRIFX, Handler: "riff-be"}, true
	case bytes.HasPrefix(prefix, []byte("%PDF")):
		return FormatInfo{Outer: KnownBinary, Binary: KindPDF, Handler: "pdf"}, true
	case bytes.HasPrefix(prefix, []byte("FLhd")):
		return FormatInfo{Outer: KnownBinary, Binary: KindFLStudio, Handler: "flstudio"}, true
	case bytes.HasPrefix(prefix, []byte{0xC1, 0x83, 0x2A, 0x9E}):
		return FormatInfo{Outer: KnownBinary, Binary: KindUnrealAsset, Handler: "unreal-asset"}, true
	case bytes.HasPrefix(prefix, []byte("<?xml")):
		return FormatInfo{Outer: TextContainer, Handler: "xml"}, true
	case bytes.HasPrefix(prefix, []byte("%YAML")):
		return FormatInfo{Outer: TextContainer, Handler: "yaml"}, true
	}

	// A leading UTF-8 BOM followed by '{' or '[' also counts as a textual
	// sub-format.
	trimmed := bytes.TrimPrefix(prefix, []byte{0xEF, 0xBB, 0xBF})
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatInfo{Outer: TextContainer, Handler: "json"}, true
	}

	return FormatInfo{}, false
}

func detectExtension(path string) (FormatInfo, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := sectionStructuredExt[ext]; ok {
		return FormatInfo{Outer: KnownBinary, Binary: kind, Handler: string(kind)}, true
	}
	if textContainerExt[ext] {
		return FormatInfo{Outer: TextContainer, Handler: strings.TrimPrefix(ext, ".")}, true
	}
	switch ext {
	case ".gz", ".svgz":
		return FormatInfo{Outer: GZip, Handler: "gzip"}, true
	case ".zip", ".mogrt", ".sketch", ".kra", ".docx", ".fcstd", ".f3d":
		return FormatInfo{Outer: Zip, Handler: "zip"}, true
	case ".sqlite", ".sqlite3":
		return FormatInfo{Outer: SQLite, Handler: "sqlite"}, true
	}
	return FormatInfo{}, false
}
