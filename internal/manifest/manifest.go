// Package manifest implements the Manifest Builder & Reconstructor:
// turning a chunk sequence plus file attributes into an addressable
// FileManifest, and turning a manifest back into the exact original bytes.
package manifest

import (
	"fmt"
	"time"

	"dits/internal/decompress"
	"dits/internal/ditserr"
	"dits/internal/objid"
	"dits/internal/wire"
)

// schemaVersion guards against decoding a manifest written by a future,
// incompatible encoder.
const schemaVersion = 1

// ChunkRef is one chunk's placement within a file, in file order.
type ChunkRef struct {
	Digest [32]byte `cbor:"1,keyasint"`
	Offset uint64   `cbor:"2,keyasint"`
	Length uint32   `cbor:"3,keyasint"`
}

// FileManifest is the serialized description of one file version.
// The concatenation of Chunks by Offset must cover [0, DecompressedSize)
// exactly; this is checked on every Reconstruct, never trusted blindly.
type FileManifest struct {
	Version          int                  `cbor:"1,keyasint"`
	DecompressedSize uint64               `cbor:"2,keyasint"`
	Mode             uint32               `cbor:"3,keyasint"`
	ModTime          time.Time            `cbor:"4,keyasint"`
	FileDigest       *[32]byte            `cbor:"5,keyasint,omitempty"`
	Recipe           decompress.Recipe    `cbor:"6,keyasint"`
	Chunks           []ChunkRef           `cbor:"7,keyasint"`
}

// Encode serializes m to its canonical wire form.
func Encode(m FileManifest) ([]byte, error) {
	m.Version = schemaVersion
	return wire.Marshal(m)
}

// Decode parses a manifest's wire bytes.
func Decode(data []byte) (FileManifest, error) {
	var m FileManifest
	if err := wire.Unmarshal(data, &m); err != nil {
		return FileManifest{}, fmt.Errorf("manifest: decode: %w", err)
	}
	if m.Version > schemaVersion {
		return FileManifest{}, fmt.Errorf("manifest: version %d: %w", m.Version, ditserr.ErrUnsupportedVersion)
	}
	return m, nil
}

// ID returns the content-addressed identifier of m's encoded form.
func ID(m FileManifest) (objid.ID, []byte, error) {
	data, err := Encode(m)
	if err != nil {
		return objid.ID{}, nil, err
	}
	return objid.New(objid.Manifest, data), data, nil
}

// CheckCoverage validates the hard manifest invariant:
// chunks are strictly contiguous from 0 and their total length equals
// DecompressedSize. Returns ditserr.ErrManifestInconsistent on violation.
func CheckCoverage(m FileManifest) error {
	var want uint64
	for i, c := range m.Chunks {
		if c.Offset != want {
			return fmt.Errorf("manifest: chunk %d offset %d, want %d: %w", i, c.Offset, want, ditserr.ErrManifestInconsistent)
		}
		want += uint64(c.Length)
	}
	if want != m.DecompressedSize {
		return fmt.Errorf("manifest: total chunk length %d != decompressed size %d: %w", want, m.DecompressedSize, ditserr.ErrManifestInconsistent)
	}
	return nil
}
