package manifest

import (
	"bytes"
	"fmt"
	"io"

	"dits/internal/decompress"
	"dits/internal/ditserr"
	"dits/internal/objid"
	"dits/internal/objstore"

	"lukechampine.com/blake3"
)

// Reconstruct reads m's chunks in order from store, rewraps them through
// m's recipe, and writes the exact original bytes to w.
// CheckCoverage is re-validated here (not just at build time) since a
// hand-crafted or corrupted manifest may reach this path directly.
func Reconstruct(store *objstore.Store, m FileManifest, w io.Writer) error {
	if err := CheckCoverage(m); err != nil {
		return err
	}

	var assembled bytes.Buffer
	var fileHash *blake3.Hasher
	if m.FileDigest != nil {
		fileHash = blake3.New(32, nil)
	}

	for _, ref := range m.Chunks {
		id := objid.ID{Type: objid.Chunk, Digest: ref.Digest}
		data, err := store.Get(id)
		if err != nil {
			return fmt.Errorf("manifest: reconstruct missing chunk %s: %w", id, err)
		}
		if uint32(len(data)) != ref.Length {
			return fmt.Errorf("manifest: chunk %s length %d, manifest says %d: %w", id, len(data), ref.Length, ditserr.ErrManifestInconsistent)
		}
		assembled.Write(data)
		if fileHash != nil {
			fileHash.Write(data)
		}
	}

	if fileHash != nil {
		var sum [32]byte
		fileHash.Sum(sum[:0])
		if sum != *m.FileDigest {
			return fmt.Errorf("manifest: reconstructed file digest mismatch: %w", ditserr.ErrCorrupt)
		}
	}

	return decompress.Recompress(&assembled, m.Recipe, w)
}
