package manifest

import (
	"fmt"
	"io"
	"os"
	"time"

	"dits/internal/container"
	"dits/internal/decompress"
	"dits/internal/fastcdc"
	"dits/internal/objid"
	"dits/internal/objstore"

	"lukechampine.com/blake3"
)

// BuildOptions selects the chunking profile and decompression bounds for
// one file's ingest pass.
type BuildOptions struct {
	Profile          fastcdc.Profile
	DecompressOpts   decompress.Options
	ComputeFileDigest bool
}

// Build streams src (of the given size, and implementing io.ReaderAt when
// format.Outer == container.Zip) through decompression for the
// already-detected format and chunking, storing each chunk in store and returning the resulting
// manifest. It does not store the manifest itself; callers
// do that via Store once they also know the path's final metadata.
func Build(store *objstore.Store, src io.Reader, size int64, format container.FormatInfo, mode os.FileMode, modTime time.Time, opts BuildOptions) (FileManifest, error) {
	result, err := decompress.Decompress(src, size, format, opts.DecompressOpts)
	if err != nil {
		return FileManifest{}, fmt.Errorf("manifest: decompress: %w", err)
	}

	chunker := fastcdc.New(result.Stream, opts.Profile)

	var refs []ChunkRef
	var total uint64
	var fileHash *blake3.Hasher
	if opts.ComputeFileDigest {
		fileHash = blake3.New(32, nil)
	}

	for {
		desc, data, err := chunker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return FileManifest{}, fmt.Errorf("manifest: chunk at offset %d: %w", desc.Offset, err)
		}

		id := objid.New(objid.Chunk, data)
		if _, err := store.Put(id, data); err != nil {
			return FileManifest{}, fmt.Errorf("manifest: store chunk %s: %w", id, err)
		}

		refs = append(refs, ChunkRef{Digest: id.Digest, Offset: desc.Offset, Length: uint32(len(data))})
		total += uint64(len(data))
		if fileHash != nil {
			fileHash.Write(data)
		}
	}

	m := FileManifest{
		DecompressedSize: total,
		Mode:             uint32(mode),
		ModTime:          modTime,
		Recipe:           result.Recipe,
		Chunks:           refs,
	}
	if fileHash != nil {
		var sum [32]byte
		fileHash.Sum(sum[:0])
		m.FileDigest = &sum
	}

	if err := CheckCoverage(m); err != nil {
		return FileManifest{}, err
	}
	return m, nil
}

// Store encodes m canonically, computes its id, and puts it into store.
func Store(store *objstore.Store, m FileManifest) (objid.ID, error) {
	id, data, err := ID(m)
	if err != nil {
		return objid.ID{}, err
	}
	if _, err := store.Put(id, data); err != nil {
		return objid.ID{}, fmt.Errorf("manifest: store %s: %w", id, err)
	}
	return id, nil
}

// Load fetches and decodes a manifest by id.
func Load(store *objstore.Store, id objid.ID) (FileManifest, error) {
	data, err := store.Get(id)
	if err != nil {
		return FileManifest{}, fmt.Errorf("manifest: load %s: %w", id, err)
	}
	return Decode(data)
}
