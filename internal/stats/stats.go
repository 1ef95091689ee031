// Package stats implements per-file and repository dedup statistics,
// computed over the tree of a single commit.
package stats

import (
	"fmt"

	"dits/internal/classify"
	"dits/internal/manifest"
	"dits/internal/objid"
	"dits/internal/objstore"
	"dits/internal/snapshot"
)

// FileDedup reports how much of one file's content is unique to it versus
// shared with other files in the same commit.
type FileDedup struct {
	SharedChunks    int
	UniqueChunks    int
	UniquePhysBytes uint64
}

// RepoDedup reports the repository-wide dedup ratio.
type RepoDedup struct {
	LogicalBytes  uint64 // sum of decompressed sizes across all files
	PhysicalBytes uint64 // sum of stored sizes across all unique chunks
	Ratio         float64
}

// chunkRefCounts returns, for every chunk referenced by commit's tree, the
// number of files in that tree whose manifest references it; a chunk
// repeated within one file counts once for that file.
func chunkRefCounts(store *objstore.Store, commit objid.ID) (map[objid.ID]int, map[objid.ID]uint32, error) {
	c, err := snapshot.LoadCommit(store, commit)
	if err != nil {
		return nil, nil, err
	}
	tree, err := snapshot.LoadTree(store, c.TreeID())
	if err != nil {
		return nil, nil, err
	}

	refCounts := make(map[objid.ID]int)
	sizes := make(map[objid.ID]uint32)
	for _, e := range tree.Entries {
		// GitText entries are owned by the text engine collaborator, not
		// the chunk object store; dedup accounting only covers DitsChunk
		// and Hybrid content.
		if e.Strategy == classify.GitText {
			continue
		}
		mID := objid.ID{Type: objid.Manifest, Digest: e.Manifest}
		m, err := manifest.Load(store, mID)
		if err != nil {
			return nil, nil, fmt.Errorf("stats: load manifest %s: %w", mID, err)
		}
		seen := make(map[objid.ID]bool)
		for _, ref := range m.Chunks {
			id := objid.ID{Type: objid.Chunk, Digest: ref.Digest}
			if !seen[id] {
				seen[id] = true
				refCounts[id]++
			}
			sizes[id] = ref.Length
		}
	}
	return refCounts, sizes, nil
}

// File computes FileDedup for path within commit.
func File(store *objstore.Store, commit objid.ID, path string) (FileDedup, error) {
	refCounts, sizes, err := chunkRefCounts(store, commit)
	if err != nil {
		return FileDedup{}, err
	}

	c, err := snapshot.LoadCommit(store, commit)
	if err != nil {
		return FileDedup{}, err
	}
	tree, err := snapshot.LoadTree(store, c.TreeID())
	if err != nil {
		return FileDedup{}, err
	}
	entry, ok := tree.Lookup(path)
	if !ok {
		return FileDedup{}, fmt.Errorf("stats: %s not found in commit %s", path, commit)
	}
	if entry.Strategy == classify.GitText {
		return FileDedup{}, nil
	}
	m, err := manifest.Load(store, objid.ID{Type: objid.Manifest, Digest: entry.Manifest})
	if err != nil {
		return FileDedup{}, err
	}

	var d FileDedup
	for _, ref := range m.Chunks {
		id := objid.ID{Type: objid.Chunk, Digest: ref.Digest}
		if refCounts[id] > 1 {
			d.SharedChunks++
		} else {
			d.UniqueChunks++
			d.UniquePhysBytes += uint64(sizes[id])
		}
	}
	return d, nil
}

// Repo computes RepoDedup over every file in commit's tree.
func Repo(store *objstore.Store, commit objid.ID) (RepoDedup, error) {
	refCounts, sizes, err := chunkRefCounts(store, commit)
	if err != nil {
		return RepoDedup{}, err
	}

	c, err := snapshot.LoadCommit(store, commit)
	if err != nil {
		return RepoDedup{}, err
	}
	tree, err := snapshot.LoadTree(store, c.TreeID())
	if err != nil {
		return RepoDedup{}, err
	}

	var d RepoDedup
	for _, e := range tree.Entries {
		if e.Strategy == classify.GitText {
			continue
		}
		m, err := manifest.Load(store, objid.ID{Type: objid.Manifest, Digest: e.Manifest})
		if err != nil {
			return RepoDedup{}, err
		}
		d.LogicalBytes += m.DecompressedSize
	}
	for id, count := range refCounts {
		if count >= 1 {
			d.PhysicalBytes += uint64(sizes[id])
		}
	}
	if d.LogicalBytes > 0 {
		d.Ratio = float64(d.PhysicalBytes) / float64(d.LogicalBytes)
	}
	return d, nil
}
