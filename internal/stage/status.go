package stage

import (
	"io/fs"
	"os"
	"path/filepath"

	"dits/internal/ignore"
	"dits/internal/snapshot"
)

// Status is a path's classification relative to the working tree, the
// index, and the HEAD tree.
type Status string

const (
	Unmodified Status = "unmodified"
	Modified   Status = "modified"
	Added      Status = "added"
	Deleted    Status = "deleted"
	Untracked  Status = "untracked"
	Staged     Status = "staged"
)

// StatusEntry pairs a path with its computed status.
type StatusEntry struct {
	Path   string
	Status Status
}

// statMatches reports whether a file's current on-disk attributes match
// what was recorded when it was staged. This is the cheap signal the
// index's stat-cache exists for: avoids rehashing unchanged files on
// every status call.
func statMatches(cache StatCache, info fs.FileInfo) bool {
	return cache.ModTime == info.ModTime().Unix() &&
		cache.Size == info.Size() &&
		cache.Mode == uint32(info.Mode().Perm())
}

// Compute walks workDir and classifies every path headTree may
// be the zero Tree (no commits yet).
//
// A path present in the HEAD tree but absent from the index (possible
// after `remove`, whose working-tree file was not deleted) is reported
// Modified: it diverges from the last snapshot and is not the degenerate
// Untracked case, since dits has seen it before.
func Compute(workDir string, idx *Index, headTree snapshot.Tree, ign *ignore.List) ([]StatusEntry, error) {
	var out []StatusEntry
	seenOnDisk := make(map[string]bool)

	err := filepath.WalkDir(workDir, func(abs string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(workDir, abs)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ign.Match(rel) {
			return nil
		}
		seenOnDisk[rel] = true

		entry, inIndex := idx.Get(rel)
		headEntry, inHead := headTree.Lookup(rel)

		switch {
		case inIndex:
			info, statErr := d.Info()
			if statErr != nil {
				return statErr
			}
			if !statMatches(entry.Stat, info) {
				out = append(out, StatusEntry{rel, Modified})
				return nil
			}
			if inHead && entry.Manifest.Digest == headEntry.Manifest {
				out = append(out, StatusEntry{rel, Unmodified})
			} else if inHead {
				out = append(out, StatusEntry{rel, Staged})
			} else {
				out = append(out, StatusEntry{rel, Added})
			}
		case inHead:
			out = append(out, StatusEntry{rel, Modified})
		default:
			out = append(out, StatusEntry{rel, Untracked})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]bool)
	for _, e := range idx.Iter() {
		tracked[e.Path] = true
	}
	for _, e := range headTree.Entries {
		tracked[e.Path] = true
	}
	for path := range tracked {
		if seenOnDisk[path] || ign.Match(path) {
			continue
		}
		out = append(out, StatusEntry{path, Deleted})
	}

	return out, nil
}

// NewStatCache builds a StatCache from a file's current attributes, for
// recording into the index at add time.
func NewStatCache(info os.FileInfo) StatCache {
	return StatCache{
		ModTime: info.ModTime().Unix(),
		Size:    info.Size(),
		Mode:    uint32(info.Mode().Perm()),
	}
}
