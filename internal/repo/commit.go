package repo

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dits/internal/classify"
	"dits/internal/ditserr"
	"dits/internal/manifest"
	"dits/internal/objid"
	"dits/internal/snapshot"
	"dits/internal/stage"
	"dits/internal/stats"
	"dits/internal/textengine"
)

// Remove unstages path, failing with ErrNotTracked if it was never staged.
func (r *Repository) Remove(path string) error {
	lock, err := stage.Acquire(r.DotDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	idx, err := r.LoadIndex()
	if err != nil {
		return err
	}
	if err := idx.Remove(path); err != nil {
		return err
	}
	return idx.Save()
}

// Status reports every path's state relative to the working tree, the
// index, and HEAD.
func (r *Repository) Status() ([]stage.StatusEntry, error) {
	idx, err := r.LoadIndex()
	if err != nil {
		return nil, err
	}
	headTree, _, err := r.HeadTree()
	if err != nil {
		return nil, err
	}
	return stage.Compute(r.WorkDir, idx, headTree, r.Ignore)
}

// Commit builds a Tree from the index's staged entries, creates a Commit
// pointing at it (with the current branch's HEAD as its sole parent, or no
// parent for the repository's first commit), advances the branch ref, and
// clears the index.
//
// Fails with ErrNothingToCommit if the index is empty.
func (r *Repository) Commit(message string) (objid.ID, error) {
	lock, err := stage.Acquire(r.DotDir)
	if err != nil {
		return objid.ID{}, err
	}
	defer lock.Release()

	idx, err := r.LoadIndex()
	if err != nil {
		return objid.ID{}, err
	}
	if idx.Len() == 0 {
		return objid.ID{}, fmt.Errorf("commit: %w", ditserr.ErrNothingToCommit)
	}

	var entries []snapshot.TreeEntry
	for _, e := range idx.Iter() {
		digest, err := entryDigest(e)
		if err != nil {
			return objid.ID{}, fmt.Errorf("commit: %s: %w", e.Path, err)
		}
		entries = append(entries, snapshot.TreeEntry{
			Path:     e.Path,
			Manifest: digest,
			Strategy: e.Strategy,
		})
	}
	tree, err := snapshot.BuildTree(entries)
	if err != nil {
		return objid.ID{}, err
	}
	treeID, err := snapshot.StoreTree(r.Store, tree)
	if err != nil {
		return objid.ID{}, err
	}

	parentID, err := r.Refs.ResolveHead()
	if err != nil && !errors.Is(err, ditserr.ErrNotFound) {
		return objid.ID{}, err
	}
	var parents []objid.ID
	if !parentID.IsZero() {
		parents = []objid.ID{parentID}
	}

	identity := snapshot.Identity{Name: r.Config.User.Name, Email: r.Config.User.Email}
	c := snapshot.NewCommit(treeID, parents, identity, identity, now(), message)
	commitID, err := snapshot.StoreCommit(r.Store, c)
	if err != nil {
		return objid.ID{}, err
	}

	if err := r.Refs.AdvanceBranch(parentID, commitID); err != nil {
		return objid.ID{}, err
	}

	idx.Clear()
	if err := idx.Save(); err != nil {
		return objid.ID{}, err
	}
	return commitID, nil
}

// entryDigest extracts the raw 32-byte digest a tree entry stores: a
// DitsChunk/Hybrid entry's manifest digest directly, or a GitText entry's
// text-engine digest decoded from its "gt_"-prefixed rendering (validated
// via textengine.Parse, then hex-decoded directly since textengine.ID
// keeps its digest unexported).
func entryDigest(e stage.Entry) ([32]byte, error) {
	if e.Strategy != classify.GitText {
		return e.Manifest.Digest, nil
	}
	if _, err := textengine.Parse(e.ManifestText); err != nil {
		return [32]byte{}, err
	}
	var digest [32]byte
	if _, err := hex.Decode(digest[:], []byte(e.ManifestText[3:])); err != nil {
		return [32]byte{}, fmt.Errorf("decode text-engine id %q: %w", e.ManifestText, err)
	}
	return digest, nil
}

// Checkout reconstructs every file in commitID's tree into the working
// directory, overwriting whatever is currently there.
func (r *Repository) Checkout(commitID objid.ID) error {
	c, err := snapshot.LoadCommit(r.Store, commitID)
	if err != nil {
		return err
	}
	tree, err := snapshot.LoadTree(r.Store, c.TreeID())
	if err != nil {
		return err
	}

	for _, e := range tree.Entries {
		abs := filepath.Join(r.WorkDir, e.Path)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return fmt.Errorf("checkout: mkdir for %s: %w", e.Path, err)
		}

		if e.Strategy == classify.GitText {
			// GitText entries carry the text engine's own digest in the
			// tree's manifest field, rendered through textengine's "gt_"
			// form rather than resolved against the chunk object store.
			id, perr := textengine.Parse(fmt.Sprintf("gt_%x", e.Manifest))
			if perr != nil {
				return fmt.Errorf("checkout %s: %w", e.Path, perr)
			}
			data, rerr := r.Text.Resolve(id)
			if rerr != nil {
				return fmt.Errorf("checkout %s: %w", e.Path, rerr)
			}
			if err := os.WriteFile(abs, data, 0o644); err != nil {
				return fmt.Errorf("checkout %s: %w", e.Path, err)
			}
			continue
		}

		mID := objid.ID{Type: objid.Manifest, Digest: e.Manifest}
		m, err := manifest.Load(r.Store, mID)
		if err != nil {
			return fmt.Errorf("checkout %s: %w", e.Path, err)
		}
		f, err := os.Create(abs)
		if err != nil {
			return fmt.Errorf("checkout %s: %w", e.Path, err)
		}
		if err := manifest.Reconstruct(r.Store, m, f); err != nil {
			f.Close()
			return fmt.Errorf("checkout %s: %w", e.Path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("checkout %s: %w", e.Path, err)
		}
		if err := os.Chmod(abs, os.FileMode(m.Mode)); err != nil {
			return fmt.Errorf("checkout %s: %w", e.Path, err)
		}
	}
	return nil
}

// Log yields commits starting at start in first-parent order, up to limit
// (0 means unlimited).
func (r *Repository) Log(start objid.ID, limit int, fn func(objid.ID, snapshot.Commit) error) error {
	return snapshot.Walk(r.Store, start, limit, fn)
}

// Fsck runs a read-only integrity pass over the object store and the
// repository's refs.
func (r *Repository) Fsck() []stats.FsckError {
	return stats.Fsck(r.Store, r.Refs, r.refNames())
}

// Stats reports repository-wide deduplication statistics for commitID.
func (r *Repository) Stats(commitID objid.ID) (stats.RepoDedup, error) {
	return stats.Repo(r.Store, commitID)
}

// FileStats reports per-file deduplication statistics for path as of
// commitID.
func (r *Repository) FileStats(commitID objid.ID, path string) (stats.FileDedup, error) {
	return stats.File(r.Store, commitID, path)
}

// refNames enumerates every ref currently on disk under refs/heads and
// refs/tags, for Fsck to resolve.
func (r *Repository) refNames() []string {
	var names []string
	for _, sub := range []string{"refs/heads", "refs/tags"} {
		dir := filepath.Join(r.DotDir, sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			names = append(names, sub+"/"+e.Name())
		}
	}
	return names
}
