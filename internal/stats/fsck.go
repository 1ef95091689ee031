package stats

import (
	"fmt"

	"dits/internal/classify"
	"dits/internal/ditserr"
	"dits/internal/manifest"
	"dits/internal/objid"
	"dits/internal/objstore"
	"dits/internal/snapshot"
)

// FsckError is one integrity violation found by Fsck. Never causes a
// mutation; every check here is read-only.
type FsckError struct {
	Kind    error
	Subject string // object id, path, or ref name
	Reason  string
}

func (e FsckError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Subject, e.Reason)
}

// Fsck re-hashes every stored object against its id, validates manifest
// coverage and chunk existence, tree path uniqueness and manifest
// resolution, and commit/ref resolution It returns every
// violation found; the store and refs are never modified.
func Fsck(store *objstore.Store, refs *snapshot.Refs, refNames []string) []FsckError {
	var errs []FsckError

	err := store.Walk(func(id objid.ID, path string) error {
		data, rerr := store.Get(id)
		if rerr != nil {
			errs = append(errs, FsckError{ditserr.ErrCorrupt, id.String(), "unreadable: " + rerr.Error()})
			return nil
		}
		if !objid.Verify(id, data) {
			errs = append(errs, FsckError{ditserr.ErrCorrupt, id.String(), "stored bytes do not hash to id"})
		}
		return nil
	})
	if err != nil {
		errs = append(errs, FsckError{ditserr.ErrCorrupt, "object-store", err.Error()})
	}

	err = store.Walk(func(id objid.ID, _ string) error {
		if id.Type != objid.Manifest {
			return nil
		}
		m, derr := manifest.Load(store, id)
		if derr != nil {
			errs = append(errs, FsckError{ditserr.ErrCorrupt, id.String(), "undecodable manifest"})
			return nil
		}
		if cerr := manifest.CheckCoverage(m); cerr != nil {
			errs = append(errs, FsckError{ditserr.ErrManifestInconsistent, id.String(), cerr.Error()})
		}
		for _, ref := range m.Chunks {
			cid := objid.ID{Type: objid.Chunk, Digest: ref.Digest}
			if !store.Exists(cid) {
				errs = append(errs, FsckError{ditserr.ErrManifestInconsistent, id.String(), "missing chunk " + cid.String()})
			}
		}
		return nil
	})
	if err != nil {
		errs = append(errs, FsckError{ditserr.ErrCorrupt, "object-store", err.Error()})
	}

	err = store.Walk(func(id objid.ID, _ string) error {
		if id.Type != objid.Tree {
			return nil
		}
		tree, derr := snapshot.LoadTree(store, id)
		if derr != nil {
			errs = append(errs, FsckError{ditserr.ErrCorrupt, id.String(), "undecodable tree"})
			return nil
		}
		seen := make(map[string]bool)
		for _, e := range tree.Entries {
			if seen[e.Path] {
				errs = append(errs, FsckError{ditserr.ErrDuplicatePath, id.String(), "duplicate path " + e.Path})
			}
			seen[e.Path] = true
			if e.Strategy == classify.GitText {
				// GitText entries resolve through the text engine, not the
				// manifest object store.
				continue
			}
			mID := objid.ID{Type: objid.Manifest, Digest: e.Manifest}
			if !store.Exists(mID) {
				errs = append(errs, FsckError{ditserr.ErrNotFound, id.String(), "entry " + e.Path + " references missing manifest " + mID.String()})
			}
		}
		return nil
	})
	if err != nil {
		errs = append(errs, FsckError{ditserr.ErrCorrupt, "object-store", err.Error()})
	}

	err = store.Walk(func(id objid.ID, _ string) error {
		if id.Type != objid.Commit {
			return nil
		}
		c, derr := snapshot.LoadCommit(store, id)
		if derr != nil {
			errs = append(errs, FsckError{ditserr.ErrCorrupt, id.String(), "undecodable commit"})
			return nil
		}
		if !store.Exists(c.TreeID()) {
			errs = append(errs, FsckError{ditserr.ErrNotFound, id.String(), "tree " + c.TreeID().String() + " does not resolve"})
		}
		for _, p := range c.ParentIDs() {
			if !store.Exists(p) {
				errs = append(errs, FsckError{ditserr.ErrNotFound, id.String(), "parent " + p.String() + " does not resolve"})
			}
		}
		return nil
	})
	if err != nil {
		errs = append(errs, FsckError{ditserr.ErrCorrupt, "object-store", err.Error()})
	}

	for _, name := range refNames {
		commitID, gerr := refs.GetRef(name)
		if gerr != nil {
			errs = append(errs, FsckError{ditserr.ErrNotFound, name, "ref unreadable: " + gerr.Error()})
			continue
		}
		if !store.Exists(commitID) {
			errs = append(errs, FsckError{ditserr.ErrNotFound, name, "commit " + commitID.String() + " does not resolve"})
		}
	}

	return errs
}
