// Package snapshot implements the snapshot layer: trees, commits,
// refs, commit walking, and reachability enumeration over the object
// graph, layered directly on this module's content-addressed object
// store and generalized from single blobs to the tree/commit DAG.
package snapshot

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"dits/internal/classify"
	"dits/internal/ditserr"
	"dits/internal/objid"
	"dits/internal/objstore"
	"dits/internal/wire"
)

const treeSchemaVersion = 1

// TreeEntry is one path's mapping to a manifest within a snapshot.
type TreeEntry struct {
	Path     string           `cbor:"1,keyasint"`
	Manifest [32]byte         `cbor:"2,keyasint"`
	Strategy classify.Strategy `cbor:"3,keyasint"`
}

// Tree is an immutable, path-sorted mapping path -> manifest-id for one
// snapshot. Paths are unique, repository-relative,
// forward-slashed, and never start with '/' or contain "..".
type Tree struct {
	Version int         `cbor:"1,keyasint"`
	Entries []TreeEntry `cbor:"2,keyasint"`
}

// ValidatePath enforces Tree's path invariants, checked whenever a tree
// is built; DecodeTree and LoadTree do not re-check loaded paths.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("tree: empty path: %w", ditserr.ErrInvalidPath)
	}
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("tree: path %q starts with '/': %w", path, ditserr.ErrInvalidPath)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return fmt.Errorf("tree: path %q contains '..': %w", path, ditserr.ErrInvalidPath)
		}
	}
	return nil
}

// BuildTree sorts entries by path bytes ascending and validates path
// uniqueness and well-formedness before returning the Tree.
func BuildTree(entries []TreeEntry) (Tree, error) {
	sorted := append([]TreeEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare([]byte(sorted[i].Path), []byte(sorted[j].Path)) < 0
	})

	seen := make(map[string]bool, len(sorted))
	for _, e := range sorted {
		if err := ValidatePath(e.Path); err != nil {
			return Tree{}, err
		}
		if seen[e.Path] {
			return Tree{}, fmt.Errorf("tree: duplicate path %q: %w", e.Path, ditserr.ErrDuplicatePath)
		}
		seen[e.Path] = true
	}

	return Tree{Version: treeSchemaVersion, Entries: sorted}, nil
}

// EncodeTree serializes t to its canonical wire form.
func EncodeTree(t Tree) ([]byte, error) {
	t.Version = treeSchemaVersion
	return wire.Marshal(t)
}

// DecodeTree parses a tree's wire bytes.
func DecodeTree(data []byte) (Tree, error) {
	var t Tree
	if err := wire.Unmarshal(data, &t); err != nil {
		return Tree{}, fmt.Errorf("tree: decode: %w", err)
	}
	if t.Version > treeSchemaVersion {
		return Tree{}, fmt.Errorf("tree: version %d: %w", t.Version, ditserr.ErrUnsupportedVersion)
	}
	return t, nil
}

// StoreTree encodes, hashes, and persists t, returning its identifier.
func StoreTree(store *objstore.Store, t Tree) (objid.ID, error) {
	data, err := EncodeTree(t)
	if err != nil {
		return objid.ID{}, err
	}
	id := objid.New(objid.Tree, data)
	if _, err := store.Put(id, data); err != nil {
		return objid.ID{}, fmt.Errorf("tree: store %s: %w", id, err)
	}
	return id, nil
}

// LoadTree fetches and decodes a tree by id.
func LoadTree(store *objstore.Store, id objid.ID) (Tree, error) {
	data, err := store.Get(id)
	if err != nil {
		return Tree{}, fmt.Errorf("tree: load %s: %w", id, err)
	}
	return DecodeTree(data)
}

// Lookup returns the entry for path, or false if absent.
func (t Tree) Lookup(path string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Path == path {
			return e, true
		}
	}
	return TreeEntry{}, false
}
