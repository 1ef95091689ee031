package snapshot

import (
	"fmt"
	"time"

	"dits/internal/ditserr"
	"dits/internal/objid"
	"dits/internal/objstore"
	"dits/internal/wire"
)

const commitSchemaVersion = 1

// Identity is an author or committer identity.
type Identity struct {
	Name  string `cbor:"1,keyasint"`
	Email string `cbor:"2,keyasint"`
}

// Commit is a snapshot header: tree, ordered parents, identities, time,
// and message. The first commit has zero
// parents; merges have two or more; parent order is preserved (first
// parent is the branch being merged into).
type Commit struct {
	Version   int        `cbor:"1,keyasint"`
	Tree      [32]byte   `cbor:"2,keyasint"`
	Parents   [][32]byte `cbor:"3,keyasint"`
	Author    Identity   `cbor:"4,keyasint"`
	Committer Identity   `cbor:"5,keyasint"`
	Timestamp int64      `cbor:"6,keyasint"` // seconds since epoch UTC
	Message   string     `cbor:"7,keyasint"`
}

// NewCommit composes a Commit header at the given time: fields are fixed
// order, deterministic once encoded.
func NewCommit(tree objid.ID, parents []objid.ID, author, committer Identity, at time.Time, message string) Commit {
	parentDigests := make([][32]byte, len(parents))
	for i, p := range parents {
		parentDigests[i] = p.Digest
	}
	return Commit{
		Version:   commitSchemaVersion,
		Tree:      tree.Digest,
		Parents:   parentDigests,
		Author:    author,
		Committer: committer,
		Timestamp: at.UTC().Unix(),
		Message:   message,
	}
}

// EncodeCommit serializes c to its canonical wire form.
func EncodeCommit(c Commit) ([]byte, error) {
	c.Version = commitSchemaVersion
	return wire.Marshal(c)
}

// DecodeCommit parses a commit's wire bytes.
func DecodeCommit(data []byte) (Commit, error) {
	var c Commit
	if err := wire.Unmarshal(data, &c); err != nil {
		return Commit{}, fmt.Errorf("commit: decode: %w", err)
	}
	if c.Version > commitSchemaVersion {
		return Commit{}, fmt.Errorf("commit: version %d: %w", c.Version, ditserr.ErrUnsupportedVersion)
	}
	return c, nil
}

// StoreCommit encodes, hashes, and persists c, returning its identifier.
func StoreCommit(store *objstore.Store, c Commit) (objid.ID, error) {
	data, err := EncodeCommit(c)
	if err != nil {
		return objid.ID{}, err
	}
	id := objid.New(objid.Commit, data)
	if _, err := store.Put(id, data); err != nil {
		return objid.ID{}, fmt.Errorf("commit: store %s: %w", id, err)
	}
	return id, nil
}

// LoadCommit fetches and decodes a commit by id.
func LoadCommit(store *objstore.Store, id objid.ID) (Commit, error) {
	data, err := store.Get(id)
	if err != nil {
		return Commit{}, fmt.Errorf("commit: load %s: %w", id, err)
	}
	return DecodeCommit(data)
}

// TreeID renders c's tree field back into an objid.ID.
func (c Commit) TreeID() objid.ID {
	return objid.ID{Type: objid.Tree, Digest: c.Tree}
}

// ParentIDs renders c's parent fields back into objid.IDs.
func (c Commit) ParentIDs() []objid.ID {
	ids := make([]objid.ID, len(c.Parents))
	for i, p := range c.Parents {
		ids[i] = objid.ID{Type: objid.Commit, Digest: p}
	}
	return ids
}
