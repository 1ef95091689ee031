// Package objid implements the repository's content-addressed
// identifiers: a typed BLAKE3-256 digest over raw bytes, rendered as
// "<type-prefix>_<hex>" across this module's four closed object kinds.
package objid

import (
	"encoding/hex"
	"errors"
	"fmt"

	"lukechampine.com/blake3"
)

// Type is one of the four immutable object kinds the store ever holds.
type Type byte

const (
	Chunk Type = iota
	Manifest
	Tree
	Commit
)

// DigestSize is the length in bytes of a BLAKE3-256 digest.
const DigestSize = 32

var (
	ErrInvalidFormat = errors.New("objid: invalid identifier format")
	ErrUnknownPrefix = errors.New("objid: unknown type prefix")
)

// prefix returns the on-wire type tag, e.g. "ch_" for a Chunk.
func (t Type) prefix() string {
	switch t {
	case Chunk:
		return "ch_"
	case Manifest:
		return "mf_"
	case Tree:
		return "tr_"
	case Commit:
		return "cm_"
	default:
		return "??_"
	}
}

// Dir is the on-disk object-store directory segment for this type
// (objects/<dir>/...)
func (t Type) Dir() string {
	switch t {
	case Chunk:
		return "chunk"
	case Manifest:
		return "manifest"
	case Tree:
		return "tree"
	case Commit:
		return "commit"
	default:
		return "unknown"
	}
}

func (t Type) String() string {
	switch t {
	case Chunk:
		return "chunk"
	case Manifest:
		return "manifest"
	case Tree:
		return "tree"
	case Commit:
		return "commit"
	default:
		return "unknown"
	}
}

// ID is a typed content hash: (ObjectType, 32-byte BLAKE3 digest).
// The zero value is not a valid ID.
type ID struct {
	Type   Type
	Digest [DigestSize]byte
}

// New computes the content-addressed identifier for bytes of the given type.
// Invariant (content addressing): id(O) = BLAKE3(bytes(O)) prefixed with
// type(O). Calling New twice on identical bytes yields an identical ID.
func New(t Type, data []byte) ID {
	return ID{Type: t, Digest: blake3.Sum256(data)}
}

// String renders the identifier as "<type-prefix>_<64 lowercase hex chars>".
func (id ID) String() string {
	return id.Type.prefix() + hex.EncodeToString(id.Digest[:])
}

// IsZero reports whether id is the zero value (no type, no digest).
func (id ID) IsZero() bool {
	return id == ID{}
}

// Parse decodes a rendered identifier such as "ch_aa11...".
func Parse(s string) (ID, error) {
	if len(s) < 4 || s[2] != '_' {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	var t Type
	switch s[:2] {
	case "ch":
		t = Chunk
	case "mf":
		t = Manifest
	case "tr":
		t = Tree
	case "cm":
		t = Commit
	default:
		return ID{}, fmt.Errorf("%w: %q", ErrUnknownPrefix, s[:2])
	}
	hexPart := s[3:]
	if len(hexPart) != DigestSize*2 {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	raw, err := hex.DecodeString(hexPart)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	var id ID
	id.Type = t
	copy(id.Digest[:], raw)
	return id, nil
}

// Verify reports whether data hashes to id's digest, regardless of type tag.
// Used by fsck; never consulted by the object store's own Get/Put path.
func Verify(id ID, data []byte) bool {
	sum := blake3.Sum256(data)
	return sum == id.Digest
}

// Fanout returns the two two-hex-character directory segments used to shard
// object storage: the first four hex characters of the digest, split in
// half, e.g. "ab12..." -> ("ab", "12").
func (id ID) Fanout() (string, string) {
	h := hex.EncodeToString(id.Digest[:2])
	return h[:2], h[2:4]
}
