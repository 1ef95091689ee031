// Package ditserr defines the closed set of error kinds shared across the
// object store, manifest, index, and snapshot layers.
//
// Components wrap these sentinels with fmt.Errorf("...: %w", ...) so callers
// can still errors.Is against the kind while getting a human-readable
// message with the offending path or identifier.
package ditserr

import "errors"

var (
	// ErrNotFound is returned when an id, path, or ref lookup fails.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt marks an object whose bytes do not hash to its id, or a
	// manifest that violates coverage/contiguity. Only raised by
	// verification passes (fsck), never by Get.
	ErrCorrupt = errors.New("corrupt object")

	// ErrManifestInconsistent marks a coverage or chunk-existence failure
	// discovered during reconstruction. Fatal for the file, not the repo.
	ErrManifestInconsistent = errors.New("manifest inconsistent")

	// ErrInvalidPath marks a path rejected by tree build: starts with '/',
	// contains '..', or is empty.
	ErrInvalidPath = errors.New("invalid path")

	// ErrDuplicatePath marks a tree build with two entries for the same path.
	ErrDuplicatePath = errors.New("duplicate path")

	// ErrDecompressionBomb marks a transparent-decompression bound exceeded.
	ErrDecompressionBomb = errors.New("decompression bomb")

	// ErrUnsupportedVersion marks an on-disk version newer than this
	// implementation understands.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrRefConflict marks a ref that moved under us between check and write.
	ErrRefConflict = errors.New("ref conflict")

	// ErrIndexBusy marks a held index lockfile.
	ErrIndexBusy = errors.New("index busy")

	// ErrNothingToCommit marks an empty index at commit time.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrNotTracked marks a path operation (e.g. remove) on an entry the
	// index does not hold.
	ErrNotTracked = errors.New("path not tracked")
)
