// Package objstore implements the core's object store: a persistent keyed
// bag of opaque bytes, fanned out on the local filesystem by object type and
// the first four hex characters of the digest.
//
// Writes are crash-safe: every Put goes to a temp file in the same fanout
// directory, then renames into place.
package objstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"dits/internal/ditserr"
	"dits/internal/logging"
	"dits/internal/objid"

	"github.com/google/uuid"
)

// PutResult reports whether Put wrote new bytes or found the id already
// resident.
type PutResult int

const (
	Stored PutResult = iota
	AlreadyPresent
)

// Store is a filesystem-backed object store rooted at a repository's
// <.dits>/objects directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// New creates a Store rooted at dir (typically "<.dits>/objects").
// The directory is not created here; callers create it as part of `init`.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{root: dir, logger: logging.Default(logger).With("component", "objstore")}
}

// PathFor returns the filesystem path at which id is (or would be) stored.
func (s *Store) PathFor(id objid.ID) string {
	a, b := id.Fanout()
	return filepath.Join(s.root, id.Type.Dir(), a, b, id.String())
}

// Exists reports whether an object with id is already stored.
func (s *Store) Exists(id objid.ID) bool {
	_, err := os.Stat(s.PathFor(id))
	return err == nil
}

// Put idempotently writes bytes under id. If an object with this id already
// exists, no bytes are written and AlreadyPresent is returned. The store
// does not verify that BLAKE3(data) == id.Digest; that is fsck's job.
func (s *Store) Put(id objid.ID, data []byte) (PutResult, error) {
	path := s.PathFor(id)
	if _, err := os.Stat(path); err == nil {
		return AlreadyPresent, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("objstore: stat %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("objstore: mkdir %s: %w", dir, err)
	}

	tmpName := filepath.Join(dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmpName, data, 0o444); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("objstore: write temp for %s: %w", id, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		// Another writer may have won the race; idempotent put tolerates it.
		if _, statErr := os.Stat(path); statErr == nil {
			return AlreadyPresent, nil
		}
		return 0, fmt.Errorf("objstore: rename into place for %s: %w", id, err)
	}
	s.logger.Debug("stored object", "id", id.String(), "bytes", len(data))
	return Stored, nil
}

// Get returns the exact stored bytes for id, or ErrNotFound.
func (s *Store) Get(id objid.ID) ([]byte, error) {
	data, err := os.ReadFile(s.PathFor(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("objstore: get %s: %w", id, ditserr.ErrNotFound)
		}
		return nil, fmt.Errorf("objstore: get %s: %w", id, err)
	}
	return data, nil
}

// Walk calls fn for every object currently stored, in no particular order.
// Used by fsck and by reachability-based statistics.
func (s *Store) Walk(fn func(id objid.ID, path string) error) error {
	for _, t := range []objid.Type{objid.Chunk, objid.Manifest, objid.Tree, objid.Commit} {
		base := filepath.Join(s.root, t.Dir())
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			name := d.Name()
			if len(name) > 0 && name[0] == '.' {
				return nil // temp file left behind by a crashed writer
			}
			id, perr := objid.Parse(name)
			if perr != nil {
				return fmt.Errorf("objstore: walk %s: %w", path, perr)
			}
			return fn(id, path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
