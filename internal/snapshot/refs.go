package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dits/internal/ditserr"
	"dits/internal/objid"

	"github.com/google/uuid"
)

// symbolicPrefix marks HEAD as a symbolic ref rather than a detached
// commit id.
const symbolicPrefix = "ref: "

// Refs manages the named mutable pointers under <.dits>/: HEAD,
// refs/heads/*, refs/tags/*. Every write is a single atomic file
// replacement (temp file, then rename), applied here to one-line ref
// files instead of a structured config envelope.
type Refs struct {
	root string // <.dits>
}

// NewRefs returns a Refs rooted at the repository's <.dits> directory.
func NewRefs(root string) *Refs {
	return &Refs{root: root}
}

func (r *Refs) headPath() string { return filepath.Join(r.root, "HEAD") }

func (r *Refs) refPath(name string) (string, error) {
	if strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("refs: invalid ref name %q: %w", name, ditserr.ErrInvalidPath)
	}
	return filepath.Join(r.root, filepath.FromSlash(name)), nil
}

// writeAtomic replaces path's contents via temp-file-then-rename.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("refs: mkdir %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("refs: write temp for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("refs: rename into place for %s: %w", path, err)
	}
	return nil
}

func readRefFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("refs: read %s: %w", path, ditserr.ErrNotFound)
		}
		return "", fmt.Errorf("refs: read %s: %w", path, err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// HeadState is the parsed form of HEAD: either a symbolic ref to a branch
// or a detached commit id.
type HeadState struct {
	Branch string  // non-empty when symbolic
	Commit objid.ID // set only when detached; ResolveHead follows Branch
}

// ReadHead parses <.dits>/HEAD.
func (r *Refs) ReadHead() (HeadState, error) {
	raw, err := readRefFile(r.headPath())
	if err != nil {
		return HeadState{}, err
	}
	if strings.HasPrefix(raw, symbolicPrefix) {
		branch := strings.TrimPrefix(raw, symbolicPrefix)
		return HeadState{Branch: branch}, nil
	}
	id, err := objid.Parse(raw)
	if err != nil {
		return HeadState{}, fmt.Errorf("refs: HEAD: %w", err)
	}
	return HeadState{Commit: id}, nil
}

// SetHeadSymbolic points HEAD at a branch ref without requiring it to
// already exist (used by `init`).
func (r *Refs) SetHeadSymbolic(branch string) error {
	return writeAtomic(r.headPath(), []byte(symbolicPrefix+"refs/heads/"+branch+"\n"))
}

// SetHeadDetached points HEAD directly at a commit id.
func (r *Refs) SetHeadDetached(id objid.ID) error {
	return writeAtomic(r.headPath(), []byte(id.String()+"\n"))
}

// ResolveHead returns the commit id HEAD currently points at, following a
// symbolic ref through refs/heads/ if necessary.
func (r *Refs) ResolveHead() (objid.ID, error) {
	h, err := r.ReadHead()
	if err != nil {
		return objid.ID{}, err
	}
	if h.Branch == "" {
		return h.Commit, nil
	}
	return r.GetRef("refs/heads/" + h.Branch)
}

// GetRef reads the commit id stored at name, a ref path relative to
// <.dits> such as "refs/heads/main" or "refs/tags/v1".
func (r *Refs) GetRef(name string) (objid.ID, error) {
	path, err := r.refPath(name)
	if err != nil {
		return objid.ID{}, err
	}
	raw, err := readRefFile(path)
	if err != nil {
		return objid.ID{}, err
	}
	return objid.Parse(raw)
}

// SetRef writes name's target commit id under compare-and-swap
// semantics: if expected is non-zero, the write fails with ErrRefConflict
// when the ref's current value differs from expected. This check-then-
// write is not itself locked here; callers serialize via the index lock
// or an equivalent single-writer discipline.
func (r *Refs) SetRef(name string, expected, next objid.ID) error {
	path, err := r.refPath(name)
	if err != nil {
		return err
	}
	if !expected.IsZero() {
		current, err := r.GetRef(name)
		if err != nil && !errors.Is(err, ditserr.ErrNotFound) {
			return err
		}
		if err == nil && current != expected {
			return fmt.Errorf("refs: %s moved: %w", name, ditserr.ErrRefConflict)
		}
	}
	return writeAtomic(path, []byte(next.String()+"\n"))
}

// AdvanceBranch advances the branch HEAD currently points at from parent
// to next, or creates it if this is the first commit on that branch
// (parent is the zero ID). Fails with ErrRefConflict if HEAD is detached.
func (r *Refs) AdvanceBranch(parent, next objid.ID) error {
	h, err := r.ReadHead()
	if err != nil {
		return err
	}
	if h.Branch == "" {
		return fmt.Errorf("refs: HEAD is detached, cannot advance a branch: %w", ditserr.ErrRefConflict)
	}
	return r.SetRef("refs/heads/"+h.Branch, parent, next)
}
