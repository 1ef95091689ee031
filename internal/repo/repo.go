// Package repo wires the object store, classifier, chunker/decompressor
// pipeline, index, and snapshot layer into the repository operations the
// command-line surface drives: init, add, remove, status, commit,
// checkout, log, fsck, stats.
package repo

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dits/internal/config"
	"dits/internal/ditserr"
	"dits/internal/ignore"
	"dits/internal/logging"
	"dits/internal/objid"
	"dits/internal/objstore"
	"dits/internal/snapshot"
	"dits/internal/stage"
	"dits/internal/textengine"
)

// ControlDirName is the repository metadata directory name, "<.dits>" in
// the spec's notation.
const ControlDirName = ".dits"

// Repository is one repository's on-disk layout and the services layered
// over it.
type Repository struct {
	WorkDir string
	DotDir  string

	Store   *objstore.Store
	Refs    *snapshot.Refs
	Text    *textengine.Engine
	Config  config.Config
	Ignore  *ignore.List
	logger  *slog.Logger
}

// Init creates a new repository rooted at workDir.
func Init(workDir string, logger *slog.Logger) (*Repository, error) {
	dot := filepath.Join(workDir, ControlDirName)
	if _, err := os.Stat(dot); err == nil {
		return nil, fmt.Errorf("repo: %s already exists", dot)
	}

	for _, d := range []string{
		"objects/chunk", "objects/manifest", "objects/tree", "objects/commit", "objects/git",
		"refs/heads", "refs/tags",
	} {
		if err := os.MkdirAll(filepath.Join(dot, d), 0o755); err != nil {
			return nil, fmt.Errorf("repo: init: %w", err)
		}
	}

	refs := snapshot.NewRefs(dot)
	if err := refs.SetHeadSymbolic("main"); err != nil {
		return nil, fmt.Errorf("repo: init HEAD: %w", err)
	}

	cfg := config.Default()
	if err := config.Save(filepath.Join(dot, "config"), cfg); err != nil {
		return nil, fmt.Errorf("repo: init config: %w", err)
	}

	return Open(workDir, logger)
}

// Open loads an existing repository rooted at workDir.
func Open(workDir string, logger *slog.Logger) (*Repository, error) {
	dot := filepath.Join(workDir, ControlDirName)
	if _, err := os.Stat(dot); err != nil {
		return nil, fmt.Errorf("repo: open %s: %w", dot, ditserr.ErrNotFound)
	}

	cfg, err := config.Load(filepath.Join(dot, "config"))
	if err != nil {
		return nil, fmt.Errorf("repo: load config: %w", err)
	}

	ign, err := ignore.Load(filepath.Join(workDir, cfg.Ignore.File))
	if err != nil {
		return nil, fmt.Errorf("repo: load ignore: %w", err)
	}

	logger = logging.Default(logger).With("component", "repo")

	text, err := textengine.New(filepath.Join(dot, "objects", "git"))
	if err != nil {
		return nil, fmt.Errorf("repo: init text engine: %w", err)
	}

	return &Repository{
		WorkDir: workDir,
		DotDir:  dot,
		Store:   objstore.New(filepath.Join(dot, "objects"), logger),
		Refs:    snapshot.NewRefs(dot),
		Text:    text,
		Config:  cfg,
		Ignore:  ign,
		logger:  logger,
	}, nil
}

// indexPath is the durable location of the staging Index.
func (r *Repository) indexPath() string {
	return filepath.Join(r.DotDir, "index")
}

// LoadIndex loads the repository's current staging Index.
func (r *Repository) LoadIndex() (*stage.Index, error) {
	return stage.Load(r.indexPath())
}

// HeadTree resolves HEAD to its commit's tree, or the empty Tree if the
// repository has no commits yet.
func (r *Repository) HeadTree() (snapshot.Tree, objid.ID, error) {
	commitID, err := r.Refs.ResolveHead()
	if err != nil {
		if errors.Is(err, ditserr.ErrNotFound) {
			return snapshot.Tree{}, objid.ID{}, nil
		}
		return snapshot.Tree{}, objid.ID{}, err
	}
	if commitID.IsZero() {
		return snapshot.Tree{}, objid.ID{}, nil
	}
	c, err := snapshot.LoadCommit(r.Store, commitID)
	if err != nil {
		return snapshot.Tree{}, objid.ID{}, err
	}
	tree, err := snapshot.LoadTree(r.Store, c.TreeID())
	if err != nil {
		return snapshot.Tree{}, objid.ID{}, err
	}
	return tree, commitID, nil
}

// now is a seam for deterministic commit timestamps in tests.
var now = time.Now
