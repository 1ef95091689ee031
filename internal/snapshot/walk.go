package snapshot

import (
	"fmt"

	"dits/internal/classify"
	"dits/internal/manifest"
	"dits/internal/objid"
	"dits/internal/objstore"
)

// Walk yields commits starting at id in first-parent order, up to limit
// commits (0 means unlimited) "Walk".
func Walk(store *objstore.Store, start objid.ID, limit int, fn func(objid.ID, Commit) error) error {
	id := start
	count := 0
	for !id.IsZero() {
		if limit > 0 && count >= limit {
			return nil
		}
		c, err := LoadCommit(store, id)
		if err != nil {
			return fmt.Errorf("snapshot: walk %s: %w", id, err)
		}
		if err := fn(id, c); err != nil {
			return err
		}
		count++
		parents := c.ParentIDs()
		if len(parents) == 0 {
			return nil
		}
		id = parents[0]
	}
	return nil
}

// Reachable computes the full set of identifiers touched by walking
// commit -> tree -> manifests -> chunks from start. No cycles exist by construction (content addressing
// forbids them), so a single pass with a visited-commit set suffices.
type ReachableSet struct {
	Commits   map[objid.ID]bool
	Trees     map[objid.ID]bool
	Manifests map[objid.ID]bool
	Chunks    map[objid.ID]bool
}

func newReachableSet() ReachableSet {
	return ReachableSet{
		Commits:   make(map[objid.ID]bool),
		Trees:     make(map[objid.ID]bool),
		Manifests: make(map[objid.ID]bool),
		Chunks:    make(map[objid.ID]bool),
	}
}

// Reachable unions the transitive closure of everything reachable from
// start, following every parent, not just first-parent.
func Reachable(store *objstore.Store, start objid.ID) (ReachableSet, error) {
	set := newReachableSet()
	queue := []objid.ID{start}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id.IsZero() || set.Commits[id] {
			continue
		}
		c, err := LoadCommit(store, id)
		if err != nil {
			return ReachableSet{}, fmt.Errorf("snapshot: reachable %s: %w", id, err)
		}
		set.Commits[id] = true
		queue = append(queue, c.ParentIDs()...)

		treeID := c.TreeID()
		if set.Trees[treeID] {
			continue
		}
		tree, err := LoadTree(store, treeID)
		if err != nil {
			return ReachableSet{}, fmt.Errorf("snapshot: reachable tree %s: %w", treeID, err)
		}
		set.Trees[treeID] = true

		for _, e := range tree.Entries {
			if e.Strategy == classify.GitText {
				// GitText entries resolve through the text engine, not the
				// manifest store; e.Manifest holds a text-engine digest.
				continue
			}
			mID := objid.ID{Type: objid.Manifest, Digest: e.Manifest}
			if set.Manifests[mID] {
				continue
			}
			set.Manifests[mID] = true
			m, err := manifest.Load(store, mID)
			if err != nil {
				return ReachableSet{}, fmt.Errorf("snapshot: reachable manifest %s: %w", mID, err)
			}
			for _, c := range m.Chunks {
				set.Chunks[objid.ID{Type: objid.Chunk, Digest: c.Digest}] = true
			}
		}
	}
	return set, nil
}
