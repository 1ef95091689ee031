package snapshot

import (
	"errors"
	"testing"
	"time"

	"dits/internal/classify"
	"dits/internal/ditserr"
	"dits/internal/manifest"
	"dits/internal/objid"
	"dits/internal/objstore"
)

func newTestStore(t *testing.T) *objstore.Store {
	t.Helper()
	return objstore.New(t.TempDir(), nil)
}

func TestBuildTreeSortsAndValidates(t *testing.T) {
	entries := []TreeEntry{
		{Path: "z.bin", Strategy: classify.DitsChunk},
		{Path: "a.txt", Strategy: classify.GitText},
	}
	tr, err := BuildTree(entries)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Entries[0].Path != "a.txt" || tr.Entries[1].Path != "z.bin" {
		t.Fatalf("tree entries not sorted: %+v", tr.Entries)
	}
}

func TestBuildTreeRejectsDuplicatePath(t *testing.T) {
	entries := []TreeEntry{{Path: "a.txt"}, {Path: "a.txt"}}
	_, err := BuildTree(entries)
	if !errors.Is(err, ditserr.ErrDuplicatePath) {
		t.Fatalf("expected ErrDuplicatePath, got %v", err)
	}
}

func TestBuildTreeRejectsEscapingPath(t *testing.T) {
	entries := []TreeEntry{{Path: "../etc/passwd"}}
	_, err := BuildTree(entries)
	if !errors.Is(err, ditserr.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestTreeStoreAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	tr, err := BuildTree([]TreeEntry{{Path: "hello.txt", Strategy: classify.GitText}})
	if err != nil {
		t.Fatal(err)
	}
	id, err := StoreTree(store, tr)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadTree(store, id)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := loaded.Lookup("hello.txt"); !ok {
		t.Fatal("expected entry to round-trip")
	}
}

func TestCommitRoundTripAndWalk(t *testing.T) {
	store := newTestStore(t)
	tr, _ := BuildTree([]TreeEntry{{Path: "a.txt"}})
	treeID, err := StoreTree(store, tr)
	if err != nil {
		t.Fatal(err)
	}

	id := Identity{Name: "tester", Email: "tester@example.com"}
	first := NewCommit(treeID, nil, id, id, time.Unix(1000, 0), "first")
	firstID, err := StoreCommit(store, first)
	if err != nil {
		t.Fatal(err)
	}

	second := NewCommit(treeID, []objid.ID{firstID}, id, id, time.Unix(2000, 0), "second")
	secondID, err := StoreCommit(store, second)
	if err != nil {
		t.Fatal(err)
	}

	var seen []string
	err = Walk(store, secondID, 0, func(id objid.ID, c Commit) error {
		seen = append(seen, c.Message)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != "second" || seen[1] != "first" {
		t.Fatalf("unexpected walk order: %v", seen)
	}
}

func TestRefsSymbolicHeadAndAdvance(t *testing.T) {
	dir := t.TempDir()
	refs := NewRefs(dir)
	if err := refs.SetHeadSymbolic("main"); err != nil {
		t.Fatal(err)
	}

	h, err := refs.ReadHead()
	if err != nil {
		t.Fatal(err)
	}
	if h.Branch != "main" {
		t.Fatalf("expected symbolic HEAD at main, got %+v", h)
	}

	commit1 := objid.New(objid.Commit, []byte("commit-1"))
	if err := refs.AdvanceBranch(objid.ID{}, commit1); err != nil {
		t.Fatal(err)
	}
	got, err := refs.ResolveHead()
	if err != nil {
		t.Fatal(err)
	}
	if got != commit1 {
		t.Fatalf("ResolveHead = %v, want %v", got, commit1)
	}

	commit2 := objid.New(objid.Commit, []byte("commit-2"))
	if err := refs.AdvanceBranch(commit1, commit2); err != nil {
		t.Fatal(err)
	}
	got, _ = refs.ResolveHead()
	if got != commit2 {
		t.Fatalf("ResolveHead after advance = %v, want %v", got, commit2)
	}
}

func TestRefConflictOnStaleExpected(t *testing.T) {
	dir := t.TempDir()
	refs := NewRefs(dir)
	refs.SetHeadSymbolic("main")

	commit1 := objid.New(objid.Commit, []byte("commit-1"))
	stale := objid.New(objid.Commit, []byte("stale"))
	if err := refs.AdvanceBranch(objid.ID{}, commit1); err != nil {
		t.Fatal(err)
	}
	err := refs.AdvanceBranch(stale, objid.New(objid.Commit, []byte("commit-3")))
	if !errors.Is(err, ditserr.ErrRefConflict) {
		t.Fatalf("expected ErrRefConflict, got %v", err)
	}
}

func TestReachableCollectsEntireGraph(t *testing.T) {
	store := newTestStore(t)
	tr, _ := BuildTree(nil)
	treeID, err := StoreTree(store, tr)
	if err != nil {
		t.Fatal(err)
	}
	id := Identity{Name: "t", Email: "t@example.com"}
	c := NewCommit(treeID, nil, id, id, time.Unix(0, 0), "root")
	commitID, err := StoreCommit(store, c)
	if err != nil {
		t.Fatal(err)
	}

	set, err := Reachable(store, commitID)
	if err != nil {
		t.Fatal(err)
	}
	if !set.Commits[commitID] || !set.Trees[treeID] {
		t.Fatalf("reachable set missing expected members: %+v", set)
	}
}

func TestReachableSkipsGitTextEntries(t *testing.T) {
	store := newTestStore(t)

	m := manifest.FileManifest{
		DecompressedSize: 0,
		Chunks:           nil,
	}
	manifestID, err := manifest.Store(store, m)
	if err != nil {
		t.Fatal(err)
	}

	// The GitText entry's Manifest field holds a text-engine digest, not a
	// manifest id; Reachable must never try to load it as one.
	entries := []TreeEntry{
		{Path: "a.txt", Strategy: classify.GitText, Manifest: [32]byte{0xFF}},
		{Path: "b.bin", Strategy: classify.DitsChunk, Manifest: manifestID.Digest},
	}
	tr, err := BuildTree(entries)
	if err != nil {
		t.Fatal(err)
	}
	treeID, err := StoreTree(store, tr)
	if err != nil {
		t.Fatal(err)
	}
	id := Identity{Name: "t", Email: "t@example.com"}
	c := NewCommit(treeID, nil, id, id, time.Unix(0, 0), "root")
	commitID, err := StoreCommit(store, c)
	if err != nil {
		t.Fatal(err)
	}

	set, err := Reachable(store, commitID)
	if err != nil {
		t.Fatal(err)
	}
	if !set.Manifests[manifestID] {
		t.Fatalf("reachable set missing the real manifest: %+v", set)
	}
	if len(set.Manifests) != 1 {
		t.Fatalf("reachable set should not contain the GitText digest as a manifest: %+v", set.Manifests)
	}
}
