package repo

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"dits/internal/config"
	"dits/internal/objid"
	"dits/internal/snapshot"
	"dits/internal/stage"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	dir := t.TempDir()
	r, err := Init(dir, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	r.Config.User = config.User{Name: "tester", Email: "tester@example.com"}
	if err := config.Save(filepath.Join(r.DotDir, "config"), r.Config); err != nil {
		t.Fatal(err)
	}
	return r
}

func writeFile(t *testing.T, dir, rel string, data []byte) {
	t.Helper()
	abs := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestInitCreatesLayout(t *testing.T) {
	r := openTestRepo(t)
	for _, d := range []string{"objects/chunk", "objects/manifest", "objects/tree", "objects/commit", "objects/git", "refs/heads"} {
		if _, err := os.Stat(filepath.Join(r.DotDir, d)); err != nil {
			t.Fatalf("expected %s to exist: %v", d, err)
		}
	}
}

func TestAddCommitCheckoutRoundTrip(t *testing.T) {
	r := openTestRepo(t)
	payload := bytes.Repeat([]byte("large-media-payload-"), 50000)
	writeFile(t, r.WorkDir, "footage.bin", payload)

	results, err := r.Add(context.Background(), []string{"footage.bin"})
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range results {
		if res.Err != nil {
			t.Fatalf("add %s: %v", res.Path, res.Err)
		}
	}

	commitID, err := r.Commit("first snapshot")
	if err != nil {
		t.Fatal(err)
	}

	idx, err := r.LoadIndex()
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 0 {
		t.Fatalf("expected index cleared after commit, got %d entries", idx.Len())
	}

	if err := os.Remove(filepath.Join(r.WorkDir, "footage.bin")); err != nil {
		t.Fatal(err)
	}
	if err := r.Checkout(commitID); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(r.WorkDir, "footage.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("checked-out bytes do not match the original payload")
	}
}

func TestAddCommitCheckoutGitTextFile(t *testing.T) {
	r := openTestRepo(t)
	writeFile(t, r.WorkDir, "notes.txt", []byte("line one\nline two\nline three\n"))

	if _, err := r.Add(context.Background(), []string{"notes.txt"}); err != nil {
		t.Fatal(err)
	}
	commitID, err := r.Commit("add notes")
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(r.WorkDir, "notes.txt")); err != nil {
		t.Fatal(err)
	}
	if err := r.Checkout(commitID); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(r.WorkDir, "notes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "line one\nline two\nline three\n" {
		t.Fatalf("unexpected roundtrip content: %q", got)
	}
}

func TestSecondCommitDedupsAgainstFirst(t *testing.T) {
	r := openTestRepo(t)
	payload := bytes.Repeat([]byte("identical-bytes-across-commits-"), 20000)
	writeFile(t, r.WorkDir, "a.bin", payload)
	if _, err := r.Add(context.Background(), []string{"a.bin"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Commit("first"); err != nil {
		t.Fatal(err)
	}

	writeFile(t, r.WorkDir, "b.bin", payload)
	if _, err := r.Add(context.Background(), []string{"b.bin"}); err != nil {
		t.Fatal(err)
	}
	commitID, err := r.Commit("second")
	if err != nil {
		t.Fatal(err)
	}

	d, err := r.Stats(commitID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Ratio >= 1.0 {
		t.Fatalf("expected dedup ratio below 1 for identical files, got %f", d.Ratio)
	}
}

func TestCommitWithEmptyIndexFails(t *testing.T) {
	r := openTestRepo(t)
	if _, err := r.Commit("nothing"); err == nil {
		t.Fatal("expected an error committing an empty index")
	}
}

func TestStatusReportsUntrackedThenAdded(t *testing.T) {
	r := openTestRepo(t)
	writeFile(t, r.WorkDir, "a.bin", []byte("some content"))

	entries, err := r.Status()
	if err != nil {
		t.Fatal(err)
	}
	if !hasStatus(entries, "a.bin", stage.Untracked) {
		t.Fatalf("expected a.bin untracked, got %v", entries)
	}

	if _, err := r.Add(context.Background(), []string{"a.bin"}); err != nil {
		t.Fatal(err)
	}
	entries, err = r.Status()
	if err != nil {
		t.Fatal(err)
	}
	if !hasStatus(entries, "a.bin", stage.Added) {
		t.Fatalf("expected a.bin added, got %v", entries)
	}
}

func hasStatus(entries []stage.StatusEntry, path string, want stage.Status) bool {
	for _, e := range entries {
		if e.Path == path && e.Status == want {
			return true
		}
	}
	return false
}

func TestFsckHealthyFreshRepo(t *testing.T) {
	r := openTestRepo(t)
	writeFile(t, r.WorkDir, "a.bin", []byte("some content"))
	if _, err := r.Add(context.Background(), []string{"a.bin"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Commit("first"); err != nil {
		t.Fatal(err)
	}
	if errs := r.Fsck(); len(errs) != 0 {
		t.Fatalf("expected a healthy repo, got %v", errs)
	}
}

func TestLogWalksCommitsFirstParent(t *testing.T) {
	r := openTestRepo(t)
	writeFile(t, r.WorkDir, "a.bin", []byte("v1"))
	if _, err := r.Add(context.Background(), []string{"a.bin"}); err != nil {
		t.Fatal(err)
	}
	first, err := r.Commit("v1")
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, r.WorkDir, "a.bin", []byte("v2"))
	if _, err := r.Add(context.Background(), []string{"a.bin"}); err != nil {
		t.Fatal(err)
	}
	second, err := r.Commit("v2")
	if err != nil {
		t.Fatal(err)
	}

	head, err := r.Refs.ResolveHead()
	if err != nil {
		t.Fatal(err)
	}
	if head != second {
		t.Fatalf("expected HEAD to be the second commit")
	}

	var seenFirst bool
	count := 0
	err = r.Log(head, 0, func(id objid.ID, _ snapshot.Commit) error {
		count++
		if id == first {
			seenFirst = true
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 commits walked, got %d", count)
	}
	if !seenFirst {
		t.Fatal("expected the first commit to appear in the walk")
	}
}
