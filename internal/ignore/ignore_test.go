package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func writeIgnore(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".ditsignore")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMissingFileYieldsEmptyList(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatal(err)
	}
	if l.Match("anything.txt") {
		t.Fatal("empty list should not match")
	}
}

func TestControlDirAlwaysIgnored(t *testing.T) {
	l, _ := Load(filepath.Join(t.TempDir(), "missing"))
	if !l.Match(".dits/HEAD") {
		t.Fatal(".dits/** must always be ignored")
	}
}

func TestBasicGlobMatch(t *testing.T) {
	path := writeIgnore(t, "*.tmp\nbuild/**\n")
	l, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !l.Match("scratch.tmp") {
		t.Fatal("expected *.tmp to match")
	}
	if !l.Match("build/output.bin") {
		t.Fatal("expected build/** to match")
	}
	if l.Match("src/main.go") {
		t.Fatal("unexpected match")
	}
}

func TestNegationOverridesEarlierMatch(t *testing.T) {
	path := writeIgnore(t, "*.bin\n!keep.bin\n")
	l, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if l.Match("keep.bin") {
		t.Fatal("negated pattern should un-ignore keep.bin")
	}
	if !l.Match("other.bin") {
		t.Fatal("expected other.bin to remain ignored")
	}
}
