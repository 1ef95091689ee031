// Package ignore implements the untracked-path glob list: one pattern per
// line, later lines overriding earlier matches, negation via a leading '!'.
package ignore

import (
	"bufio"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// rule is one parsed line: a glob pattern and whether it negates a prior
// match (leading '!').
type rule struct {
	pattern string
	negate  bool
}

// List is a parsed ignore file. Rules are applied in file order; a later
// matching rule overrides an earlier one, matching conventional .gitignore
// semantics.
type List struct {
	rules []rule
}

// Load parses the glob list at path. A missing file yields an empty List,
// since an ignore file is optional.
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &List{}, nil
		}
		return nil, err
	}
	defer f.Close()

	var l List
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		negate := strings.HasPrefix(line, "!")
		if negate {
			line = line[1:]
		}
		l.rules = append(l.rules, rule{pattern: line, negate: negate})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &l, nil
}

// controlDirGlob is always ignored regardless of the ignore file's
// contents.
const controlDirGlob = ".dits/**"

// Match reports whether path (forward-slashed, repository-relative)
// should be excluded from untracked/status consideration.
func (l *List) Match(path string) bool {
	if ok, _ := doublestar.Match(controlDirGlob, path); ok {
		return true
	}
	if strings.HasPrefix(path, ".dits/") || path == ".dits" {
		return true
	}
	if l == nil {
		return false
	}

	ignored := false
	for _, r := range l.rules {
		matched, _ := doublestar.Match(r.pattern, path)
		if !matched && !strings.HasSuffix(r.pattern, "/**") {
			matched, _ = doublestar.Match(r.pattern+"/**", path)
		}
		if matched {
			ignored = !r.negate
		}
	}
	return ignored
}
