// Package stage implements the index (staging area): an ordered
// mapping path -> {manifest-id, storage-strategy-tag, stat-cache}, durable
// between CLI invocations. The persisted form uses msgpack, applied here
// to the index's own small record type.
package stage

import (
	"fmt"
	"os"
	"sort"

	"dits/internal/classify"
	"dits/internal/ditserr"
	"dits/internal/objid"

	"github.com/vmihailenco/msgpack/v5"
)

// StatCache records the working-tree file attributes observed the last
// time this entry was staged, used to short-circuit re-hashing unchanged
// files during status computation.
type StatCache struct {
	ModTime int64 `msgpack:"mtime"`
	Size    int64 `msgpack:"size"`
	Mode    uint32 `msgpack:"mode"`
}

// Entry is one path's staged state.
type Entry struct {
	Path     string            `msgpack:"path"`
	Manifest objid.ID          `msgpack:"-"`
	Strategy classify.Strategy `msgpack:"strategy"`
	Stat     StatCache         `msgpack:"stat"`

	// ManifestText is Manifest's rendered form, the only part msgpack
	// encodes directly; Manifest itself is excluded from encoding and is
	// parsed back from this text on load.
	ManifestText string `msgpack:"manifest"`
}

func (e *Entry) beforeEncode() error {
	// GitText entries carry the text engine's own "gt_"-prefixed id in
	// ManifestText directly; it is not an objid.ID and Manifest is left
	// zero for them.
	if e.Strategy == classify.GitText {
		return nil
	}
	e.ManifestText = e.Manifest.String()
	return nil
}

func (e *Entry) afterDecode() error {
	if e.Strategy == classify.GitText || e.ManifestText == "" {
		return nil
	}
	id, err := objid.Parse(e.ManifestText)
	if err != nil {
		return err
	}
	e.Manifest = id
	return nil
}

// Index holds the next commit's logical state in path order.
type Index struct {
	path    string
	entries map[string]Entry
}

const schemaVersion = 1

type onDisk struct {
	Version int     `msgpack:"version"`
	Entries []Entry `msgpack:"entries"`
}

// New returns an empty Index backed by path (typically <.dits>/index).
func New(path string) *Index {
	return &Index{path: path, entries: make(map[string]Entry)}
}

// Load reads the Index from disk, or returns an empty Index if path does
// not yet exist (freshly initialized repository).
func Load(path string) (*Index, error) {
	idx := New(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("stage: read %s: %w", path, err)
	}
	var d onDisk
	if err := msgpack.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("stage: decode %s: %w", path, err)
	}
	if d.Version > schemaVersion {
		return nil, fmt.Errorf("stage: index version %d: %w", d.Version, ditserr.ErrUnsupportedVersion)
	}
	for _, e := range d.Entries {
		if err := e.afterDecode(); err != nil {
			return nil, fmt.Errorf("stage: decode entry %s: %w", e.Path, err)
		}
		idx.entries[e.Path] = e
	}
	return idx, nil
}

// Save persists the Index atomically (temp-file-then-rename).
func (idx *Index) Save() error {
	d := onDisk{Version: schemaVersion}
	for _, e := range idx.entries {
		if err := e.beforeEncode(); err != nil {
			return err
		}
		d.Entries = append(d.Entries, e)
	}
	sort.Slice(d.Entries, func(i, j int) bool { return d.Entries[i].Path < d.Entries[j].Path })

	data, err := msgpack.Marshal(d)
	if err != nil {
		return fmt.Errorf("stage: encode index: %w", err)
	}
	return writeAtomic(idx.path, data)
}

// Add inserts or replaces the entry for path.
func (idx *Index) Add(e Entry) {
	idx.entries[e.Path] = e
}

// Remove deletes path's entry, failing with ErrNotTracked if absent.
func (idx *Index) Remove(path string) error {
	if _, ok := idx.entries[path]; !ok {
		return fmt.Errorf("stage: remove %s: %w", path, ditserr.ErrNotTracked)
	}
	delete(idx.entries, path)
	return nil
}

// Get returns path's entry, if present.
func (idx *Index) Get(path string) (Entry, bool) {
	e, ok := idx.entries[path]
	return e, ok
}

// Iter returns every entry, sorted by path.
func (idx *Index) Iter() []Entry {
	out := make([]Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Clear empties the index (called after a successful commit that does not
// retain staged entries).
func (idx *Index) Clear() {
	idx.entries = make(map[string]Entry)
}

// Len reports the number of staged entries.
func (idx *Index) Len() int { return len(idx.entries) }
