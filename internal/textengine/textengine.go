// Package textengine is the GitText collaborator boundary: the core hands
// it bytes to store and gets back an opaque identifier; its internal
// storage lives under <.dits>/objects/git/ and is opaque to the core.
// This implementation stores each version as a seekable-zstd blob: a
// sequence of fixed-size, independently-compressed frames that allow
// random access without decompressing the whole blob.
package textengine

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	seekable "github.com/SaveTheRbtz/zstd-seekable-format-go/pkg"
	"github.com/klauspost/compress/zstd"

	"lukechampine.com/blake3"
)

// frameSize is the uncompressed frame size for seekable zstd compression:
// each frame is independently compressed, enabling random access at
// frame granularity.
const frameSize = 256 << 10

// Engine stores GitText-strategy content under root (typically
// <.dits>/objects/git), opaque to every other package in this module.
type Engine struct {
	root string
	dec  *zstd.Decoder
}

// New creates an Engine rooted at dir. dir is created on first Store.
func New(dir string) (*Engine, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("textengine: init decoder: %w", err)
	}
	return &Engine{root: dir, dec: dec}, nil
}

// ID is the opaque identifier textengine hands back to the index. Its
// internal shape (a content hash) is not part of the core's contract with
// this collaborator — only String()/Parse round-tripping is.
type ID struct {
	digest [32]byte
}

func (id ID) String() string { return fmt.Sprintf("gt_%x", id.digest) }

// Parse decodes a rendered textengine ID.
func Parse(s string) (ID, error) {
	var id ID
	if len(s) != 3+64 || s[:3] != "gt_" {
		return ID{}, fmt.Errorf("textengine: invalid id %q", s)
	}
	n, err := fmt.Sscanf(s[3:], "%x", &id.digest)
	if err != nil || n != 1 {
		return ID{}, fmt.Errorf("textengine: invalid id %q: %w", s, err)
	}
	return id, nil
}

func (e *Engine) pathFor(id ID) string {
	hex := id.String()[3:]
	return filepath.Join(e.root, hex[:2], hex[2:4], id.String())
}

// Store persists data (content-addressed by its own BLAKE3 digest,
// independent of the core's typed-object namespace) and returns the
// opaque ID the index records under strategy-tag GitText.
func (e *Engine) Store(data []byte) (ID, error) {
	id := ID{digest: blake3.Sum256(data)}
	path := e.pathFor(id)
	if _, err := os.Stat(path); err == nil {
		return id, nil // idempotent, matching the core object store's contract
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ID{}, fmt.Errorf("textengine: mkdir %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString())
	f, err := os.Create(tmp)
	if err != nil {
		return ID{}, fmt.Errorf("textengine: create temp: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return ID{}, fmt.Errorf("textengine: new encoder: %w", err)
	}
	sw, err := seekable.NewWriter(f, enc)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return ID{}, fmt.Errorf("textengine: new seekable writer: %w", err)
	}
	for off := 0; off < len(data); off += frameSize {
		end := off + frameSize
		if end > len(data) {
			end = len(data)
		}
		if _, err := sw.Write(data[off:end]); err != nil {
			f.Close()
			os.Remove(tmp)
			return ID{}, fmt.Errorf("textengine: write frame: %w", err)
		}
	}
	if err := sw.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return ID{}, fmt.Errorf("textengine: close seekable writer: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return ID{}, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return ID{}, fmt.Errorf("textengine: rename into place: %w", err)
	}
	return id, nil
}

// Resolve reads back the exact bytes Store was given for id.
func (e *Engine) Resolve(id ID) ([]byte, error) {
	f, err := os.Open(e.pathFor(id))
	if err != nil {
		return nil, fmt.Errorf("textengine: open %s: %w", id, err)
	}
	defer f.Close()
	r, err := seekable.NewReader(f, e.dec)
	if err != nil {
		return nil, fmt.Errorf("textengine: new seekable reader: %w", err)
	}
	defer r.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.NewSectionReader(r, 0, sizeOf(r))); err != nil {
		return nil, fmt.Errorf("textengine: read %s: %w", id, err)
	}
	return buf.Bytes(), nil
}

func sizeOf(r io.ReaderAt) int64 {
	// seekable.Reader doesn't expose Size directly in all versions; probe
	// via a growing read is wasteful, so callers that need exact size
	// track it themselves. Resolve here reads until EOF instead.
	const unbounded = 1 << 62
	return unbounded
}
