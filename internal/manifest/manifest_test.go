package manifest

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"dits/internal/container"
	"dits/internal/ditserr"
	"dits/internal/fastcdc"
	"dits/internal/objstore"

	"lukechampine.com/blake3"
)

func newTestStore(t *testing.T) *objstore.Store {
	t.Helper()
	return objstore.New(t.TempDir(), nil)
}

func TestBuildAndReconstructRoundTrip(t *testing.T) {
	store := newTestStore(t)
	want := []byte("Hello\n")

	m, err := Build(store, bytes.NewReader(want), int64(len(want)), container.FormatInfo{Outer: container.Generic}, 0o644, time.Unix(0, 0), BuildOptions{
		Profile:           fastcdc.SmallProfile,
		ComputeFileDigest: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Chunks) != 1 {
		t.Fatalf("expected exactly one chunk for a 6-byte file, got %d", len(m.Chunks))
	}
	wantDigest := blake3.Sum256(want)
	if m.Chunks[0].Digest != wantDigest {
		t.Fatalf("chunk digest mismatch")
	}

	var out bytes.Buffer
	if err := Reconstruct(store, m, &out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("reconstructed bytes mismatch: got %q want %q", out.Bytes(), want)
	}
}

func TestBuildPersistsManifestAndIsLoadable(t *testing.T) {
	store := newTestStore(t)
	data := bytes.Repeat([]byte("abcdefgh"), 100000)

	m, err := Build(store, bytes.NewReader(data), int64(len(data)), container.FormatInfo{Outer: container.Generic}, 0o644, time.Now(), BuildOptions{Profile: fastcdc.DefaultProfile})
	if err != nil {
		t.Fatal(err)
	}
	id, err := Store(store, m)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(store, id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.DecompressedSize != uint64(len(data)) {
		t.Fatalf("loaded manifest size mismatch")
	}

	var out bytes.Buffer
	if err := Reconstruct(store, loaded, &out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatalf("reconstructed bytes mismatch after reload")
	}
}

func TestCoverageGapIsRejected(t *testing.T) {
	m := FileManifest{
		DecompressedSize: 10,
		Chunks: []ChunkRef{
			{Offset: 0, Length: 4},
			{Offset: 5, Length: 5}, // gap at byte 4
		},
	}
	if err := CheckCoverage(m); err == nil {
		t.Fatal("expected coverage error")
	} else if !errors.Is(err, ditserr.ErrManifestInconsistent) {
		t.Fatalf("expected ditserr.ErrManifestInconsistent, got %v", err)
	}
}

func TestReconstructFailsOnMissingChunk(t *testing.T) {
	store := newTestStore(t)
	m := FileManifest{
		DecompressedSize: 5,
		Chunks:           []ChunkRef{{Offset: 0, Length: 5, Digest: blake3.Sum256([]byte("hello"))}},
	}
	var out bytes.Buffer
	if err := Reconstruct(store, m, &out); err == nil {
		t.Fatal("expected error reconstructing from empty store")
	}
}
