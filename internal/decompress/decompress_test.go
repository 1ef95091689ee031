package decompress

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"dits/internal/container"

	"github.com/klauspost/compress/zstd"
)

func TestGzipRoundTrip(t *testing.T) {
	var src bytes.Buffer
	gw := gzip.NewWriter(&src)
	gw.Name = "payload.bin"
	want := bytes.Repeat([]byte("gastro-dits-payload"), 500)
	if _, err := gw.Write(want); err != nil {
		t.Fatal(err)
	}
	gw.Close()

	res, err := Decompress(bytes.NewReader(src.Bytes()), int64(src.Len()), container.FormatInfo{Outer: container.GZip}, DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(res.Stream)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("decompressed mismatch")
	}

	var out bytes.Buffer
	if err := Recompress(bytes.NewReader(got), res.Recipe, &out); err != nil {
		t.Fatal(err)
	}
	gr, err := gzip.NewReader(&out)
	if err != nil {
		t.Fatal(err)
	}
	roundTrip, err := io.ReadAll(gr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(roundTrip, want) {
		t.Fatalf("recompressed round trip mismatch")
	}
}

func TestZstdRoundTrip(t *testing.T) {
	want := bytes.Repeat([]byte("zstd-payload-data"), 800)
	var src bytes.Buffer
	enc, err := zstd.NewWriter(&src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Write(want); err != nil {
		t.Fatal(err)
	}
	enc.Close()

	res, err := Decompress(bytes.NewReader(src.Bytes()), int64(src.Len()), container.FormatInfo{Outer: container.Zstandard}, DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(res.Stream)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("decompressed mismatch")
	}
}

func TestZipConcatenatesEntriesInArchiveOrder(t *testing.T) {
	var src bytes.Buffer
	zw := zip.NewWriter(&src)
	w1, _ := zw.Create("b.txt")
	w1.Write([]byte("second"))
	w2, _ := zw.Create("a.txt")
	w2.Write([]byte("first"))
	zw.Close()

	res, err := Decompress(bytes.NewReader(src.Bytes()), int64(src.Len()), container.FormatInfo{Outer: container.Zip}, DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(res.Stream)
	if err != nil {
		t.Fatal(err)
	}
	// b.txt precedes a.txt in the archive; alphabetical resorting would
	// yield "firstsecond" instead.
	if string(got) != "secondfirst" {
		t.Fatalf("got %q, want archive-order concatenation %q", got, "secondfirst")
	}
	if len(res.Recipe.ZipEntries) != 2 || res.Recipe.ZipEntries[0].Name != "b.txt" || res.Recipe.ZipEntries[1].Name != "a.txt" {
		t.Fatalf("unexpected zip entry recipe: %+v", res.Recipe.ZipEntries)
	}
}

func TestZipBombRejectedAcrossEntries(t *testing.T) {
	var src bytes.Buffer
	zw := zip.NewWriter(&src)
	for _, name := range []string{"one.bin", "two.bin", "three.bin"} {
		w, _ := zw.Create(name)
		w.Write(bytes.Repeat([]byte{0}, 1<<20))
	}
	zw.Close()

	// Each entry alone is under the ceiling, but the three together exceed
	// it; the shared accumulator must catch the cumulative total.
	opts := Options{MaxDecompressedBytes: 2 << 20, MaxRatio: 1000}
	_, err := Decompress(bytes.NewReader(src.Bytes()), int64(src.Len()), container.FormatInfo{Outer: container.Zip}, opts)
	if err == nil {
		t.Fatal("expected decompression bomb error across entries")
	}
}

func TestDirectPassthroughForGeneric(t *testing.T) {
	want := []byte("plain bytes, no container")
	res, err := Decompress(bytes.NewReader(want), int64(len(want)), container.FormatInfo{Outer: container.Generic}, DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(res.Stream)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("direct passthrough mutated bytes")
	}
	if res.Recipe.Kind != Direct {
		t.Fatalf("expected Direct recipe, got %v", res.Recipe.Kind)
	}
}

func TestDecompressionBombRejected(t *testing.T) {
	var src bytes.Buffer
	gw := gzip.NewWriter(&src)
	// Highly compressible: 10 MiB of zeros trips the 10:1 ratio ceiling
	// long before the 1 GiB absolute ceiling could.
	gw.Write(bytes.Repeat([]byte{0}, 10<<20))
	gw.Close()

	opts := Options{MaxDecompressedBytes: 1 << 30, MaxRatio: 10}
	res, err := Decompress(bytes.NewReader(src.Bytes()), int64(src.Len()), container.FormatInfo{Outer: container.GZip}, opts)
	if err != nil {
		t.Fatal(err)
	}
	_, err = io.ReadAll(res.Stream)
	if err == nil {
		t.Fatal("expected decompression bomb error")
	}
}
