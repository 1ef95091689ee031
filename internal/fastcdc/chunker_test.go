package fastcdc

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

func deterministicBytes(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	r.Read(b)
	return b
}

func chunkAll(t *testing.T, data []byte, p Profile) ([]Descriptor, [][]byte) {
	t.Helper()
	c := New(bytes.NewReader(data), p)
	var descs []Descriptor
	var chunks [][]byte
	for {
		d, b, err := c.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		cp := append([]byte(nil), b...)
		descs = append(descs, d)
		chunks = append(chunks, cp)
	}
	return descs, chunks
}

func TestCoverageAndSizeLaw(t *testing.T) {
	data := deterministicBytes(5_000_000, 1)
	p := SmallProfile
	descs, chunks := chunkAll(t, data, p)
	if len(descs) == 0 {
		t.Fatal("expected at least one chunk")
	}

	var offset uint64
	var total int
	for i, d := range descs {
		if d.Offset != offset {
			t.Fatalf("chunk %d: offset %d, want %d", i, d.Offset, offset)
		}
		if d.Length != uint32(len(chunks[i])) {
			t.Fatalf("chunk %d: length %d != bytes %d", i, d.Length, len(chunks[i]))
		}
		isLast := i == len(descs)-1
		if !isLast && d.Length < p.Min {
			t.Fatalf("chunk %d: length %d below min %d", i, d.Length, p.Min)
		}
		if d.Length > p.Max {
			t.Fatalf("chunk %d: length %d above max %d", i, d.Length, p.Max)
		}
		offset += uint64(d.Length)
		total += len(chunks[i])
	}
	if total != len(data) {
		t.Fatalf("total chunked bytes %d != input %d", total, len(data))
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	data := deterministicBytes(2_000_000, 42)
	d1, _ := chunkAll(t, data, DefaultProfile)
	d2, _ := chunkAll(t, data, DefaultProfile)
	if len(d1) != len(d2) {
		t.Fatalf("chunk count differs across runs: %d vs %d", len(d1), len(d2))
	}
	for i := range d1 {
		if d1[i] != d2[i] {
			t.Fatalf("descriptor %d differs: %+v vs %+v", i, d1[i], d2[i])
		}
	}
}

func TestSingleByteEditLocalizesChange(t *testing.T) {
	data := deterministicBytes(3_000_000, 7)
	modified := append([]byte(nil), data...)
	modified[1_500_000] ^= 0xFF

	_, before := chunkAll(t, data, DefaultProfile)
	_, after := chunkAll(t, modified, DefaultProfile)

	beforeSet := map[string]bool{}
	for _, c := range before {
		beforeSet[string(c)] = true
	}
	changed := 0
	for _, c := range after {
		if !beforeSet[string(c)] {
			changed++
		}
	}
	// A single-byte flip should only perturb the chunk(s) touching it.
	if changed > 2 {
		t.Fatalf("single-byte edit changed %d chunks, want <= 2", changed)
	}
}

func TestEmptyInputYieldsNoChunks(t *testing.T) {
	descs, _ := chunkAll(t, nil, DefaultProfile)
	if len(descs) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(descs))
	}
}
