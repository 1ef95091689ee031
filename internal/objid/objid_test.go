package objid

import "testing"

func TestNewIsDeterministic(t *testing.T) {
	a := New(Chunk, []byte("Hello\n"))
	b := New(Chunk, []byte("Hello\n"))
	if a != b {
		t.Fatalf("expected identical ids for identical bytes, got %s vs %s", a, b)
	}
}

func TestStringRoundTrip(t *testing.T) {
	id := New(Manifest, []byte("some file contents"))
	s := id.String()
	if len(s) != 3+DigestSize*2 {
		t.Fatalf("unexpected string length: %d", len(s))
	}
	parsed, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed != id {
		t.Fatalf("round trip mismatch: %s vs %s", parsed, id)
	}
}

func TestPrefixes(t *testing.T) {
	cases := []struct {
		t    Type
		want string
	}{
		{Chunk, "ch_"},
		{Manifest, "mf_"},
		{Tree, "tr_"},
		{Commit, "cm_"},
	}
	for _, c := range cases {
		id := New(c.t, []byte("x"))
		s := id.String()
		if s[:3] != c.want {
			t.Errorf("type %v: want prefix %q, got %q", c.t, c.want, s[:3])
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "xx_abc", "ch_", "ch_zzzz"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", s)
		}
	}
}

func TestVerify(t *testing.T) {
	data := []byte("payload")
	id := New(Chunk, data)
	if !Verify(id, data) {
		t.Fatal("expected Verify to succeed on matching bytes")
	}
	if Verify(id, []byte("tampered")) {
		t.Fatal("expected Verify to fail on tampered bytes")
	}
}
