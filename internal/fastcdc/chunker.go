// Package fastcdc implements the content-defined chunker: a
// streaming FastCDC cutter using a gear-based rolling hash and dual
// normalization masks to keep chunk sizes clustered around an average.
//
// No available library implements gear-hash FastCDC directly, so the
// cutting loop here is hand-written from the published algorithm. The
// surrounding shape — a pull-style iterator fed from an io.Reader, no
// goroutines, no channels, a Next()-driven cursor the caller pumps from
// a loop — follows this module's own record-cursor conventions rather
// than a generator that owns its own control flow.
package fastcdc

import (
	"bufio"
	"io"
	"math/bits"
)

// Profile bounds chunk sizes in bytes. Profiles are a property of the
// ingest pipeline (chosen by the detector/handler), not of the chunker.
type Profile struct {
	Min uint32
	Avg uint32
	Max uint32
}

var (
	DefaultProfile = Profile{Min: 128 << 10, Avg: 1 << 20, Max: 4 << 20}
	VideoProfile   = Profile{Min: 32 << 10, Avg: 64 << 10, Max: 256 << 10}
	SmallProfile   = Profile{Min: 2 << 10, Avg: 8 << 10, Max: 32 << 10}
)

// SQLiteProfile returns the page-multiple profile for a given SQLite page
// size.
func SQLiteProfile(pageSize uint32) Profile {
	return Profile{Min: pageSize, Avg: pageSize * 4, Max: pageSize * 16}
}

// maskPair derives the stricter (sub-average) and looser (above-average)
// normalization masks from the average chunk size: the stricter
// mask has more set bits (lower cut probability), the looser mask fewer.
func maskPair(avg uint32) (maskS, maskL uint64) {
	lg := bits.Len32(avg)
	if lg < 3 {
		lg = 3
	}
	maskS = (uint64(1) << uint(lg+1)) - 1
	maskL = (uint64(1) << uint(lg-1)) - 1
	return
}

// Descriptor identifies one chunk's position in the stream it was cut from.
// It carries no digest; callers hash the chunk bytes returned by Next with
// whatever content digest the caller's object model uses (objid.New here).
type Descriptor struct {
	Offset uint64
	Length uint32
}

// Chunker pulls bytes from an io.Reader and yields chunk boundaries one at
// a time via Next. It never requires the full input in memory: it buffers
// up to Profile.Max bytes of read-ahead plus at most Profile.Max bytes of
// the chunk being cut.
type Chunker struct {
	r       *bufio.Reader
	profile Profile
	maskS   uint64
	maskL   uint64
	offset  uint64
	buf     []byte
	eof     bool
}

// New creates a Chunker reading from r using the given size profile.
func New(r io.Reader, profile Profile) *Chunker {
	maskS, maskL := maskPair(profile.Avg)
	return &Chunker{
		r:       bufio.NewReaderSize(r, int(profile.Max)),
		profile: profile,
		maskS:   maskS,
		maskL:   maskL,
		buf:     make([]byte, 0, profile.Max),
	}
}

// Next returns the next chunk's descriptor and bytes, or io.EOF once the
// stream is exhausted. The returned byte slice is only valid until the
// next call to Next.
func (c *Chunker) Next() (Descriptor, []byte, error) {
	if c.eof && len(c.buf) == 0 {
		return Descriptor{}, nil, io.EOF
	}

	c.buf = c.buf[:0]
	var hash uint64
	cut := -1

	for uint32(len(c.buf)) < c.profile.Max {
		b, err := c.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				c.eof = true
				break
			}
			return Descriptor{}, nil, err
		}
		c.buf = append(c.buf, b)
		p := uint32(len(c.buf))

		hash = (hash << 1) + gearTable[b]

		if p < c.profile.Min {
			continue
		}
		var mask uint64
		if p < c.profile.Avg {
			mask = c.maskS
		} else {
			mask = c.maskL
		}
		if hash&mask == 0 {
			cut = int(p)
			break
		}
	}

	if len(c.buf) == 0 {
		return Descriptor{}, nil, io.EOF
	}

	if cut < 0 {
		cut = len(c.buf) // forced cut at max_size, or a short final chunk at EOF
	}

	out := c.buf[:cut]
	desc := Descriptor{Offset: c.offset, Length: uint32(cut)}
	c.offset += uint64(cut)

	// Any bytes read past the cut point (impossible here since we stop
	// reading exactly at the cut) would need to roll over; ReadByte-driven
	// scanning means cut always equals len(c.buf), so there is nothing to
	// carry forward.
	return desc, out, nil
}
