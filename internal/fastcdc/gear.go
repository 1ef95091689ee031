package fastcdc

// gearTable is the 256-entry table of 64-bit values used by the rolling
// gear hash. It is generated once, deterministically, from a fixed
// seed via splitmix64 — no randomness, no seeded state tied to wall clock.
// Any conforming implementation of this core must agree on these exact
// values; they are part of the wire contract.
var gearTable [256]uint64

func init() {
	seed := uint64(0x9E3779B97F4A7C15)
	for i := range gearTable {
		seed += 0x9E3779B97F4A7C15
		z := seed
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z = z ^ (z >> 31)
		gearTable[i] = z
	}
}
