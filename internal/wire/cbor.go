// Package wire provides the deterministic CBOR encoding used for every
// on-disk object: a single canonical EncMode shared by every caller,
// rather than per-type encoding logic.
package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// canonicalMode produces canonical CBOR (RFC 7049 §3.9, via
// cbor.CanonicalEncOptions): deterministic map key
// order, shortest-form integers, no indefinite-length items. Two callers
// encoding the same logical value always produce the same bytes, which is
// the property content addressing depends on.
var canonicalMode cbor.EncMode

func init() {
	var err error
	canonicalMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: build canonical CBOR mode: %v", err))
	}
}

// Marshal encodes v as canonical CBOR.
func Marshal(v interface{}) ([]byte, error) {
	return canonicalMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into v.
func Unmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}
