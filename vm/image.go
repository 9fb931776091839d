package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Programs are cached and shipped as CBOR. Canonical encoding keeps the
// bytes deterministic for a given program, so cache keys and content
// hashes stay stable.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalProgram serializes a Program to CBOR bytes.
func MarshalProgram(p *Program) ([]byte, error) {
	return cborEncMode.Marshal(p)
}

// UnmarshalProgram deserializes a Program from CBOR bytes and checks its
// jump-target invariants, since the bytes may come from an untrusted cache
// file.
func UnmarshalProgram(data []byte) (*Program, error) {
	var p Program
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("vm: unmarshal program: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("vm: invalid program image: %w", err)
	}
	return &p, nil
}
