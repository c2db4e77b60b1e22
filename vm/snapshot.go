package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// SnapshotVersion is bumped whenever the Snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is the complete state of a processor. It can be encoded with
// MarshalSnapshot, stored, and turned back into a running processor with
// Restore.
type Snapshot struct {
	Version      int    `cbor:"1,keyasint"`
	Memory       []Word `cbor:"2,keyasint"`
	IP           int    `cbor:"3,keyasint"`
	RelativeBase Word   `cbor:"4,keyasint"`
	Inputs       []Word `cbor:"5,keyasint,omitempty"`
	Halted       bool   `cbor:"6,keyasint,omitempty"`
	Steps        int64  `cbor:"7,keyasint,omitempty"`
	MemoryLimit  int    `cbor:"8,keyasint,omitempty"`
}

var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

// Snapshot captures the processor state. The snapshot shares no memory with
// the processor.
func (p *Processor) Snapshot() *Snapshot {
	return &Snapshot{
		Version:      SnapshotVersion,
		Memory:       p.mem.Cells(),
		IP:           p.ip,
		RelativeBase: p.rb,
		Inputs:       append([]Word(nil), p.inputs...),
		Halted:       p.halted,
		Steps:        p.steps,
		MemoryLimit:  p.mem.limit,
	}
}

// Restore creates a processor from a snapshot. opts are applied after the
// state is loaded.
func Restore(s *Snapshot, opts ...Option) (*Processor, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("vm: unsupported snapshot version %d", s.Version)
	}
	if s.IP < 0 {
		return nil, &NegativeAddressError{Addr: Word(s.IP), IP: s.IP}
	}
	p := New(s.Memory)
	p.ip = s.IP
	p.rb = s.RelativeBase
	p.inputs = append([]Word(nil), s.Inputs...)
	p.halted = s.Halted
	p.steps = s.Steps
	p.mem.limit = s.MemoryLimit
	p.SetOptions(opts...)
	return p, nil
}

// MarshalSnapshot encodes a snapshot as canonical CBOR.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

// UnmarshalSnapshot decodes a snapshot produced by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("vm: unmarshal snapshot: %w", err)
	}
	return &s, nil
}
