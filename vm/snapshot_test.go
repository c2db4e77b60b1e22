package vm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotRoundTripResumes(t *testing.T) {
	// Outputs a running total of its inputs.
	adder := []Word{3, 100, 1, 100, 101, 101, 4, 101, 1105, 1, 0}
	p := New(adder, WithInputs(3, 4))

	for _, want := range []Word{3, 7} {
		st, err := p.Resume()
		if err != nil || st != OutputStatus(want) {
			t.Fatalf("Resume = %v, %v; want output(%d)", st, err, want)
		}
	}

	data, err := MarshalSnapshot(p.Snapshot())
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot: %v", err)
	}
	r, err := Restore(snap)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if r.IP() != p.IP() || r.RelativeBase() != p.RelativeBase() || r.Steps() != p.Steps() {
		t.Errorf("restored ip/rb/steps = %d/%d/%d, want %d/%d/%d",
			r.IP(), r.RelativeBase(), r.Steps(), p.IP(), p.RelativeBase(), p.Steps())
	}
	if diff := cmp.Diff(p.Memory().Cells(), r.Memory().Cells()); diff != "" {
		t.Errorf("restored memory (-want +got):\n%s", diff)
	}

	p.WriteInt(10)
	r.WriteInt(10)
	a, _ := p.Resume()
	b, _ := r.Resume()
	if a != OutputStatus(17) || b != a {
		t.Errorf("after restore: original %v, restored %v, want output(17) for both", a, b)
	}
}

func TestSnapshotKeepsPendingInputsAndHalt(t *testing.T) {
	p := New([]Word{99}, WithInputs(1, 2), WithMemoryLimit(64))
	if _, err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	r, err := Restore(p.Snapshot())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !r.Halted() {
		t.Error("restored processor not halted")
	}
	if r.PendingInputs() != 2 {
		t.Errorf("PendingInputs = %d, want 2", r.PendingInputs())
	}
	if r.Memory().limit != 64 {
		t.Errorf("memory limit = %d, want 64", r.Memory().limit)
	}
}

func TestSnapshotEncodingIsDeterministic(t *testing.T) {
	p := New([]Word{1101, 2, 3, 10, 99})
	if _, err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	a, err := MarshalSnapshot(p.Snapshot())
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	b, _ := MarshalSnapshot(p.Clone().Snapshot())
	if string(a) != string(b) {
		t.Error("encodings of identical states differ")
	}
}

func TestRestoreRejectsBadSnapshots(t *testing.T) {
	if _, err := Restore(&Snapshot{Version: 99}); err == nil {
		t.Error("Restore accepted an unknown version")
	}
	if _, err := Restore(&Snapshot{Version: SnapshotVersion, IP: -1}); err == nil {
		t.Error("Restore accepted a negative instruction pointer")
	}
	if _, err := UnmarshalSnapshot([]byte{0xff, 0x00}); err == nil {
		t.Error("UnmarshalSnapshot accepted garbage")
	}
}
