package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/vm"
)

func TestPatchMemory(t *testing.T) {
	p := vm.New([]vm.Word{1, 0, 0, 3, 99})
	if err := patchMemory(p, "1=12, 2=2"); err != nil {
		t.Fatalf("patchMemory: %v", err)
	}
	cells := p.Memory().Cells()
	if cells[1] != 12 || cells[2] != 2 {
		t.Errorf("memory = %v, want cells 1,2 = 12,2", cells)
	}

	for _, bad := range []string{"1", "x=1", "1=y", "-1=5"} {
		if err := patchMemory(p, bad); err == nil {
			t.Errorf("patchMemory(%q) succeeded", bad)
		}
	}
}

func TestLoadProgram(t *testing.T) {
	dir := t.TempDir()
	progPath := filepath.Join(dir, "prog.txt")
	if err := os.WriteFile(progPath, []byte("104,7,99\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifest.FileName), []byte("[program]\npath = \"prog.txt\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := loadManifest(dir)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	e := &env{manifest: m}

	// Configured program.
	prog, err := e.loadProgram(nil)
	if err != nil {
		t.Fatalf("loadProgram: %v", err)
	}
	if len(prog) != 3 {
		t.Errorf("configured program has %d words, want 3", len(prog))
	}

	// Explicit argument wins.
	if _, err := e.loadProgram([]string{filepath.Join(dir, "missing.txt")}); err == nil {
		t.Error("loadProgram of missing file succeeded")
	}

	// No program at all.
	e = &env{manifest: manifest.Default()}
	if _, err := e.loadProgram(nil); err == nil {
		t.Error("loadProgram without program succeeded")
	}
}

func TestVMOptions(t *testing.T) {
	m := manifest.Default()
	m.VM.MemoryLimit = 8
	e := &env{manifest: m}

	p := vm.New([]vm.Word{1101, 1, 1, 100, 99}, e.vmOptions()...)
	if _, err := p.Run(); err == nil {
		t.Error("write past the configured memory limit should fail")
	}
}

func TestLineInputStopsAtEOF(t *testing.T) {
	echo := []vm.Word{3, 100, 4, 100, 1105, 1, 0}
	p := vm.New(echo)
	var got []vm.Word
	_, err := vm.RunWithCallbacks(p, 0, lineInput(strings.NewReader("5\n -3 \n")), func(n int, v vm.Word) (int, error) {
		got = append(got, v)
		return n + 1, nil
	})
	if err != nil {
		t.Fatalf("RunWithCallbacks: %v", err)
	}
	if diff := cmp.Diff([]vm.Word{5, -3}, got); diff != "" {
		t.Errorf("outputs (-want +got):\n%s", diff)
	}
}

func TestLineInputRejectsGarbage(t *testing.T) {
	p := vm.New([]vm.Word{3, 0, 99})
	_, err := vm.RunWithCallbacks(p, 0, lineInput(strings.NewReader("five\n")), nil)
	if err == nil || !strings.Contains(err.Error(), "stdin") {
		t.Errorf("error = %v, want a stdin parse error", err)
	}
}
