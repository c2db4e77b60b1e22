package program

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/intcode/vm"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []vm.Word
	}{
		{"simple", "1,0,0,0,99", []vm.Word{1, 0, 0, 0, 99}},
		{"trailing newline", "3,0,4,0,99\n", []vm.Word{3, 0, 4, 0, 99}},
		{"spaces", " 1, -2 ,\t3 ", []vm.Word{1, -2, 3}},
		{"large", "104,1125899906842624,99", []vm.Word{104, 1125899906842624, 99}},
		{"empty", "\n", []vm.Word{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.text, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{"1,,2", "1,x", "1;2", "99999999999999999999"} {
		if _, err := Parse(text); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", text)
		}
	}
}

func TestParseErrorNamesWord(t *testing.T) {
	_, err := Parse("1,2,oops")
	if err == nil || !strings.Contains(err.Error(), "word 2") {
		t.Errorf("error = %v, want it to mention word 2", err)
	}
}

func TestFormat(t *testing.T) {
	prog := []vm.Word{109, -1, 204, 1, 99}
	text := Format(prog)
	if text != "109,-1,204,1,99" {
		t.Errorf("Format = %q", text)
	}
	back, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(prog, back); diff != "" {
		t.Errorf("Format/Parse (-want +got):\n%s", diff)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.txt")
	prog := []vm.Word{1102, 34915192, 34915192, 7, 4, 7, 99, 0}
	if err := Save(path, prog); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(prog, got); diff != "" {
		t.Errorf("Load (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("Load of missing file succeeded")
	}

	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(bad, []byte("1,2,three\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(bad)
	if err == nil || !strings.Contains(err.Error(), "bad.txt") {
		t.Errorf("Load error = %v, want it to name the file", err)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse did not panic on bad input")
		}
	}()
	MustParse("nope")
}
