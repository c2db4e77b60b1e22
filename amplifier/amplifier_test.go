package amplifier

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/intcode/program"
	"github.com/chazu/intcode/vm"
)

var (
	serialA = program.MustParse("3,15,3,16,1002,16,10,16,1,16,15,15,4,15,99,0,0")
	serialB = program.MustParse("3,23,3,24,1002,24,10,24,1002,23,-1,23," +
		"101,5,23,23,1,24,23,23,4,23,99,0,0")
	serialC = program.MustParse("3,31,3,32,1002,32,10,32,1001,31,-2,31,1007,31,0,33," +
		"1002,33,7,33,1,33,31,31,1,32,31,31,4,31,99,0,0,0")

	feedbackA = program.MustParse("3,26,1001,26,-4,26,3,27,1002,27,2,27,1,27,26," +
		"27,4,27,1001,28,-1,28,1005,28,6,99,0,0,5")
	feedbackB = program.MustParse("3,52,1001,52,-5,52,3,53,1,52,56,54,1007,54,5,55,1005,55,26,1001,54," +
		"-5,54,1105,1,12,1,53,54,53,1008,54,0,55,1001,55,1,55,2,53,55,53,4," +
		"53,1001,56,-1,56,1005,56,6,99,0,0,0,0,10")
)

func TestSerial(t *testing.T) {
	got, err := Serial(serialA, []vm.Word{4, 3, 2, 1, 0})
	if err != nil {
		t.Fatalf("Serial: %v", err)
	}
	if got != 43210 {
		t.Errorf("Serial = %d, want 43210", got)
	}
}

func TestFeedback(t *testing.T) {
	got, err := Feedback(feedbackA, []vm.Word{9, 8, 7, 6, 5})
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if got != 139629729 {
		t.Errorf("Feedback = %d, want 139629729", got)
	}
}

func TestMaxSignal(t *testing.T) {
	tests := []struct {
		name       string
		program    []vm.Word
		mode       Mode
		phaseSet   []vm.Word
		wantSignal vm.Word
		wantPhases []vm.Word
	}{
		{"serial A", serialA, ModeSerial, []vm.Word{0, 1, 2, 3, 4}, 43210, []vm.Word{4, 3, 2, 1, 0}},
		{"serial B", serialB, ModeSerial, []vm.Word{0, 1, 2, 3, 4}, 54321, []vm.Word{0, 1, 2, 3, 4}},
		{"serial C", serialC, ModeSerial, []vm.Word{0, 1, 2, 3, 4}, 65210, []vm.Word{1, 0, 4, 3, 2}},
		{"feedback A", feedbackA, ModeFeedback, []vm.Word{5, 6, 7, 8, 9}, 139629729, []vm.Word{9, 8, 7, 6, 5}},
		{"feedback B", feedbackB, ModeFeedback, []vm.Word{5, 6, 7, 8, 9}, 18216, []vm.Word{9, 7, 8, 5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal, phases, err := MaxSignal(tt.program, tt.phaseSet, tt.mode)
			if err != nil {
				t.Fatalf("MaxSignal: %v", err)
			}
			if signal != tt.wantSignal {
				t.Errorf("signal = %d, want %d", signal, tt.wantSignal)
			}
			if diff := cmp.Diff(tt.wantPhases, phases); diff != "" {
				t.Errorf("phases (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPermutations(t *testing.T) {
	got := Permutations([]vm.Word{1, 2, 3})
	want := [][]vm.Word{
		{1, 2, 3}, {1, 3, 2},
		{2, 1, 3}, {2, 3, 1},
		{3, 1, 2}, {3, 2, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Permutations (-want +got):\n%s", diff)
	}
	if n := len(Permutations([]vm.Word{0, 1, 2, 3, 4})); n != 120 {
		t.Errorf("len(Permutations(5)) = %d, want 120", n)
	}
}

func TestSerialNoOutput(t *testing.T) {
	silent := []vm.Word{3, 0, 3, 0, 99}
	_, err := Serial(silent, []vm.Word{1, 2})
	if !errors.Is(err, ErrNoOutput) {
		t.Errorf("error = %v, want ErrNoOutput", err)
	}
}

func TestFeedbackStalls(t *testing.T) {
	silent := []vm.Word{3, 0, 3, 0, 99}
	_, err := Feedback(silent, []vm.Word{1, 2})
	if !errors.Is(err, ErrStalled) {
		t.Errorf("error = %v, want ErrStalled", err)
	}
}

func TestStageFaultIsReported(t *testing.T) {
	bad := []vm.Word{3, 0, 77}
	_, err := Serial(bad, []vm.Word{0})
	if !errors.Is(err, vm.ErrUnknownOpcode) {
		t.Errorf("error = %v, want ErrUnknownOpcode", err)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeSerial, ModeFeedback} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("parallel"); err == nil {
		t.Error("ParseMode(parallel) succeeded")
	}
}
