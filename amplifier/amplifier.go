// Package amplifier runs copies of one program as a chain of amplifier
// stages. Each stage is configured by a phase setting, read as its first
// input, and passes its output signal to the next stage.
//
// Serial runs each stage to completion in order. Feedback connects the last
// stage back to the first and schedules all stages round-robin until the
// last one halts. Both are plain host loops over independently owned
// processors: a stage that needs input simply yields its turn.
package amplifier

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/intcode/vm"
)

var log = commonlog.GetLogger("intcode.amplifier")

// Mode selects how stages are connected.
type Mode int

const (
	ModeSerial Mode = iota
	ModeFeedback
)

func (m Mode) String() string {
	switch m {
	case ModeSerial:
		return "serial"
	case ModeFeedback:
		return "feedback"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "serial" or "feedback" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "serial":
		return ModeSerial, nil
	case "feedback":
		return ModeFeedback, nil
	}
	return 0, fmt.Errorf("unknown amplifier mode %q", s)
}

var (
	// ErrNoOutput is returned when a stage halts without producing a signal.
	ErrNoOutput = errors.New("amplifier produced no output")

	// ErrStalled is returned when a feedback loop can make no progress:
	// every stage still running is waiting for input nobody will send.
	ErrStalled = errors.New("amplifier loop stalled")
)

// Serial feeds the signal 0 into the first stage and returns the signal
// produced by the last stage. Each stage receives its phase, then the
// previous stage's signal.
func Serial(program []vm.Word, phases []vm.Word) (vm.Word, error) {
	var signal vm.Word
	for i, phase := range phases {
		p := vm.New(program, vm.WithInputs(phase, signal))
		out, err := p.Run()
		if err != nil {
			return 0, fmt.Errorf("stage %d: %w", i, err)
		}
		if len(out) == 0 {
			return 0, fmt.Errorf("stage %d: %w", i, ErrNoOutput)
		}
		signal = out[len(out)-1]
	}
	return signal, nil
}

// Feedback runs the stages in a loop. Output of stage i is queued as input
// of stage i+1, and output of the last stage goes back to the first. The
// result is the last signal the last stage produced before halting.
func Feedback(program []vm.Word, phases []vm.Word) (vm.Word, error) {
	n := len(phases)
	if n == 0 {
		return 0, nil
	}
	stages := make([]*vm.Processor, n)
	for i, phase := range phases {
		stages[i] = vm.New(program, vm.WithInputs(phase))
	}
	stages[0].WriteInt(0)

	var (
		signal   vm.Word
		produced bool
	)
	for round := 0; ; round++ {
		progressed := false
		for i, p := range stages {
			if p.Halted() {
				continue
			}
		drive:
			for {
				st, err := p.Resume()
				if err != nil {
					return 0, fmt.Errorf("stage %d: %w", i, err)
				}
				switch st.Kind {
				case vm.Output:
					progressed = true
					stages[(i+1)%n].WriteInt(st.Value)
					if i == n-1 {
						signal, produced = st.Value, true
					}
				case vm.Halted:
					progressed = true
					break drive
				case vm.NeedsInput:
					break drive
				}
			}
		}

		if stages[n-1].Halted() {
			log.Debugf("feedback loop finished after %d rounds", round+1)
			if !produced {
				return 0, fmt.Errorf("stage %d: %w", n-1, ErrNoOutput)
			}
			return signal, nil
		}
		if !progressed {
			return 0, ErrStalled
		}
	}
}

// Run dispatches to Serial or Feedback.
func Run(program []vm.Word, phases []vm.Word, mode Mode) (vm.Word, error) {
	switch mode {
	case ModeSerial:
		return Serial(program, phases)
	case ModeFeedback:
		return Feedback(program, phases)
	}
	return 0, fmt.Errorf("unknown amplifier mode %v", mode)
}

// Permutations returns every ordering of values. The input slice is not
// modified. Orderings are produced in lexicographic order of positions.
func Permutations(values []vm.Word) [][]vm.Word {
	var out [][]vm.Word
	used := make([]bool, len(values))
	cur := make([]vm.Word, 0, len(values))

	var walk func()
	walk = func() {
		if len(cur) == len(values) {
			out = append(out, append([]vm.Word(nil), cur...))
			return
		}
		for i, v := range values {
			if used[i] {
				continue
			}
			used[i] = true
			cur = append(cur, v)
			walk()
			cur = cur[:len(cur)-1]
			used[i] = false
		}
	}
	walk()
	return out
}

// MaxSignal tries every ordering of phaseSet and returns the highest signal
// together with the phases that produced it.
func MaxSignal(program []vm.Word, phaseSet []vm.Word, mode Mode) (vm.Word, []vm.Word, error) {
	var (
		best   vm.Word
		phases []vm.Word
	)
	for _, perm := range Permutations(phaseSet) {
		signal, err := Run(program, perm, mode)
		if err != nil {
			return 0, nil, fmt.Errorf("phases %v: %w", perm, err)
		}
		if phases == nil || signal > best {
			best, phases = signal, perm
		}
	}
	log.Debugf("best %s signal %d with phases %v", mode, best, phases)
	return best, phases, nil
}
