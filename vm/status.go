package vm

import "fmt"

// StatusKind enumerates the ways a run call can return control to the host.
type StatusKind uint8

const (
	Halted     StatusKind = iota // opcode 99 reached; terminal
	NeedsInput                   // input instruction with an empty queue
	Output                       // output instruction produced Status.Value
)

func (k StatusKind) String() string {
	switch k {
	case Halted:
		return "halted"
	case NeedsInput:
		return "needs-input"
	case Output:
		return "output"
	}
	return fmt.Sprintf("status(%d)", uint8(k))
}

// Status is the outcome of a run call. Value is only meaningful for Output.
type Status struct {
	Kind  StatusKind
	Value Word
}

var (
	statusHalted     = Status{Kind: Halted}
	statusNeedsInput = Status{Kind: NeedsInput}
)

// OutputStatus returns an Output status carrying v.
func OutputStatus(v Word) Status {
	return Status{Kind: Output, Value: v}
}

func (s Status) String() string {
	if s.Kind == Output {
		return fmt.Sprintf("output(%d)", s.Value)
	}
	return s.Kind.String()
}
