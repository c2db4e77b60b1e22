package vm

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. The struct errors below match them.
var (
	ErrNegativeAddress    = errors.New("negative address")
	ErrUnknownOpcode      = errors.New("unknown opcode")
	ErrUnknownMode        = errors.New("unknown addressing mode")
	ErrInvalidWriteTarget = errors.New("invalid write target")

	// ErrMemoryLimit is returned when an access would grow memory past the
	// limit configured with WithMemoryLimit, or past MaxCells.
	ErrMemoryLimit = errors.New("memory limit exceeded")

	// ErrNeedsInput is returned by Run and RunWithCallbacks when the program
	// asks for input and the host has no way to provide it.
	ErrNeedsInput = errors.New("program needs input")

	// ErrNoMoreInput is returned by host callbacks to end a run early. It is
	// not a fault of the processor.
	ErrNoMoreInput = errors.New("no more input")
)

// NegativeAddressError reports an access to an address below zero.
type NegativeAddressError struct {
	Addr Word
	IP   int // instruction pointer of the faulting instruction, -1 if unknown
}

func (e *NegativeAddressError) Error() string {
	if e.IP < 0 {
		return fmt.Sprintf("negative address %d", e.Addr)
	}
	return fmt.Sprintf("negative address %d at ip=%d", e.Addr, e.IP)
}

func (e *NegativeAddressError) Is(target error) bool {
	return target == ErrNegativeAddress
}

// UnknownOpcodeError reports an instruction word whose low two digits are
// not part of the instruction set.
type UnknownOpcodeError struct {
	Code Word // the opcode (instruction word mod 100)
	IP   int
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode %d at ip=%d", e.Code, e.IP)
}

func (e *UnknownOpcodeError) Is(target error) bool {
	return target == ErrUnknownOpcode
}

// UnknownModeError reports a mode digit other than 0, 1 or 2.
type UnknownModeError struct {
	Mode Mode
	IP   int
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown addressing mode %d at ip=%d", int(e.Mode), e.IP)
}

func (e *UnknownModeError) Is(target error) bool {
	return target == ErrUnknownMode
}

// InvalidWriteTargetError reports an immediate-mode destination operand.
type InvalidWriteTargetError struct {
	Op Opcode
	IP int
}

func (e *InvalidWriteTargetError) Error() string {
	return fmt.Sprintf("%s at ip=%d: immediate mode cannot be a write target", e.Op, e.IP)
}

func (e *InvalidWriteTargetError) Is(target error) bool {
	return target == ErrInvalidWriteTarget
}

// IsFault reports whether err is a fatal processor fault, as opposed to a
// host-side signal like ErrNeedsInput or ErrNoMoreInput.
func IsFault(err error) bool {
	return errors.Is(err, ErrNegativeAddress) ||
		errors.Is(err, ErrUnknownOpcode) ||
		errors.Is(err, ErrUnknownMode) ||
		errors.Is(err, ErrInvalidWriteTarget) ||
		errors.Is(err, ErrMemoryLimit)
}
