package vm

import (
	"fmt"
	"sort"
)

// Opcode is the low two decimal digits of an instruction word.
type Opcode uint8

const (
	OpAdd         Opcode = 1  // dest = a + b
	OpMul         Opcode = 2  // dest = a * b
	OpInput       Opcode = 3  // dest = next input, or suspend with NeedsInput
	OpOutput      Opcode = 4  // suspend with Output(a)
	OpJumpIfTrue  Opcode = 5  // if a != 0, ip = b
	OpJumpIfFalse Opcode = 6  // if a == 0, ip = b
	OpLessThan    Opcode = 7  // dest = a < b ? 1 : 0
	OpEquals      Opcode = 8  // dest = a == b ? 1 : 0
	OpAdjustBase  Opcode = 9  // relative base += a
	OpHalt        Opcode = 99 // stop
)

// Mode selects how an operand is resolved.
type Mode uint8

const (
	ModePosition  Mode = 0 // operand is an address
	ModeImmediate Mode = 1 // operand is the value
	ModeRelative  Mode = 2 // operand plus relative base is an address
)

func (m Mode) String() string {
	switch m {
	case ModePosition:
		return "position"
	case ModeImmediate:
		return "immediate"
	case ModeRelative:
		return "relative"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// OpcodeInfo describes an opcode for execution width and disassembly.
type OpcodeInfo struct {
	Name     string // mnemonic
	Operands int    // number of operand words after the instruction word
	Writes   bool   // last operand is a destination
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpAdd:         {"ADD", 3, true},
	OpMul:         {"MUL", 3, true},
	OpInput:       {"IN", 1, true},
	OpOutput:      {"OUT", 1, false},
	OpJumpIfTrue:  {"JNZ", 2, false},
	OpJumpIfFalse: {"JZ", 2, false},
	OpLessThan:    {"LT", 3, true},
	OpEquals:      {"EQ", 3, true},
	OpAdjustBase:  {"ARB", 1, false},
	OpHalt:        {"HALT", 0, false},
}

// GetOpcodeInfo returns metadata for op and whether op is defined.
func GetOpcodeInfo(op Opcode) (OpcodeInfo, bool) {
	info, ok := opcodeInfoTable[op]
	return info, ok
}

// String returns the mnemonic, or UNKNOWN(n) for undefined opcodes.
func (op Opcode) String() string {
	if info, ok := opcodeInfoTable[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(op))
}

// Width returns the total instruction length in words (1 + operands).
func (op Opcode) Width() int {
	return 1 + opcodeInfoTable[op].Operands
}

// IsJump reports whether op may set the instruction pointer.
func (op Opcode) IsJump() bool {
	return op == OpJumpIfTrue || op == OpJumpIfFalse
}

// AllOpcodes returns every defined opcode in ascending order.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Op    Opcode
	Modes [3]Mode
}

// Decode splits an instruction word into its opcode and operand modes. The
// returned error is an *UnknownOpcodeError or *UnknownModeError with IP set
// to -1; the processor fills in the real location.
func Decode(w Word) (Instruction, error) {
	code := w % 100
	if code < 0 {
		return Instruction{}, &UnknownOpcodeError{Code: code, IP: -1}
	}
	op := Opcode(code)
	info, ok := opcodeInfoTable[op]
	if !ok {
		return Instruction{}, &UnknownOpcodeError{Code: code, IP: -1}
	}
	ins := Instruction{Op: op}
	div := w / 100
	for i := 0; i < 3; i++ {
		m := Mode(div % 10)
		div /= 10
		if i >= info.Operands {
			continue
		}
		if m > ModeRelative {
			return Instruction{}, &UnknownModeError{Mode: m, IP: -1}
		}
		ins.Modes[i] = m
	}
	return ins, nil
}
