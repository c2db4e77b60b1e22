package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of program. Words that do not
// decode as instructions are listed as data. Since Intcode does not separate
// code from data, the listing is a best-effort linear sweep.
func Disassemble(program []Word) string {
	return DisassembleWithName(program, "")
}

// DisassembleWithName returns a listing with a name header.
func DisassembleWithName(program []Word, name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; %d words\n\n", len(program)))

	mem := &Memory{cells: program}
	for addr := 0; addr < len(program); {
		line, width := disassembleAt(mem, addr)
		sb.WriteString(fmt.Sprintf("%04d  %s\n", addr, line))
		addr += width
	}
	return sb.String()
}

// disassembleAt formats the instruction at addr and returns its width. Reads
// never grow memory; operands past the end are shown as "?".
func disassembleAt(mem *Memory, addr int) (string, int) {
	cells := mem.cells
	if addr < 0 || addr >= len(cells) {
		return "?", 1
	}
	w := cells[addr]
	ins, err := Decode(w)
	if err != nil {
		return fmt.Sprintf("DATA %d", w), 1
	}

	info, _ := GetOpcodeInfo(ins.Op)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-5s", info.Name))
	for i := 0; i < info.Operands; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(" ")
		at := addr + 1 + i
		if at >= len(cells) {
			sb.WriteString("?")
			continue
		}
		sb.WriteString(formatOperand(ins.Modes[i], cells[at]))
	}
	return strings.TrimRight(sb.String(), " "), ins.Op.Width()
}

// formatOperand renders an operand in assembler notation: [n] for position,
// n for immediate and [rb+n] for relative.
func formatOperand(m Mode, raw Word) string {
	switch m {
	case ModeImmediate:
		return fmt.Sprintf("%d", raw)
	case ModeRelative:
		if raw < 0 {
			return fmt.Sprintf("[rb%d]", raw)
		}
		return fmt.Sprintf("[rb+%d]", raw)
	}
	return fmt.Sprintf("[%d]", raw)
}
