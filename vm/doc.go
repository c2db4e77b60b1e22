// Package vm implements the Intcode processor: a stored-program machine
// that executes a small, closed instruction set over an auto-extending tape
// of signed 64-bit words.
//
// # Architecture Overview
//
//   - Memory: a zero-indexed tape of Words. Any non-negative address can be
//     read or written; the tape grows on demand and new cells read as 0.
//
//   - Decoder: splits an instruction word into an Opcode and three
//     addressing Modes (position, immediate, relative).
//
//   - Processor: owns memory, the instruction pointer, the relative base and
//     a FIFO of pending inputs, and runs the fetch-decode-execute cycle.
//
// # Suspension
//
// The processor never blocks. Resume runs until one of three things
// happens and reports it as a Status:
//
//   - Halted: opcode 99 was reached. Further calls return Halted again.
//   - NeedsInput: an input instruction found the queue empty. The
//     instruction pointer stays on that instruction; supply input with
//     WriteInt and call Resume again.
//   - Output: an output instruction produced a value. Execution continues
//     after it on the next call.
//
// Because suspension is a return value, one goroutine can interleave many
// processors by calling Resume on each in turn. The amplifier and network
// packages are built that way.
//
// Malformed programs (unknown opcodes, immediate-mode write targets,
// negative addresses) are fatal for the instance: the run call returns the
// error and the instruction pointer is left on the faulting instruction.
package vm
