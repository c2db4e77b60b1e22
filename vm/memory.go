package vm

// Word is the only data type of the machine: memory cells, instructions,
// operands and I/O values are all Words.
type Word int64

// MaxCells is the hard cap on tape size, applied whether or not a limit is
// configured. Addresses at or beyond it fail with ErrMemoryLimit.
const MaxCells = 1 << 28

// Memory is the processor tape. It starts at the program length and grows
// to cover any non-negative address that is read or written.
type Memory struct {
	cells []Word
	limit int // maximum number of cells, 0 = unlimited
}

// NewMemory returns a Memory initialized with a copy of program.
func NewMemory(program []Word) *Memory {
	cells := make([]Word, len(program))
	copy(cells, program)
	return &Memory{cells: cells}
}

// Len returns the current number of cells.
func (m *Memory) Len() int {
	return len(m.cells)
}

// Read returns the value stored at addr. Addresses past the end of the tape
// grow it and read as 0.
func (m *Memory) Read(addr Word) (Word, error) {
	if err := m.ensure(addr); err != nil {
		return 0, err
	}
	return m.cells[addr], nil
}

// Write stores v at addr, growing the tape first if needed.
func (m *Memory) Write(addr, v Word) error {
	if err := m.ensure(addr); err != nil {
		return err
	}
	m.cells[addr] = v
	return nil
}

// ensure grows the tape so that addr is a valid index. New cells are zero.
func (m *Memory) ensure(addr Word) error {
	if addr < 0 {
		return &NegativeAddressError{Addr: addr, IP: -1}
	}
	if addr < Word(len(m.cells)) {
		return nil
	}
	if addr >= Word(m.maxCells()) {
		return ErrMemoryLimit
	}
	need := int(addr) + 1
	if need <= cap(m.cells) {
		m.cells = m.cells[:need]
		return nil
	}
	newCap := 2 * cap(m.cells)
	if newCap < need {
		newCap = need
	}
	if limit := m.maxCells(); newCap > limit {
		newCap = limit
	}
	grown := make([]Word, need, newCap)
	copy(grown, m.cells)
	m.cells = grown
	return nil
}

// maxCells returns the effective tape size cap.
func (m *Memory) maxCells() int {
	if m.limit > 0 && m.limit < MaxCells {
		return m.limit
	}
	return MaxCells
}

// Cells returns a copy of the whole tape.
func (m *Memory) Cells() []Word {
	out := make([]Word, len(m.cells))
	copy(out, m.cells)
	return out
}

// Slice returns a copy of count cells starting at addr. Cells past the end
// of the tape read as 0 without growing it.
func (m *Memory) Slice(addr Word, count int) ([]Word, error) {
	if addr < 0 {
		return nil, &NegativeAddressError{Addr: addr, IP: -1}
	}
	out := make([]Word, count)
	if addr < Word(len(m.cells)) {
		copy(out, m.cells[addr:])
	}
	return out, nil
}

// Clone returns an independent copy of the memory.
func (m *Memory) Clone() *Memory {
	return &Memory{cells: m.Cells(), limit: m.limit}
}
