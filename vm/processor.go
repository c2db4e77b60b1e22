package vm

import (
	"fmt"

	"github.com/tliron/commonlog"
)

// Processor executes an Intcode program. A Processor is not safe for
// concurrent use; hosts that share one across goroutines must serialize
// access themselves.
type Processor struct {
	mem    *Memory
	ip     int  // instruction pointer
	rb     Word // relative base
	inputs []Word
	halted bool
	steps  int64

	log   commonlog.Logger
	trace bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithInputs seeds the input queue.
func WithInputs(values ...Word) Option {
	return func(p *Processor) { p.inputs = append(p.inputs, values...) }
}

// WithMemoryLimit caps the number of memory cells. Accesses beyond the cap
// fail with ErrMemoryLimit. Zero means only MaxCells applies, which is the
// default.
func WithMemoryLimit(cells int) Option {
	return func(p *Processor) { p.mem.limit = cells }
}

// WithLogger sets the logger used for traces and fault reports.
func WithLogger(log commonlog.Logger) Option {
	return func(p *Processor) { p.log = log }
}

// WithTrace enables a debug-level log line for every executed instruction.
func WithTrace(trace bool) Option {
	return func(p *Processor) { p.trace = trace }
}

// New creates a Processor whose memory is a copy of program.
func New(program []Word, opts ...Option) *Processor {
	p := &Processor{
		mem: NewMemory(program),
		log: commonlog.GetLogger("intcode.vm"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetOptions applies opts to an existing processor.
func (p *Processor) SetOptions(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

// ---------------------------------------------------------------------------
// Host interface
// ---------------------------------------------------------------------------

// WriteInt appends v to the input queue.
func (p *Processor) WriteInt(v Word) {
	p.inputs = append(p.inputs, v)
}

// WriteInts appends values to the input queue in order.
func (p *Processor) WriteInts(values ...Word) {
	p.inputs = append(p.inputs, values...)
}

// WriteString appends the character codes of s followed by a newline.
func (p *Processor) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		p.inputs = append(p.inputs, Word(s[i]))
	}
	p.inputs = append(p.inputs, '\n')
}

// PendingInputs returns the number of queued input values.
func (p *Processor) PendingInputs() int {
	return len(p.inputs)
}

// Memory returns the processor's memory. Hosts use it to patch a program
// before running it or to inspect results afterwards.
func (p *Processor) Memory() *Memory {
	return p.mem
}

// IP returns the instruction pointer.
func (p *Processor) IP() int {
	return p.ip
}

// RelativeBase returns the current relative base.
func (p *Processor) RelativeBase() Word {
	return p.rb
}

// Halted reports whether the program has executed opcode 99.
func (p *Processor) Halted() bool {
	return p.halted
}

// Steps returns the number of instructions executed so far.
func (p *Processor) Steps() int64 {
	return p.steps
}

// Clone returns an independent copy of the processor, including its memory
// and pending inputs. The copy can be run without affecting the original.
func (p *Processor) Clone() *Processor {
	c := *p
	c.mem = p.mem.Clone()
	c.inputs = append([]Word(nil), p.inputs...)
	return &c
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// Resume runs until the program halts, needs input, or produces output.
// Calling Resume on a halted processor returns Halted without executing.
func (p *Processor) Resume() (Status, error) {
	for {
		st, stop, err := p.Step()
		if err != nil {
			return Status{}, err
		}
		if stop {
			return st, nil
		}
	}
}

// Run executes until the program halts and returns every value it output.
// If the program asks for input that is not queued, Run returns the outputs
// produced so far and ErrNeedsInput.
func (p *Processor) Run() ([]Word, error) {
	var out []Word
	for {
		st, err := p.Resume()
		if err != nil {
			return out, err
		}
		switch st.Kind {
		case Halted:
			return out, nil
		case NeedsInput:
			return out, ErrNeedsInput
		case Output:
			out = append(out, st.Value)
		}
	}
}

// Step executes a single instruction. The bool result is true when the step
// returned control to the host, in which case the Status says why.
func (p *Processor) Step() (Status, bool, error) {
	if p.halted {
		return statusHalted, true, nil
	}

	w, err := p.mem.Read(Word(p.ip))
	if err != nil {
		return Status{}, true, p.fault(err)
	}
	ins, err := Decode(w)
	if err != nil {
		return Status{}, true, p.fault(err)
	}

	if p.trace {
		p.log.Debugf("[%04d] %s rb=%d", p.ip, p.describe(), p.rb)
	}

	next := p.ip + ins.Op.Width()

	switch ins.Op {
	case OpAdd, OpMul, OpLessThan, OpEquals:
		a, err := p.load(ins, 0)
		if err != nil {
			return Status{}, true, p.fault(err)
		}
		b, err := p.load(ins, 1)
		if err != nil {
			return Status{}, true, p.fault(err)
		}
		var v Word
		switch ins.Op {
		case OpAdd:
			v = a + b
		case OpMul:
			v = a * b
		case OpLessThan:
			v = boolWord(a < b)
		case OpEquals:
			v = boolWord(a == b)
		}
		if err := p.store(ins, 2, v); err != nil {
			return Status{}, true, p.fault(err)
		}

	case OpInput:
		if len(p.inputs) == 0 {
			return statusNeedsInput, true, nil
		}
		if err := p.store(ins, 0, p.inputs[0]); err != nil {
			return Status{}, true, p.fault(err)
		}
		p.inputs = p.inputs[1:]

	case OpOutput:
		a, err := p.load(ins, 0)
		if err != nil {
			return Status{}, true, p.fault(err)
		}
		p.ip = next
		p.steps++
		return OutputStatus(a), true, nil

	case OpJumpIfTrue, OpJumpIfFalse:
		a, err := p.load(ins, 0)
		if err != nil {
			return Status{}, true, p.fault(err)
		}
		b, err := p.load(ins, 1)
		if err != nil {
			return Status{}, true, p.fault(err)
		}
		if (a != 0) == (ins.Op == OpJumpIfTrue) {
			if b < 0 {
				return Status{}, true, p.fault(&NegativeAddressError{Addr: b})
			}
			next = int(b)
		}

	case OpAdjustBase:
		a, err := p.load(ins, 0)
		if err != nil {
			return Status{}, true, p.fault(err)
		}
		p.rb += a

	case OpHalt:
		p.halted = true
		p.steps++
		return statusHalted, true, nil
	}

	p.ip = next
	p.steps++
	return Status{}, false, nil
}

// operand returns the raw operand word n (0-based) of the current instruction.
func (p *Processor) operand(n int) (Word, error) {
	return p.mem.Read(Word(p.ip + 1 + n))
}

// load returns the value of operand n according to its mode.
func (p *Processor) load(ins Instruction, n int) (Word, error) {
	raw, err := p.operand(n)
	if err != nil {
		return 0, err
	}
	if ins.Modes[n] == ModeImmediate {
		return raw, nil
	}
	addr, err := p.resolve(ins, n, raw)
	if err != nil {
		return 0, err
	}
	return p.mem.Read(addr)
}

// store writes v to the location named by operand n.
func (p *Processor) store(ins Instruction, n int, v Word) error {
	raw, err := p.operand(n)
	if err != nil {
		return err
	}
	addr, err := p.resolve(ins, n, raw)
	if err != nil {
		return err
	}
	return p.mem.Write(addr, v)
}

// resolve turns operand n into a memory address. Immediate operands have no
// address and cannot be written to.
func (p *Processor) resolve(ins Instruction, n int, raw Word) (Word, error) {
	switch ins.Modes[n] {
	case ModePosition:
		return raw, nil
	case ModeRelative:
		return raw + p.rb, nil
	case ModeImmediate:
		return 0, &InvalidWriteTargetError{Op: ins.Op, IP: p.ip}
	}
	return 0, &UnknownModeError{Mode: ins.Modes[n], IP: p.ip}
}

// fault records the instruction pointer on err and logs it.
func (p *Processor) fault(err error) error {
	switch e := err.(type) {
	case *NegativeAddressError:
		e.IP = p.ip
	case *UnknownOpcodeError:
		e.IP = p.ip
	case *UnknownModeError:
		e.IP = p.ip
	default:
		if err == ErrMemoryLimit {
			err = fmt.Errorf("ip=%d: %w", p.ip, err)
		}
	}
	p.log.Debugf("fault: %v", err)
	return err
}

// describe formats the current instruction for traces.
func (p *Processor) describe() string {
	line, _ := disassembleAt(p.mem, p.ip)
	return line
}

func boolWord(b bool) Word {
	if b {
		return 1
	}
	return 0
}
