// Package ascii adapts a processor to line-oriented text I/O.
//
// Programs that talk ASCII emit one character code per output and read one
// character code per input. The Console buffers outputs into lines and feeds
// whole lines (plus a newline) as input. Output values outside the 7-bit
// ASCII range are not text: they are passed to the host separately, which
// is how such programs report a final numeric answer.
package ascii

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chazu/intcode/vm"
)

// IsText reports whether v is a 7-bit ASCII character code.
func IsText(v vm.Word) bool {
	return v >= 0 && v <= 127
}

// Console buffers a processor's ASCII output into lines.
type Console struct {
	p    *vm.Processor
	line []byte
}

// New wraps p in a Console.
func New(p *vm.Processor) *Console {
	return &Console{p: p}
}

// Processor returns the wrapped processor.
func (c *Console) Processor() *vm.Processor {
	return c.p
}

// Send queues line followed by a newline as program input.
func (c *Console) Send(line string) {
	c.p.WriteString(line)
}

// SendLines queues several lines in order.
func (c *Console) SendLines(lines ...string) {
	for _, l := range lines {
		c.p.WriteString(l)
	}
}

// Result is what a program printed between two Run calls.
type Result struct {
	Lines      []string  // complete lines, without the newline
	Partial    string    // text printed after the last newline
	Values     []vm.Word // out-of-band (non-ASCII) values, in order
	Halted     bool
	NeedsInput bool
}

// Text returns the lines and partial text joined as printed.
func (r Result) Text() string {
	var b []byte
	for _, l := range r.Lines {
		b = append(b, l...)
		b = append(b, '\n')
	}
	return string(append(b, r.Partial...))
}

// Run executes until the program halts or waits for input.
func (c *Console) Run() (Result, error) {
	var res Result
	for {
		st, err := c.p.Resume()
		if err != nil {
			res.Partial = c.takePartial()
			return res, err
		}
		switch st.Kind {
		case vm.Halted:
			res.Partial = c.takePartial()
			res.Halted = true
			return res, nil
		case vm.NeedsInput:
			res.Partial = c.takePartial()
			res.NeedsInput = true
			return res, nil
		case vm.Output:
			if line, ok := c.put(st.Value); ok {
				res.Lines = append(res.Lines, line)
			} else if !IsText(st.Value) {
				res.Values = append(res.Values, st.Value)
			}
		}
	}
}

// put adds one output value to the line buffer. It returns a completed line
// when v is a newline.
func (c *Console) put(v vm.Word) (string, bool) {
	if !IsText(v) {
		return "", false
	}
	if v == '\n' {
		line := string(c.line)
		c.line = c.line[:0]
		return line, true
	}
	c.line = append(c.line, byte(v))
	return "", false
}

func (c *Console) takePartial() string {
	s := string(c.line)
	c.line = c.line[:0]
	return s
}

// LineInputFunc supplies the next input line (without newline). Returning
// vm.ErrNoMoreInput ends the run without error.
type LineInputFunc[S any] func(state S) (string, S, error)

// LineFunc receives one printed line. A prompt printed without a trailing
// newline is delivered as a line just before input is requested.
type LineFunc[S any] func(state S, line string) (S, error)

// ValueFunc receives one out-of-band value.
type ValueFunc[S any] func(state S, v vm.Word) (S, error)

// RunLines drives the console until the program halts, threading state
// through the callbacks. Any callback may be nil; a nil in turns a request
// for input into vm.ErrNeedsInput.
func RunLines[S any](c *Console, state S, in LineInputFunc[S], onLine LineFunc[S], onValue ValueFunc[S]) (S, error) {
	emit := func(lines []string, values []vm.Word) error {
		var err error
		for _, l := range lines {
			if onLine != nil {
				if state, err = onLine(state, l); err != nil {
					return err
				}
			}
		}
		for _, v := range values {
			if onValue != nil {
				if state, err = onValue(state, v); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for {
		res, err := c.Run()
		lines := res.Lines
		if res.Partial != "" {
			lines = append(lines, res.Partial)
		}
		if emitErr := emit(lines, res.Values); emitErr != nil {
			if errors.Is(emitErr, vm.ErrNoMoreInput) {
				return state, nil
			}
			return state, emitErr
		}
		if err != nil {
			return state, err
		}
		if res.Halted {
			return state, nil
		}

		if in == nil {
			return state, vm.ErrNeedsInput
		}
		line, next, err := in(state)
		state = next
		if errors.Is(err, vm.ErrNoMoreInput) {
			return state, nil
		}
		if err != nil {
			return state, err
		}
		c.Send(line)
	}
}

// Interact connects the console to a reader and writer, for example a
// terminal. Printed text is copied to w, out-of-band values are written as
// decimal lines, and each line read from r is sent as input. It returns when
// the program halts, r is exhausted, or ctx is cancelled.
func (c *Console) Interact(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for {
		res, err := c.Run()
		if _, werr := io.WriteString(w, res.Text()); werr != nil {
			return werr
		}
		for _, v := range res.Values {
			if _, werr := fmt.Fprintf(w, "%d\n", v); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
		if res.Halted {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		c.Send(scanner.Text())
	}
}
