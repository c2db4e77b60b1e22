package vm

import "errors"

// InputFunc supplies the next input value. It receives the host state and
// returns the value together with the updated state. Returning
// ErrNoMoreInput ends the run without error.
type InputFunc[S any] func(state S) (Word, S, error)

// OutputFunc consumes one output value and returns the updated state.
// Returning ErrNoMoreInput ends the run without error.
type OutputFunc[S any] func(state S, v Word) (S, error)

// RunWithCallbacks drives p until it halts, threading state through the
// callbacks. in is called every time the program needs input and the queue
// is empty; a nil in turns that into ErrNeedsInput. out is called for every
// output value; a nil out discards them.
//
// The final state is returned even when an error stops the run.
func RunWithCallbacks[S any](p *Processor, state S, in InputFunc[S], out OutputFunc[S]) (S, error) {
	for {
		st, err := p.Resume()
		if err != nil {
			return state, err
		}
		switch st.Kind {
		case Halted:
			return state, nil

		case NeedsInput:
			if in == nil {
				return state, ErrNeedsInput
			}
			v, next, err := in(state)
			state = next
			if errors.Is(err, ErrNoMoreInput) {
				return state, nil
			}
			if err != nil {
				return state, err
			}
			p.WriteInt(v)

		case Output:
			if out == nil {
				continue
			}
			next, err := out(state, st.Value)
			state = next
			if errors.Is(err, ErrNoMoreInput) {
				return state, nil
			}
			if err != nil {
				return state, err
			}
		}
	}
}

// Collect is an OutputFunc that appends every value to the state slice.
func Collect(acc []Word, v Word) ([]Word, error) {
	return append(acc, v), nil
}

// FromSlice returns an InputFunc that yields values in order and then
// reports ErrNoMoreInput.
func FromSlice[S any](values []Word) InputFunc[S] {
	i := 0
	return func(state S) (Word, S, error) {
		if i >= len(values) {
			return 0, state, ErrNoMoreInput
		}
		v := values[i]
		i++
		return v, state, nil
	}
}
