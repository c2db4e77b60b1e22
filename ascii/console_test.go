package ascii

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/intcode/vm"
)

// printer returns a program that outputs values in order and halts.
func printer(values ...vm.Word) []vm.Word {
	var prog []vm.Word
	for _, v := range values {
		prog = append(prog, 104, v)
	}
	return append(prog, 99)
}

func text(s string) []vm.Word {
	out := make([]vm.Word, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = vm.Word(s[i])
	}
	return out
}

// promptEcho prints '>' once, then echoes every input character forever.
var promptEcho = []vm.Word{104, '>', 3, 100, 4, 100, 1105, 1, 2}

func TestRunSplitsLinesAndValues(t *testing.T) {
	values := append(text("Hull damage\nreported\n"), 19358870, -1)
	values = append(values, text("tail")...)
	c := New(vm.New(printer(values...)))

	res, err := c.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := Result{
		Lines:   []string{"Hull damage", "reported"},
		Partial: "tail",
		Values:  []vm.Word{19358870, -1},
		Halted:  true,
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("Result (-want +got):\n%s", diff)
	}
	if res.Text() != "Hull damage\nreported\ntail" {
		t.Errorf("Text() = %q", res.Text())
	}
}

func TestRunStopsForInput(t *testing.T) {
	c := New(vm.New(promptEcho))

	res, err := c.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.NeedsInput || res.Partial != ">" || len(res.Lines) != 0 {
		t.Fatalf("first Run = %+v, want prompt and needs input", res)
	}

	c.Send("WALK")
	res, err = c.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"WALK"}, res.Lines); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}
	if !res.NeedsInput || res.Partial != "" {
		t.Errorf("second Run = %+v, want needs input with no partial text", res)
	}
}

func TestRunLines(t *testing.T) {
	c := New(vm.New(promptEcho))
	inputs := []string{"north", "take mug"}

	type state struct {
		next  int
		lines []string
	}
	in := func(s state) (string, state, error) {
		if s.next >= len(inputs) {
			return "", s, vm.ErrNoMoreInput
		}
		s.next++
		return inputs[s.next-1], s, nil
	}
	onLine := func(s state, line string) (state, error) {
		s.lines = append(s.lines, line)
		return s, nil
	}

	final, err := RunLines(c, state{}, in, onLine, nil)
	if err != nil {
		t.Fatalf("RunLines: %v", err)
	}
	if diff := cmp.Diff([]string{">", "north", "take mug"}, final.lines); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}
}

func TestRunLinesValues(t *testing.T) {
	c := New(vm.New(printer(append(text("ok\n"), 4242)...)))
	got, err := RunLines(c, vm.Word(0), nil, nil, func(_ vm.Word, v vm.Word) (vm.Word, error) {
		return v, nil
	})
	if err != nil {
		t.Fatalf("RunLines: %v", err)
	}
	if got != 4242 {
		t.Errorf("value = %d, want 4242", got)
	}
}

func TestRunLinesWithoutInput(t *testing.T) {
	_, err := RunLines[int](New(vm.New(promptEcho)), 0, nil, nil, nil)
	if !errors.Is(err, vm.ErrNeedsInput) {
		t.Errorf("error = %v, want ErrNeedsInput", err)
	}
}

func TestInteract(t *testing.T) {
	c := New(vm.New(promptEcho))
	var out bytes.Buffer
	if err := c.Interact(context.Background(), strings.NewReader("hello\nworld\n"), &out); err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if out.String() != ">hello\nworld\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestInteractPrintsValues(t *testing.T) {
	c := New(vm.New(printer(append(text("done\n"), 1000)...)))
	var out bytes.Buffer
	if err := c.Interact(context.Background(), strings.NewReader(""), &out); err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if out.String() != "done\n1000\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestInteractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(vm.New(promptEcho)).Interact(ctx, strings.NewReader("x\n"), &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
