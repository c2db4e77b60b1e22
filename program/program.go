// Package program reads and writes Intcode program text: comma-separated
// signed decimal integers.
package program

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/chazu/intcode/vm"
)

// Parse decodes program text. Whitespace around values and a trailing
// newline are ignored. An empty input yields an empty program.
func Parse(text string) ([]vm.Word, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []vm.Word{}, nil
	}
	fields := strings.Split(text, ",")
	prog := make([]vm.Word, 0, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "word %d", i)
		}
		prog = append(prog, vm.Word(n))
	}
	return prog, nil
}

// MustParse is like Parse but panics on error. It is meant for programs
// embedded in source code and tests.
func MustParse(text string) []vm.Word {
	prog, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return prog
}

// Read decodes a whole program from r.
func Read(r io.Reader) ([]vm.Word, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "read failed")
	}
	return Parse(buf.String())
}

// Load reads and decodes the program file fileName.
func Load(fileName string) ([]vm.Word, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "open failed")
	}
	defer f.Close()
	prog, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", fileName)
	}
	return prog, nil
}

// Format encodes a program as comma-separated text without a trailing
// newline.
func Format(prog []vm.Word) string {
	var sb strings.Builder
	for i, w := range prog {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(int64(w), 10))
	}
	return sb.String()
}

// Save writes prog to fileName followed by a newline.
func Save(fileName string, prog []vm.Word) error {
	if err := os.WriteFile(fileName, []byte(Format(prog)+"\n"), 0o644); err != nil {
		return errors.Wrap(err, "save failed")
	}
	return nil
}
