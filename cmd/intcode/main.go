// Intcode CLI - runs, inspects and hosts Intcode programs
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/program"
	"github.com/chazu/intcode/vm"
)

var log = commonlog.GetLogger("intcode.cli")

// command is one subcommand. run receives the arguments after its name.
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *env, args []string) error
}

var commands = []command{
	{"run", "run a program, printing its outputs", runCommand},
	{"ascii", "run an ASCII program interactively on the terminal", asciiCommand},
	{"disasm", "print a disassembly listing", disasmCommand},
	{"amp", "find the best amplifier phase setting", ampCommand},
	{"net", "run a program as a network of NICs with a NAT", netCommand},
	{"serve", "start the session server (Connect HTTP/JSON)", serveCommand},
	{"snapshots", "list or delete stored snapshots", snapshotsCommand},
	{"init", "write a default intcode.toml to the current directory", initCommand},
}

// env is the state shared by all commands.
type env struct {
	manifest *manifest.Manifest
	trace    bool
}

// vmOptions returns the processor options the configuration asks for.
func (e *env) vmOptions() []vm.Option {
	return []vm.Option{
		vm.WithMemoryLimit(e.manifest.VM.MemoryLimit),
		vm.WithTrace(e.trace || e.manifest.VM.Trace),
	}
}

// loadProgram reads the program named by args[0], "-" for stdin, or the
// program configured in intcode.toml.
func (e *env) loadProgram(args []string) ([]vm.Word, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		path = e.manifest.ProgramPath()
	}
	switch path {
	case "":
		return nil, fmt.Errorf("no program given and none configured in %s", manifest.FileName)
	case "-":
		return program.Read(os.Stdin)
	}
	return program.Load(path)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: intcode [options] <command> [flags] [program]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  intcode run -in 1 day9.txt          # BOOST in test mode\n")
	fmt.Fprintf(os.Stderr, "  intcode run -set 1=12,2=2 -dump 0 day2.txt\n")
	fmt.Fprintf(os.Stderr, "  intcode amp -mode feedback day7.txt\n")
	fmt.Fprintf(os.Stderr, "  intcode net day23.txt\n")
	fmt.Fprintf(os.Stderr, "  intcode ascii day25.txt             # play the text adventure\n")
	fmt.Fprintf(os.Stderr, "  intcode serve -addr :8547\n")
}

func main() {
	verbosity := flag.Int("v", 0, "Log verbosity (0 errors only, 1 info, 2 debug)")
	logFile := flag.String("log", "", "Log to this file instead of stderr")
	configDir := flag.String("config", "", "Directory holding intcode.toml (default: search upward from cwd)")
	trace := flag.Bool("trace", false, "Log every executed instruction (needs -v 2)")
	flag.Usage = usage
	flag.Parse()

	m, err := loadManifest(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	configureLogging(m, *verbosity, *logFile)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := &env{manifest: m, trace: *trace}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		if err := c.run(ctx, e, args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			stop()
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
	usage()
	os.Exit(1)
}

// loadManifest loads intcode.toml from dir, or searches upward from the
// working directory. Without a file the defaults are used.
func loadManifest(dir string) (*manifest.Manifest, error) {
	if dir != "" {
		return manifest.Load(dir)
	}
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}
	return m, nil
}

// configureLogging applies flags over the [log] section.
func configureLogging(m *manifest.Manifest, verbosity int, logFile string) {
	if verbosity == 0 {
		verbosity = m.Log.Verbosity
	}
	path := m.LogFile()
	if logFile != "" {
		path = &logFile
	}
	commonlog.Configure(verbosity, path)
}
