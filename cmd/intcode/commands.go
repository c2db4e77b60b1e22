package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/intcode/amplifier"
	"github.com/chazu/intcode/ascii"
	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/network"
	"github.com/chazu/intcode/program"
	"github.com/chazu/intcode/server"
	"github.com/chazu/intcode/store"
	"github.com/chazu/intcode/vm"
)

func runCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	in := fs.String("in", "", "Comma-separated input values")
	fromStdin := fs.Bool("stdin", false, "Read further input values from stdin, one per line")
	set := fs.String("set", "", "Patch memory before running, e.g. 1=12,2=2")
	dump := fs.Int("dump", -1, "Print this memory cell after the program halts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	prog, err := e.loadProgram(fs.Args())
	if err != nil {
		return err
	}
	inputs, err := program.Parse(*in)
	if err != nil {
		return fmt.Errorf("-in: %w", err)
	}

	p := vm.New(prog, append(e.vmOptions(), vm.WithInputs(inputs...))...)
	if err := patchMemory(p, *set); err != nil {
		return err
	}

	var input vm.InputFunc[int]
	if *fromStdin {
		input = lineInput(os.Stdin)
	}
	count, err := vm.RunWithCallbacks(p, 0, input, func(n int, v vm.Word) (int, error) {
		fmt.Println(v)
		return n + 1, nil
	})
	if errors.Is(err, vm.ErrNeedsInput) {
		return fmt.Errorf("%w at ip=%d (supply values with -in or -stdin)", err, p.IP())
	}
	if err != nil {
		return err
	}
	log.Infof("halted after %d steps with %d outputs", p.Steps(), count)

	if *dump >= 0 {
		v, err := p.Memory().Read(vm.Word(*dump))
		if err != nil {
			return err
		}
		fmt.Printf("mem[%d] = %d\n", *dump, v)
	}
	return nil
}

// patchMemory applies "addr=value" pairs separated by commas.
func patchMemory(p *vm.Processor, pairs string) error {
	if pairs == "" {
		return nil
	}
	for _, pair := range strings.Split(pairs, ",") {
		addr, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("-set: %q is not addr=value", pair)
		}
		a, err := strconv.ParseInt(strings.TrimSpace(addr), 10, 64)
		if err != nil {
			return fmt.Errorf("-set: %w", err)
		}
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("-set: %w", err)
		}
		if err := p.Memory().Write(vm.Word(a), vm.Word(v)); err != nil {
			return fmt.Errorf("-set: %w", err)
		}
	}
	return nil
}

// lineInput reads one integer per line from r. The run stops cleanly at EOF.
func lineInput(r io.Reader) vm.InputFunc[int] {
	scanner := bufio.NewScanner(r)
	return func(n int) (vm.Word, int, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, n, err
			}
			return 0, n, vm.ErrNoMoreInput
		}
		v, err := strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
		if err != nil {
			return 0, n, fmt.Errorf("stdin: %w", err)
		}
		return vm.Word(v), n, nil
	}
}

func asciiCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("ascii", flag.ContinueOnError)
	script := fs.String("script", "", "File of input lines to send before reading the terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	prog, err := e.loadProgram(fs.Args())
	if err != nil {
		return err
	}
	c := ascii.New(vm.New(prog, e.vmOptions()...))

	if *script != "" {
		data, err := os.ReadFile(*script)
		if err != nil {
			return err
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		c.SendLines(lines...)
	}
	return c.Interact(ctx, os.Stdin, os.Stdout)
}

func disasmCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	name := fs.String("name", "", "Name printed in the listing header (default: file name)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	prog, err := e.loadProgram(fs.Args())
	if err != nil {
		return err
	}
	if *name == "" {
		*name = "program"
		if fs.NArg() > 0 {
			*name = filepath.Base(fs.Arg(0))
		}
	}
	fmt.Print(vm.DisassembleWithName(prog, *name))
	return nil
}

func ampCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("amp", flag.ContinueOnError)
	modeName := fs.String("mode", "serial", "Stage wiring: serial or feedback")
	phaseList := fs.String("phases", "", "Comma-separated phase set (default 0-4 serial, 5-9 feedback)")
	exact := fs.Bool("exact", false, "Run the phases in the given order instead of searching")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode, err := amplifier.ParseMode(*modeName)
	if err != nil {
		return err
	}
	prog, err := e.loadProgram(fs.Args())
	if err != nil {
		return err
	}

	phases := []vm.Word{0, 1, 2, 3, 4}
	if mode == amplifier.ModeFeedback {
		phases = []vm.Word{5, 6, 7, 8, 9}
	}
	if *phaseList != "" {
		if phases, err = program.Parse(*phaseList); err != nil {
			return fmt.Errorf("-phases: %w", err)
		}
	}

	if *exact {
		signal, err := amplifier.Run(prog, phases, mode)
		if err != nil {
			return err
		}
		fmt.Println(signal)
		return nil
	}
	signal, best, err := amplifier.MaxSignal(prog, phases, mode)
	if err != nil {
		return err
	}
	fmt.Printf("%d (phases %s)\n", signal, program.Format(best))
	return nil
}

func netCommand(ctx context.Context, e *env, args []string) error {
	cfg := e.manifest.Network
	fs := flag.NewFlagSet("net", flag.ContinueOnError)
	size := fs.Int("size", cfg.Size, "Number of machines")
	nat := fs.Int64("nat", cfg.NATAddress, "NAT address")
	maxRounds := fs.Int("max-rounds", cfg.MaxRounds, "Stop after this many rounds (0 = no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	prog, err := e.loadProgram(fs.Args())
	if err != nil {
		return err
	}
	nw := network.New(prog,
		network.WithSize(*size),
		network.WithNATAddress(vm.Word(*nat)),
		network.WithMaxRounds(*maxRounds),
		network.WithVMOptions(e.vmOptions()...),
	)
	res, err := nw.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("first NAT y:    %d\n", res.FirstNATY)
	fmt.Printf("repeated NAT y: %d\n", res.RepeatedY)
	log.Infof("%d rounds, %d packets sent, %d dropped", res.Rounds, res.Sent, res.Dropped)
	return nil
}

func serveCommand(ctx context.Context, e *env, args []string) error {
	m := e.manifest
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", m.Server.Addr, "Listen address (host:port or :port)")
	backend := fs.String("store", m.Store.Backend, "Snapshot store: memory, sqlite or pebble")
	storePath := fs.String("store-path", m.StorePath(), "Snapshot store location")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snapshots, err := store.Open(*backend, *storePath)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	srv := server.New(
		server.WithStore(snapshots),
		server.WithVMOptions(e.vmOptions()...),
		server.WithVMOptions(vm.WithMemoryLimit(m.SessionMemoryLimit())),
		server.WithMaxSessions(m.Server.MaxSessions),
	)
	defer srv.Stop()
	return srv.ListenAndServe(ctx, *addr)
}

// snapshotsCommand handles `intcode snapshots [list|show <name>|rm <name>]`.
func snapshotsCommand(ctx context.Context, e *env, args []string) error {
	snapshots, err := store.OpenManifest(e.manifest)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "list":
		names, err := snapshots.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	case "show", "rm":
		if len(args) < 2 {
			return fmt.Errorf("usage: intcode snapshots %s <name>", sub)
		}
		if sub == "rm" {
			return snapshots.Delete(args[1])
		}
		snap, err := snapshots.Get(args[1])
		if err != nil {
			return err
		}
		fmt.Printf("name:          %s\n", args[1])
		fmt.Printf("ip:            %d\n", snap.IP)
		fmt.Printf("relative base: %d\n", snap.RelativeBase)
		fmt.Printf("halted:        %t\n", snap.Halted)
		fmt.Printf("steps:         %d\n", snap.Steps)
		fmt.Printf("memory:        %d words\n", len(snap.Memory))
		fmt.Printf("pending input: %s\n", program.Format(snap.Inputs))
		return nil
	}
	return fmt.Errorf("unknown snapshots subcommand: %s", sub)
}

func initCommand(ctx context.Context, e *env, args []string) error {
	if _, err := os.Stat(manifest.FileName); err == nil {
		return fmt.Errorf("%s already exists", manifest.FileName)
	}
	if err := manifest.Default().Save("."); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", manifest.FileName)
	return nil
}
