// Package network simulates a packet-switched network of processors that
// all run the same NIC program.
//
// Every machine is given its network address as its first input. A machine
// sends a packet by outputting three values: destination, X, Y. When a
// machine asks for input and no packet is waiting it receives -1.
//
// Packets addressed to the NAT are not delivered; the NAT keeps the last one.
// When a whole round passes in which no machine had a packet waiting and no
// machine sent anything, the network is idle and the NAT sends its stored
// packet to address 0.
//
// Machines are scheduled round-robin on the calling goroutine. Each turn a
// machine gets its queued packets (or a single -1) and runs until it asks
// for more input.
package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/intcode/vm"
)

const (
	DefaultSize       = 50
	DefaultNATAddress = 255
)

// Empty is the input a machine receives when no packet is waiting.
const Empty vm.Word = -1

var (
	ErrIdle       = errors.New("network idle with no packet at the NAT")
	ErrAllHalted  = errors.New("every machine halted")
	ErrMaxRounds  = errors.New("round limit reached")
	ErrBadAddress = errors.New("NAT address collides with a machine address")
)

// Packet is one message on the network.
type Packet struct {
	Dest vm.Word
	X, Y vm.Word
}

func (p Packet) String() string {
	return fmt.Sprintf("%d <- (%d, %d)", p.Dest, p.X, p.Y)
}

// Result summarizes a completed run.
type Result struct {
	FirstNATY vm.Word // Y of the first packet sent to the NAT
	RepeatedY vm.Word // first Y the NAT delivered twice in a row
	Rounds    int
	Sent      int // packets sent by machines, including to the NAT
	Dropped   int // packets to addresses that do not exist
}

// Option configures a Network.
type Option func(*Network)

// WithSize sets the number of machines.
func WithSize(n int) Option {
	return func(nw *Network) { nw.size = n }
}

// WithNATAddress sets the address the NAT listens on.
func WithNATAddress(addr vm.Word) Option {
	return func(nw *Network) { nw.natAddr = addr }
}

// WithMaxRounds bounds the number of rounds Run executes. Zero means no
// limit.
func WithMaxRounds(n int) Option {
	return func(nw *Network) { nw.maxRounds = n }
}

// WithLogger sets the logger used for network events.
func WithLogger(log commonlog.Logger) Option {
	return func(nw *Network) { nw.log = log }
}

// WithVMOptions passes options to every machine's processor.
func WithVMOptions(opts ...vm.Option) Option {
	return func(nw *Network) { nw.vmOpts = append(nw.vmOpts, opts...) }
}

type machine struct {
	p       *vm.Processor
	queue   []Packet
	pending []vm.Word // partial packet being output
}

// Network is a set of machines plus the NAT.
type Network struct {
	program   []vm.Word
	size      int
	natAddr   vm.Word
	maxRounds int
	log       commonlog.Logger
	vmOpts    []vm.Option

	machines []*machine
	nat      *Packet
}

// New creates a network whose machines all run program.
func New(program []vm.Word, opts ...Option) *Network {
	nw := &Network{
		program: program,
		size:    DefaultSize,
		natAddr: DefaultNATAddress,
		log:     commonlog.GetLogger("intcode.network"),
	}
	for _, opt := range opts {
		opt(nw)
	}
	return nw
}

// Size returns the number of machines.
func (nw *Network) Size() int {
	return nw.size
}

func (nw *Network) boot() error {
	if nw.natAddr >= 0 && nw.natAddr < vm.Word(nw.size) {
		return fmt.Errorf("%w: %d", ErrBadAddress, nw.natAddr)
	}
	nw.machines = make([]*machine, nw.size)
	for i := range nw.machines {
		opts := append([]vm.Option{vm.WithInputs(vm.Word(i))}, nw.vmOpts...)
		nw.machines[i] = &machine{p: vm.New(nw.program, opts...)}
	}
	nw.nat = nil
	return nil
}

// Run boots every machine and schedules them until the NAT delivers the
// same Y value twice in a row.
func (nw *Network) Run(ctx context.Context) (Result, error) {
	var (
		res          Result
		sawNAT       bool
		delivered    bool
		lastDelivery vm.Word
	)
	if err := nw.boot(); err != nil {
		return res, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if nw.maxRounds > 0 && res.Rounds >= nw.maxRounds {
			return res, fmt.Errorf("%w after %d rounds", ErrMaxRounds, res.Rounds)
		}
		res.Rounds++

		idle := true
		running := 0
		for addr, m := range nw.machines {
			if m.p.Halted() {
				continue
			}
			if len(m.queue) > 0 {
				idle = false
			}
			sent, err := nw.turn(m)
			if err != nil {
				return res, fmt.Errorf("machine %d: %w", addr, err)
			}
			if !m.p.Halted() {
				running++
			}
			for _, pkt := range sent {
				idle = false
				res.Sent++
				switch {
				case pkt.Dest == nw.natAddr:
					if !sawNAT {
						res.FirstNATY, sawNAT = pkt.Y, true
					}
					p := pkt
					nw.nat = &p
				case pkt.Dest >= 0 && pkt.Dest < vm.Word(nw.size):
					dst := nw.machines[pkt.Dest]
					dst.queue = append(dst.queue, pkt)
				default:
					res.Dropped++
					nw.log.Warningf("machine %d sent to unknown address: %s", addr, pkt)
				}
			}
		}

		if running == 0 {
			return res, ErrAllHalted
		}
		if !idle {
			continue
		}

		if nw.nat == nil {
			return res, fmt.Errorf("%w (round %d)", ErrIdle, res.Rounds)
		}
		pkt := Packet{Dest: 0, X: nw.nat.X, Y: nw.nat.Y}
		nw.log.Debugf("idle at round %d, NAT sends %s", res.Rounds, pkt)
		if delivered && pkt.Y == lastDelivery {
			res.RepeatedY = pkt.Y
			nw.log.Infof("NAT repeated y=%d after %d rounds", pkt.Y, res.Rounds)
			return res, nil
		}
		delivered, lastDelivery = true, pkt.Y
		nw.machines[0].queue = append(nw.machines[0].queue, pkt)
	}
}

// turn feeds one machine its waiting packets, or Empty, and runs it until
// it asks for more input or halts. It returns the packets it sent.
func (nw *Network) turn(m *machine) ([]Packet, error) {
	if len(m.queue) == 0 {
		m.p.WriteInt(Empty)
	}
	for _, pkt := range m.queue {
		m.p.WriteInts(pkt.X, pkt.Y)
	}
	m.queue = m.queue[:0]

	var sent []Packet
	for {
		st, err := m.p.Resume()
		if err != nil {
			return sent, err
		}
		switch st.Kind {
		case vm.Halted, vm.NeedsInput:
			return sent, nil
		case vm.Output:
			m.pending = append(m.pending, st.Value)
			if len(m.pending) == 3 {
				sent = append(sent, Packet{Dest: m.pending[0], X: m.pending[1], Y: m.pending[2]})
				m.pending = m.pending[:0]
			}
		}
	}
}
