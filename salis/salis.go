// Package salis implements the Salis artificial-life simulator: a fixed
// one-dimensional memory arena on which self-replicating programs compete
// under constant random mutation. The package holds the whole deterministic
// core: the arena, the mutation source, the process table with its 32
// instruction interpreter, the inter-simulation channel hooks and the binary
// snapshot format.
package salis

import "github.com/golang/glog"

// checksEnabled turns on the per-cycle invariant scans. They make the
// simulator far slower, so they stay off outside tests and debugging runs.
var checksEnabled bool

// EnableChecks switches the per-cycle self-checks on or off.
func EnableChecks(on bool) {
	checksEnabled = on
}

// Salis is one full simulator instance. The zero value is not usable; build
// one with New, NewSeeded or LoadFile.
type Salis struct {
	cycle uint32
	epoch uint32
	mem   *Memory
	evo   *Evolver
	ch    *Channel
	procs *Procs
}

// New creates a simulator with an arena of 1 << order cells and a mutation
// source seeded from the wall clock.
func New(order uint32) *Salis {
	s := &Salis{
		mem: newMemory(order),
		evo: newEvolver(),
		ch:  &Channel{},
	}
	s.procs = newProcs(s.mem, s.ch)
	return s
}

// NewSeeded is New with a reproducible mutation stream, for tests and replays.
func NewSeeded(order uint32, seed uint64) *Salis {
	s := New(order)
	s.evo = newEvolverSeeded(seed)
	return s
}

// Cycle advances the simulation one tick: the 64 bit virtual clock moves,
// the arena self-checks (when enabled), the evolver throws its cosmic ray
// and register mutation, and every living organism executes one instruction
// before the reaper trims the arena back under capacity.
func (s *Salis) Cycle() {
	s.cycle++
	if s.cycle == 0 {
		s.epoch++
	}
	if checksEnabled {
		s.mem.validate()
	}
	s.evo.cycle(s.mem, s.procs)
	s.procs.cycle()
}

// CycleCount returns the low word of the virtual clock.
func (s *Salis) CycleCount() uint32 {
	return s.cycle
}

// Epoch returns the high word of the virtual clock; it increments each time
// the cycle counter wraps.
func (s *Salis) Epoch() uint32 {
	return s.epoch
}

// Memory returns the simulator's arena.
func (s *Salis) Memory() *Memory {
	return s.mem
}

// Evolver returns the simulator's mutation source.
func (s *Salis) Evolver() *Evolver {
	return s.evo
}

// Procs returns the simulator's process table.
func (s *Salis) Procs() *Procs {
	return s.procs
}

// SetSender installs the outgoing channel hook.
func (s *Salis) SetSender(sender Sender) {
	s.ch.SetSender(sender)
}

// SetReceiver installs the incoming channel hook.
func (s *Salis) SetReceiver(receiver Receiver) {
	s.ch.SetReceiver(receiver)
}

// Compile writes a genome, given as a string of instruction glyphs, into the
// arena starting at the given address. Unknown characters are a contract
// violation.
func (s *Salis) Compile(address uint32, genome string) {
	for i := 0; i < len(genome); i++ {
		inst, ok := GlyphToInst(genome[i])
		if !ok {
			glog.Fatalf("not an instruction glyph: %q", genome[i])
		}
		s.mem.SetInst(address+uint32(i), inst)
	}
}
