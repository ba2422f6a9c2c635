package salis

import "time"

// Evolver is the pseudo-random mutation source. It owns a 128 bit xorshift
// generator and remembers, for observability, the last arena address hit by a
// cosmic ray and the last process whose registers were scrambled.
type Evolver struct {
	lastChangedAddress uint32
	lastChangedProcess uint32
	state              [4]uint32
}

// newEvolver seeds the generator from the wall clock. Runs are not meant to
// be reproducible; tests use newEvolverSeeded instead.
func newEvolver() *Evolver {
	return newEvolverSeeded(uint64(time.Now().UnixNano()))
}

// newEvolverSeeded derives the four xorshift state words from a 64 bit seed
// using splitmix64, so a given seed always yields the same mutation stream.
func newEvolverSeeded(seed uint64) *Evolver {
	e := &Evolver{}
	for i := range e.state {
		seed += 0x9e3779b97f4a7c15
		z := seed
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		e.state[i] = uint32(z ^ (z >> 31))
	}
	return e
}

// LastChangedAddress returns the arena address of the most recent cosmic ray.
func (e *Evolver) LastChangedAddress() uint32 {
	return e.lastChangedAddress
}

// LastChangedProcess returns the id of the most recently mutated process.
func (e *Evolver) LastChangedProcess() uint32 {
	return e.lastChangedProcess
}

// State returns one of the four 32 bit words of the generator state.
func (e *Evolver) State(index int) uint32 {
	return e.state[index]
}

// rand is the 128 bit xorshift step. Lightweight and fast, and good enough
// for throwing cosmic rays.
func (e *Evolver) rand() uint32 {
	t := e.state[3]
	t ^= t << 11
	t ^= t >> 8
	e.state[3] = e.state[2]
	e.state[2] = e.state[1]
	s0 := e.state[0]
	e.state[1] = s0
	t ^= s0
	t ^= s0 >> 19
	e.state[0] = t
	return t
}

// randomizeAt throws a cosmic ray: the cell at the given address is
// overwritten with a random instruction.
func (e *Evolver) randomizeAt(mem *Memory, address uint32) {
	inst := Instruction(e.rand() % InstCount)
	e.lastChangedAddress = address
	mem.SetInst(address, inst)
}

// cycle draws two random words per simulation tick. The first may land a
// cosmic ray on the arena; the second may pick a living process for a
// register mutation. Integer division by the process count makes each slot id
// come up with odds of count / 2^32, so the odds of a process mutation grow
// with the square of how many organisms are alive; with an empty table the
// mutation step is skipped outright.
func (e *Evolver) cycle(mem *Memory, procs *Procs) {
	address := e.rand()
	procID := uint32(0xffffffff)
	r2 := e.rand()
	if procs.Count() > 0 {
		procID = r2 / procs.Count()
	}
	if mem.IsAddressValid(address) {
		e.randomizeAt(mem, address)
	}
	if procID < procs.Capacity() && !procs.IsFree(procID) {
		procs.Mutate(procID, e.rand())
		e.lastChangedProcess = procID
	}
}
