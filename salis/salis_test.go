package salis

import "testing"

func TestNewSimulator(t *testing.T) {
	s := New(8)
	if s.CycleCount() != 0 || s.Epoch() != 0 {
		t.Errorf("clock = %d/%d, want 0/0", s.CycleCount(), s.Epoch())
	}
	if s.Memory().Size() != 256 || s.Memory().Capacity() != 128 {
		t.Errorf("memory = %d/%d, want 256/128", s.Memory().Size(), s.Memory().Capacity())
	}
	if s.Procs().Count() != 0 {
		t.Errorf("count = %d, want 0", s.Procs().Count())
	}
	if s.Procs().First() != noProc || s.Procs().Last() != noProc {
		t.Errorf("first/last = %#x/%#x, want sentinel", s.Procs().First(), s.Procs().Last())
	}
}

func TestCycleAdvancesClock(t *testing.T) {
	s := NewSeeded(8, 11)
	for i := 0; i < 10; i++ {
		s.Cycle()
	}
	if s.CycleCount() != 10 {
		t.Errorf("cycle = %d, want 10", s.CycleCount())
	}
	if s.Epoch() != 0 {
		t.Errorf("epoch = %d, want 0", s.Epoch())
	}
}

func TestCycleWrapsIntoEpoch(t *testing.T) {
	s := NewSeeded(8, 11)
	s.cycle = ^uint32(0)
	s.Cycle()
	if s.CycleCount() != 0 || s.Epoch() != 1 {
		t.Errorf("clock = %d/%d after wrap, want 0/1", s.CycleCount(), s.Epoch())
	}
}

func TestCompile(t *testing.T) {
	s := New(8)
	s.Compile(10, "}ab$")
	if s.Memory().GetInst(10) != MALF || s.Memory().GetInst(13) != SPLT {
		t.Error("compiled genome does not match glyphs")
	}
	if s.Memory().InstCount(MALF) != 1 {
		t.Errorf("MALF count = %d, want 1", s.Memory().InstCount(MALF))
	}
}

func TestSeededRunsAreIdentical(t *testing.T) {
	run := func() *Salis {
		s := NewSeeded(8, 77)
		s.Compile(0, ancestorGenome)
		s.Procs().Create(0, uint32(len(ancestorGenome)))
		for i := 0; i < 2000; i++ {
			s.Cycle()
		}
		return s
	}
	a, b := run(), run()
	bytesA, bytesB := a.Serialize(), b.Serialize()
	if string(bytesA) != string(bytesB) {
		t.Error("two runs with the same seed diverged")
	}
}
