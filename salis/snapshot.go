package salis

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Snapshot layout, little-endian u32 words unless noted:
//
//	header:  isInit(=1), cycle, epoch
//	memory:  isInit(=1), order, size, allocated, capacity,
//	         instCounter[32], cells[size] (u8 each)
//	evolver: isInit(=1), lastChangedAddress, lastChangedProcess, state[4]
//	procs:   isInit(=1), count, capacity, first, last,
//	         procs[capacity] (20 u32 each)
//
// The format is native to one opcode table and flag encoding; it makes no
// attempt at portability across differing endianness.

const snapInitWord = 1

// snapshotSize returns the byte size of a serialized simulator.
func (s *Salis) snapshotSize() int {
	return 3*4 + // header
		5*4 + InstCount*4 + int(s.mem.size) + // memory
		7*4 + // evolver
		5*4 + int(s.procs.capacity)*procWords*4 // process table
}

type snapWriter struct {
	data   []byte
	offset int
}

func (w *snapWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.data[w.offset:], v)
	w.offset += 4
}

func (w *snapWriter) bytes(b []byte) {
	copy(w.data[w.offset:], b)
	w.offset += len(b)
}

type snapReader struct {
	data   []byte
	offset int
}

func (r *snapReader) u32() (uint32, error) {
	if r.offset+4 > len(r.data) {
		return 0, fmt.Errorf("snapshot truncated at offset %d", r.offset)
	}
	v := binary.LittleEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v, nil
}

func (r *snapReader) initWord(section string) error {
	v, err := r.u32()
	if err != nil {
		return err
	}
	if v != snapInitWord {
		return fmt.Errorf("%s section init word is %d, want %d", section, v, snapInitWord)
	}
	return nil
}

func (r *snapReader) bytes(n int) ([]byte, error) {
	if r.offset+n > len(r.data) {
		return nil, fmt.Errorf("snapshot truncated at offset %d", r.offset)
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

// Serialize packs the whole simulator state into a byte slice.
func (s *Salis) Serialize() []byte {
	w := &snapWriter{data: make([]byte, s.snapshotSize())}

	w.u32(snapInitWord)
	w.u32(s.cycle)
	w.u32(s.epoch)

	w.u32(snapInitWord)
	w.u32(s.mem.order)
	w.u32(s.mem.size)
	w.u32(s.mem.allocated)
	w.u32(s.mem.capacity)
	for i := 0; i < InstCount; i++ {
		w.u32(s.mem.instCounter[i])
	}
	w.bytes(s.mem.cells)

	w.u32(snapInitWord)
	w.u32(s.evo.lastChangedAddress)
	w.u32(s.evo.lastChangedProcess)
	for i := range s.evo.state {
		w.u32(s.evo.state[i])
	}

	w.u32(snapInitWord)
	w.u32(s.procs.count)
	w.u32(s.procs.capacity)
	w.u32(s.procs.first)
	w.u32(s.procs.last)
	for pidx := range s.procs.procs {
		words := s.procs.procs[pidx].Words()
		for _, word := range words {
			w.u32(word)
		}
	}

	return w.data
}

// Deserialize rebuilds a simulator from a serialized byte slice. A malformed
// snapshot yields an error and no simulator.
func Deserialize(data []byte) (*Salis, error) {
	r := &snapReader{data: data}
	s := &Salis{ch: &Channel{}}

	if err := r.initWord("header"); err != nil {
		return nil, err
	}
	var err error
	if s.cycle, err = r.u32(); err != nil {
		return nil, err
	}
	if s.epoch, err = r.u32(); err != nil {
		return nil, err
	}

	if err := r.initWord("memory"); err != nil {
		return nil, err
	}
	mem := &Memory{}
	if mem.order, err = r.u32(); err != nil {
		return nil, err
	}
	if mem.size, err = r.u32(); err != nil {
		return nil, err
	}
	if mem.allocated, err = r.u32(); err != nil {
		return nil, err
	}
	if mem.capacity, err = r.u32(); err != nil {
		return nil, err
	}
	if mem.order >= 32 || mem.size != 1<<mem.order {
		return nil, fmt.Errorf("snapshot memory geometry is corrupt: order=%d size=%d", mem.order, mem.size)
	}
	for i := 0; i < InstCount; i++ {
		if mem.instCounter[i], err = r.u32(); err != nil {
			return nil, err
		}
	}
	cells, err := r.bytes(int(mem.size))
	if err != nil {
		return nil, err
	}
	mem.cells = make([]byte, mem.size)
	copy(mem.cells, cells)
	s.mem = mem

	if err := r.initWord("evolver"); err != nil {
		return nil, err
	}
	evo := &Evolver{}
	if evo.lastChangedAddress, err = r.u32(); err != nil {
		return nil, err
	}
	if evo.lastChangedProcess, err = r.u32(); err != nil {
		return nil, err
	}
	for i := range evo.state {
		if evo.state[i], err = r.u32(); err != nil {
			return nil, err
		}
	}
	s.evo = evo

	if err := r.initWord("process"); err != nil {
		return nil, err
	}
	procs := &Procs{mem: s.mem, ch: s.ch}
	if procs.count, err = r.u32(); err != nil {
		return nil, err
	}
	if procs.capacity, err = r.u32(); err != nil {
		return nil, err
	}
	if procs.first, err = r.u32(); err != nil {
		return nil, err
	}
	if procs.last, err = r.u32(); err != nil {
		return nil, err
	}
	if procs.capacity == 0 || procs.count > procs.capacity {
		return nil, fmt.Errorf("snapshot process table is corrupt: count=%d capacity=%d", procs.count, procs.capacity)
	}
	if procs.count > 0 && (procs.first >= procs.capacity || procs.last >= procs.capacity) {
		return nil, fmt.Errorf("snapshot queue indices are corrupt: first=%#x last=%#x", procs.first, procs.last)
	}
	procs.procs = make([]Proc, procs.capacity)
	for pidx := range procs.procs {
		var words [procWords]uint32
		for widx := range words {
			if words[widx], err = r.u32(); err != nil {
				return nil, err
			}
		}
		procs.procs[pidx] = procFromWords(words)
	}
	s.procs = procs

	if r.offset != len(data) {
		return nil, fmt.Errorf("snapshot has %d trailing bytes", len(data)-r.offset)
	}
	return s, nil
}

// SaveFile writes the simulator state to a snapshot file.
func (s *Salis) SaveFile(path string) error {
	if err := os.WriteFile(path, s.Serialize(), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadFile rebuilds a simulator from a snapshot file. On any failure the
// returned simulator is nil, so the caller holds no half-loaded state.
func LoadFile(path string) (*Salis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	s, err := Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", path, err)
	}
	return s, nil
}
