package salis

import (
	"sync"

	"github.com/golang/glog"
)

// Arena byte layout: bits 0-4 hold the instruction, bit 5 marks the cell as
// allocated by a living process. Bits 6-7 are always clear inside the arena;
// the renderer uses them as overlay space on output pixels only.
const (
	instMask      = 0x1f
	AllocFlag     = 1 << 5
	BlockFlag     = 1 << 6
	IPFlag        = 1 << 7
	maxRenderZoom = 0x10000
)

// Memory is the fixed one-dimensional arena all organisms live on. Size is
// always a power of two (1 << order) and never changes during a simulation.
type Memory struct {
	order       uint32
	size        uint32
	allocated   uint32
	capacity    uint32
	instCounter [InstCount]uint32
	cells       []byte
}

// newMemory allocates a zeroed arena of size 1 << order.
func newMemory(order uint32) *Memory {
	if order >= 32 {
		glog.Fatalf("memory order out of range: %d", order)
	}
	m := &Memory{
		order:    order,
		size:     1 << order,
		capacity: (1 << order) / 2,
	}
	m.instCounter[NOP0] = m.size
	m.cells = make([]byte, m.size)
	return m
}

// Order returns the memory order (size = 1 << order).
func (m *Memory) Order() uint32 {
	return m.order
}

// Size returns the arena size in cells.
func (m *Memory) Size() uint32 {
	return m.size
}

// Allocated returns the number of cells currently flagged as allocated.
func (m *Memory) Allocated() uint32 {
	return m.allocated
}

// Capacity returns the reaping threshold (half the arena).
func (m *Memory) Capacity() uint32 {
	return m.capacity
}

// IsOverCapacity reports whether the arena is filled above 50%. When it is,
// the oldest organisms get popped from the reaper queue.
func (m *Memory) IsOverCapacity() bool {
	return m.allocated > m.capacity
}

// IsAddressValid reports whether an address lies inside the arena.
func (m *Memory) IsAddressValid(address uint32) bool {
	return address < m.size
}

func (m *Memory) checkAddress(address uint32) {
	if !m.IsAddressValid(address) {
		glog.Fatalf("address out of range: %#x (size %#x)", address, m.size)
	}
}

// IsAllocated reports whether a cell carries the allocated flag.
func (m *Memory) IsAllocated(address uint32) bool {
	m.checkAddress(address)
	return m.cells[address]&AllocFlag != 0
}

// setAllocated raises the allocated flag on a cell. Idempotent: the counter
// moves only on an actual change.
func (m *Memory) setAllocated(address uint32) {
	m.checkAddress(address)
	if m.cells[address]&AllocFlag == 0 {
		m.cells[address] ^= AllocFlag
		m.allocated++
	}
}

// unsetAllocated clears the allocated flag on a cell.
func (m *Memory) unsetAllocated(address uint32) {
	m.checkAddress(address)
	if m.cells[address]&AllocFlag != 0 {
		m.cells[address] ^= AllocFlag
		m.allocated--
	}
}

// GetInst returns the instruction stored at an address, with flag bits off.
func (m *Memory) GetInst(address uint32) Instruction {
	m.checkAddress(address)
	return Instruction(m.cells[address] & instMask)
}

// SetInst overwrites the instruction at an address, keeping the opcode
// histogram in sync. The allocated flag is preserved.
func (m *Memory) SetInst(address uint32, inst Instruction) {
	m.checkAddress(address)
	if !IsInst(uint32(inst)) {
		glog.Fatalf("invalid instruction: %#x", byte(inst))
	}
	m.instCounter[m.GetInst(address)]--
	m.cells[address] &^= instMask
	m.cells[address] |= byte(inst)
	m.instCounter[inst]++
}

// GetByte returns the raw cell value, instruction and flag bits together.
func (m *Memory) GetByte(address uint32) byte {
	m.checkAddress(address)
	return m.cells[address]
}

// InstCount returns how many cells currently hold a given opcode.
func (m *Memory) InstCount(inst Instruction) uint32 {
	if !IsInst(uint32(inst)) {
		glog.Fatalf("invalid instruction: %#x", byte(inst))
	}
	return m.instCounter[inst]
}

// Render writes a 1D downsampled image of the arena into buffer. Each output
// pixel covers cellSize consecutive cells starting at origin: its low 5 bits
// are the mean opcode value over the span and bit 5 is set if any cell in the
// span is allocated. Cells past the end of the arena count as zero. The fold
// is read-only, so pixels are computed on a pool of workers.
func (m *Memory) Render(origin, cellSize, buffSize uint32, buffer []byte) {
	m.checkAddress(origin)
	if cellSize == 0 || cellSize > maxRenderZoom {
		glog.Fatalf("invalid render cell size: %d", cellSize)
	}
	if buffSize == 0 || uint32(len(buffer)) < buffSize {
		glog.Fatalf("invalid render buffer: need %d cells, have %d", buffSize, len(buffer))
	}
	var wg sync.WaitGroup
	workers := renderWorkers(buffSize)
	chunk := (buffSize + workers - 1) / workers
	for w := uint32(0); w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > buffSize {
			hi = buffSize
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi uint32) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				var instSum uint32
				var allocFlag byte
				cellAddr := origin + i*cellSize
				for j := uint32(0); j < cellSize; j++ {
					address := cellAddr + j
					if !m.IsAddressValid(address) {
						continue
					}
					instSum += uint32(m.GetInst(address))
					if m.cells[address]&AllocFlag != 0 {
						allocFlag = AllocFlag
					}
				}
				buffer[i] = byte(instSum/cellSize) | allocFlag
			}
		}(lo, hi)
	}
	wg.Wait()
}

// validate runs the per-cycle arena self-check: the opcode histogram must sum
// to the arena size and the allocated counter must match a linear scan of the
// flag bits.
func (m *Memory) validate() {
	var sum uint32
	for i := 0; i < InstCount; i++ {
		if m.instCounter[i] > m.size {
			glog.Fatalf("instruction counter overflow: inst=%d count=%d", i, m.instCounter[i])
		}
		sum += m.instCounter[i]
	}
	if sum != m.size {
		glog.Fatalf("instruction counters sum to %d, want %d", sum, m.size)
	}
	var allocated uint32
	for address := uint32(0); address < m.size; address++ {
		if m.cells[address]&AllocFlag != 0 {
			allocated++
		}
	}
	if allocated != m.allocated {
		glog.Fatalf("allocated counter is %d, flag scan found %d", m.allocated, allocated)
	}
	if m.capacity > m.size/2 {
		glog.Fatalf("capacity %d exceeds half of size %d", m.capacity, m.size)
	}
}
