package loader

import "encoding/binary"

// GuestMemory is a sparse byte-addressed view over an Image's loaded
// segments, satisfying riscv.Memory. It is the Go analogue of the
// original SpanMemoryReader: each segment keeps its own backing slice
// rather than materializing one flat array for the whole address
// space.
type GuestMemory struct {
	segs []Segment
}

// NewGuestMemory builds a GuestMemory over img's segments.
func NewGuestMemory(img *Image) *GuestMemory {
	return &GuestMemory{segs: img.Segments}
}

func (m *GuestMemory) find(addr uint64) (*Segment, uint64, bool) {
	for i := range m.segs {
		s := &m.segs[i]
		if addr >= s.VirtAddr && addr < s.VirtAddr+s.MemSize {
			return s, addr - s.VirtAddr, true
		}
	}
	return nil, 0, false
}

// Read32 reads a little-endian 32-bit word at addr, per riscv.Memory.
// Bytes past a segment's file-backed data but within its memory size
// (BSS) read as zero.
func (m *GuestMemory) Read32(addr uint64) (uint32, bool) {
	s, off, ok := m.find(addr)
	if !ok || off+4 > s.MemSize {
		return 0, false
	}
	var buf [4]byte
	for i := range buf {
		o := off + uint64(i)
		if o < uint64(len(s.Data)) {
			buf[i] = s.Data[o]
		}
	}
	return binary.LittleEndian.Uint32(buf[:]), true
}
