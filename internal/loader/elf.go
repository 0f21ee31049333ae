// Package loader parses a RISC-V64 ELF executable into the segments
// the rest of riscy decodes and translates.
package loader

import (
	"debug/elf"
	"fmt"
	"io"
)

// Segment is one PT_LOAD segment from the guest ELF image.
type Segment struct {
	VirtAddr uint64
	Data     []byte
	MemSize  uint64
}

// Image is a loaded RISC-V64 executable ready for decoding.
type Image struct {
	Entry    uint64
	Segments []Segment
}

// Load parses the RISC-V64 ELF file at path, validating class, byte
// order (little-endian) and machine type.
func Load(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS64 {
		return nil, fmt.Errorf("loader: %s is not a 64-bit ELF file", path)
	}
	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("loader: %s is not a little-endian ELF file", path)
	}
	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("loader: %s is not a RISC-V ELF file (machine %v)", path, f.Machine)
	}

	img := &Image{Entry: f.Entry}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("loader: read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("loader: short read for segment at 0x%x: got %d, want %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}
		img.Segments = append(img.Segments, Segment{
			VirtAddr: phdr.Vaddr,
			Data:     data,
			MemSize:  phdr.Memsz,
		})
	}

	if len(img.Segments) == 0 {
		return nil, fmt.Errorf("loader: %s has no PT_LOAD segments", path)
	}
	return img, nil
}
