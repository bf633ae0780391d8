// Package loader provides ELF and raw binary loading for EE executables.
package loader

import (
	"debug/elf"
	"fmt"
	"io"
	"os"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// DefaultStackTop is the top of the 32MB EE main RAM.
const DefaultStackTop = 0x02000000

// Segment represents a loadable segment.
type Segment struct {
	// VirtAddr is the address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint64
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded program ready for execution.
type Program struct {
	// EntryPoint is the address where execution should begin.
	EntryPoint uint32
	// Segments contains all loadable segments.
	Segments []Segment
	// InitialSP is the initial stack pointer value.
	InitialSP uint32
}

// SegmentWriter receives segment contents.
type SegmentWriter interface {
	LoadSegment(addr uint32, data []byte, memSize uint64)
}

// LoadInto copies every segment into mem.
func (p *Program) LoadInto(mem SegmentWriter) {
	for _, seg := range p.Segments {
		mem.LoadSegment(seg.VirtAddr, seg.Data, seg.MemSize)
	}
}

// IsExecutable reports whether addr lies inside an executable segment.
func (p *Program) IsExecutable(addr uint32) bool {
	for _, seg := range p.Segments {
		if seg.Flags&SegmentFlagExecute == 0 || addr < seg.VirtAddr {
			continue
		}
		if uint64(addr-seg.VirtAddr) < seg.MemSize {
			return true
		}
	}
	return false
}

// address narrows an ELF address to the 32-bit space. 64-bit files may
// carry sign-extended 32-bit addresses.
func address(v uint64) (uint32, bool) {
	if v <= 0xFFFFFFFF || uint64(int64(int32(v))) == v {
		return uint32(v), true
	}
	return 0, false
}

// Load parses a little-endian MIPS ELF binary (32- or 64-bit) and returns a
// Program ready for loading into memory. The entry point must lie in a
// PT_LOAD segment marked executable.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Machine != elf.EM_MIPS {
		return nil, fmt.Errorf("not a MIPS ELF file (machine type: %v)", f.Machine)
	}

	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}

	entry, ok := address(f.Entry)
	if !ok {
		return nil, fmt.Errorf("entry point 0x%x outside the 32-bit address space", f.Entry)
	}

	prog := &Program{
		EntryPoint: entry,
		InitialSP:  DefaultStackTop,
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		vaddr, ok := address(phdr.Vaddr)
		if !ok {
			return nil, fmt.Errorf("segment at 0x%x outside the 32-bit address space", phdr.Vaddr)
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: vaddr,
			Data:     data,
			MemSize:  phdr.Memsz,
			Flags:    flags,
		})
	}

	if !prog.IsExecutable(prog.EntryPoint) {
		return nil, fmt.Errorf("entry point 0x%08x is not in an executable segment", prog.EntryPoint)
	}

	return prog, nil
}

// LoadRaw reads a flat binary image to be placed at base. Execution starts
// at base.
func LoadRaw(path string, base uint32) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw image: %w", err)
	}

	if uint64(base)+uint64(len(data)) > 1<<32 {
		return nil, fmt.Errorf("raw image of %d bytes at 0x%08x exceeds the address space",
			len(data), base)
	}

	return &Program{
		EntryPoint: base,
		InitialSP:  DefaultStackTop,
		Segments: []Segment{{
			VirtAddr: base,
			Data:     data,
			MemSize:  uint64(len(data)),
			Flags:    SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
		}},
	}, nil
}
