// Package fetch supplies instruction words to the driver: a sparse
// little-endian memory image and an optional instruction cache in front of
// it.
package fetch

import (
	"errors"
	"fmt"
)

// ErrMisaligned is returned when an instruction fetch address is not
// word-aligned.
var ErrMisaligned = errors.New("misaligned instruction fetch")

// Fetcher returns the instruction word stored at an address.
type Fetcher interface {
	Fetch(addr uint32) (uint32, error)
}

const (
	pageBits = 12
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

type page [pageSize]byte

// Memory is a sparse, little-endian byte-addressable image of the 32-bit
// address space. Unwritten bytes read as zero.
type Memory struct {
	pages map[uint32]*page
}

// NewMemory creates an empty memory image.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32]*page)}
}

func (m *Memory) pageFor(addr uint32, create bool) *page {
	num := addr >> pageBits
	p, ok := m.pages[num]
	if !ok && create {
		p = &page{}
		m.pages[num] = p
	}
	return p
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint32) byte {
	p := m.pageFor(addr, false)
	if p == nil {
		return 0
	}
	return p[addr&pageMask]
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint32, value byte) {
	m.pageFor(addr, true)[addr&pageMask] = value
}

// Read32 reads a little-endian word. The address need not be aligned.
func (m *Memory) Read32(addr uint32) uint32 {
	var v uint32
	for i := uint32(0); i < 4; i++ {
		v |= uint32(m.Read8(addr+i)) << (8 * i)
	}
	return v
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, value uint32) {
	for i := uint32(0); i < 4; i++ {
		m.Write8(addr+i, byte(value>>(8*i)))
	}
}

// Read copies size bytes starting at addr.
func (m *Memory) Read(addr uint32, size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = m.Read8(addr + uint32(i))
	}
	return data
}

// Write stores data starting at addr.
func (m *Memory) Write(addr uint32, data []byte) {
	for i, b := range data {
		m.Write8(addr+uint32(i), b)
	}
}

// LoadSegment copies data to addr and zero-fills up to memSize bytes.
func (m *Memory) LoadSegment(addr uint32, data []byte, memSize uint64) {
	m.Write(addr, data)
	for i := uint64(len(data)); i < memSize; i++ {
		m.Write8(addr+uint32(i), 0)
	}
}

// Fetch reads the instruction word at addr.
func (m *Memory) Fetch(addr uint32) (uint32, error) {
	if addr&0x3 != 0 {
		return 0, fmt.Errorf("%w at 0x%08X", ErrMisaligned, addr)
	}
	return m.Read32(addr), nil
}

// Pages returns the number of pages that have been touched.
func (m *Memory) Pages() int {
	return len(m.pages)
}
