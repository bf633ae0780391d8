// Package emu provides functional EE (MIPS-derived) emulation.
package emu

import "lukechampine.com/uint128"

// RegFile represents the EE register state.
// It contains 32 128-bit general-purpose registers, the HI/LO result
// registers, the shift-amount register (SA), and the PC/next-PC pair.
type RegFile struct {
	// GPR holds the 128-bit general-purpose registers.
	// Register 0 is an ordinary register; it is not hardwired to zero.
	GPR [32]uint128.Uint128

	// HI and LO hold multiply/divide results. The low 64 bits are the
	// pipeline-0 halves (HI0/LO0) addressed by MFHI/MTHI/MFLO/MTLO; the
	// high 64 bits are the pipeline-1 halves (HI1/LO1).
	HI uint128.Uint128
	LO uint128.Uint128

	// SA is the shift-amount register.
	SA uint64

	// PC is the address of the instruction being executed.
	PC uint32

	// NextPC is the address the next advance moves PC to.
	NextPC uint32

	// DelaySlot is set by a jump; the next advance steps into the delay
	// slot at PC+4 instead of jumping to NextPC.
	DelaySlot bool
}

// NewRegFile returns a register file in its reset state: every register
// zero and NextPC = 4.
func NewRegFile() *RegFile {
	return &RegFile{NextPC: 4}
}

// signExtend64 widens a 64-bit value to 128 bits by replicating bit 63.
func signExtend64(value uint64) uint128.Uint128 {
	if int64(value) < 0 {
		return uint128.New(value, ^uint64(0))
	}
	return uint128.From64(value)
}

// ReadWord reads the low 32 bits of a register.
func (r *RegFile) ReadWord(index uint8) uint32 {
	return uint32(r.GPR[index&0x1F].Lo)
}

// WriteWord replaces the whole register with value sign-extended from 32 bits.
func (r *RegFile) WriteWord(index uint8, value uint32) {
	r.GPR[index&0x1F] = signExtend64(uint64(int64(int32(value))))
}

// ReadDword reads the low 64 bits of a register.
func (r *RegFile) ReadDword(index uint8) uint64 {
	return r.GPR[index&0x1F].Lo
}

// WriteDword replaces the whole register with value sign-extended from 64 bits.
func (r *RegFile) WriteDword(index uint8, value uint64) {
	r.GPR[index&0x1F] = signExtend64(value)
}

// ReadQword reads the full 128-bit register.
func (r *RegFile) ReadQword(index uint8) uint128.Uint128 {
	return r.GPR[index&0x1F]
}

// WriteQword writes the full 128-bit register verbatim.
func (r *RegFile) WriteQword(index uint8, value uint128.Uint128) {
	r.GPR[index&0x1F] = value
}

// ReadHI reads HI0, the low 64 bits of HI.
func (r *RegFile) ReadHI() uint64 {
	return r.HI.Lo
}

// WriteHI writes HI0 and leaves HI1 untouched.
func (r *RegFile) WriteHI(value uint64) {
	r.HI.Lo = value
}

// ReadLO reads LO0, the low 64 bits of LO.
func (r *RegFile) ReadLO() uint64 {
	return r.LO.Lo
}

// WriteLO writes LO0 and leaves LO1 untouched.
func (r *RegFile) WriteLO(value uint64) {
	r.LO.Lo = value
}

// ReadHIQword reads the full HI1:HI0 pair.
func (r *RegFile) ReadHIQword() uint128.Uint128 {
	return r.HI
}

// WriteHIQword writes the full HI1:HI0 pair.
func (r *RegFile) WriteHIQword(value uint128.Uint128) {
	r.HI = value
}

// ReadLOQword reads the full LO1:LO0 pair.
func (r *RegFile) ReadLOQword() uint128.Uint128 {
	return r.LO
}

// WriteLOQword writes the full LO1:LO0 pair.
func (r *RegFile) WriteLOQword(value uint128.Uint128) {
	r.LO = value
}

// ReadSA reads the shift-amount register.
func (r *RegFile) ReadSA() uint64 {
	return r.SA
}

// WriteSA writes the shift-amount register.
func (r *RegFile) WriteSA(value uint64) {
	r.SA = value
}
