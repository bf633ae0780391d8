// Package emu provides functional EE emulation.
package emu

// BranchUnit implements the register-indirect jumps and the PC advance
// that realizes the branch delay slot.
//
// A jump never changes PC. It writes the target to NextPC and marks the
// register file so that the next Advance steps into the delay slot at
// PC+4; the advance after that reaches the target.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// JR jumps to the low 32 bits of rs after the delay slot.
func (b *BranchUnit) JR(rs uint8) {
	b.regFile.NextPC = b.regFile.ReadWord(rs)
	b.regFile.DelaySlot = true
}

// JALR jumps to the low 32 bits of rs after the delay slot and links
// rd = PC + 8.
func (b *BranchUnit) JALR(rd, rs uint8) {
	// Read target first (in case rd == rs)
	target := b.regFile.ReadWord(rs)

	b.regFile.WriteWord(rd, b.regFile.PC+8)

	b.regFile.NextPC = target
	b.regFile.DelaySlot = true
}

// Advance moves PC to the next instruction to execute.
func (b *BranchUnit) Advance() {
	r := b.regFile
	if r.DelaySlot {
		r.PC += 4
		r.DelaySlot = false
		return
	}

	r.PC = r.NextPC
	r.NextPC = r.PC + 4
}

// SetEntry arranges for the next Advance to land on entry.
func (b *BranchUnit) SetEntry(entry uint32) {
	b.regFile.NextPC = entry
	b.regFile.DelaySlot = false
}
