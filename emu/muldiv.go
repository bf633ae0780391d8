package emu

import "math"

// MulDivUnit implements multiply, divide, and the HI/LO/SA transfer
// operations.
//
// Results land in HI0/LO0 as 32-bit values sign-extended to 64 bits.
// HI1/LO1 are never touched here.
//
// Division by zero is architecturally undefined. This unit follows the
// R5900 divider: DIV leaves HI = dividend and LO = -1 (dividend >= 0) or
// +1 (dividend < 0); DIVU leaves HI = dividend and LO = 0xFFFFFFFF.
// DIV of MinInt32 by -1 yields LO = MinInt32 and HI = 0.
//
// There is no HI/LO hazard interlock: a read observes the latest write.
type MulDivUnit struct {
	regFile *RegFile
}

// NewMulDivUnit creates a new MulDivUnit connected to the given register file.
func NewMulDivUnit(regFile *RegFile) *MulDivUnit {
	return &MulDivUnit{regFile: regFile}
}

// sext32 sign-extends a 32-bit value to 64 bits.
func sext32(value uint32) uint64 {
	return uint64(int64(int32(value)))
}

func (m *MulDivUnit) setHILO(hi, lo uint32) {
	m.regFile.WriteHI(sext32(hi))
	m.regFile.WriteLO(sext32(lo))
}

// MULT multiplies the signed low words of rs and rt.
func (m *MulDivUnit) MULT(rs, rt uint8) {
	a := int64(int32(m.regFile.ReadWord(rs)))
	b := int64(int32(m.regFile.ReadWord(rt)))
	product := uint64(a * b)

	m.setHILO(uint32(product>>32), uint32(product))
}

// MULTU multiplies the unsigned low words of rs and rt.
func (m *MulDivUnit) MULTU(rs, rt uint8) {
	a := uint64(m.regFile.ReadWord(rs))
	b := uint64(m.regFile.ReadWord(rt))
	product := a * b

	m.setHILO(uint32(product>>32), uint32(product))
}

// DIV divides the signed low words, truncating toward zero.
func (m *MulDivUnit) DIV(rs, rt uint8) {
	n := int32(m.regFile.ReadWord(rs))
	d := int32(m.regFile.ReadWord(rt))

	switch {
	case d == 0:
		lo := int32(-1)
		if n < 0 {
			lo = 1
		}
		m.setHILO(uint32(n), uint32(lo))
	case n == math.MinInt32 && d == -1:
		m.setHILO(0, uint32(n))
	default:
		m.setHILO(uint32(n%d), uint32(n/d))
	}
}

// DIVU divides the unsigned low words.
func (m *MulDivUnit) DIVU(rs, rt uint8) {
	n := m.regFile.ReadWord(rs)
	d := m.regFile.ReadWord(rt)

	if d == 0 {
		m.setHILO(n, 0xFFFFFFFF)
		return
	}

	m.setHILO(n%d, n/d)
}

// MFHI copies HI0 into rd.
func (m *MulDivUnit) MFHI(rd uint8) {
	m.regFile.WriteDword(rd, m.regFile.ReadHI())
}

// MTHI copies the low doubleword of rs into HI0.
func (m *MulDivUnit) MTHI(rs uint8) {
	m.regFile.WriteHI(m.regFile.ReadDword(rs))
}

// MFLO copies LO0 into rd.
func (m *MulDivUnit) MFLO(rd uint8) {
	m.regFile.WriteDword(rd, m.regFile.ReadLO())
}

// MTLO copies the low doubleword of rs into LO0.
func (m *MulDivUnit) MTLO(rs uint8) {
	m.regFile.WriteLO(m.regFile.ReadDword(rs))
}

// MFSA copies SA into rd.
func (m *MulDivUnit) MFSA(rd uint8) {
	m.regFile.WriteDword(rd, m.regFile.ReadSA())
}

// MTSA copies the low doubleword of rs into SA.
func (m *MulDivUnit) MTSA(rs uint8) {
	m.regFile.WriteSA(m.regFile.ReadDword(rs))
}
