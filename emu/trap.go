package emu

// TrapUnit evaluates the conditional trap instructions. The ordering
// conditions compare the low 64 bits of rs and rt; TEQ and TNE compare all
// 128 bits.
type TrapUnit struct {
	regFile *RegFile
}

// NewTrapUnit creates a new TrapUnit connected to the given register file.
func NewTrapUnit(regFile *RegFile) *TrapUnit {
	return &TrapUnit{regFile: regFile}
}

func (t *TrapUnit) operands(rs, rt uint8) (uint64, uint64) {
	return t.regFile.ReadDword(rs), t.regFile.ReadDword(rt)
}

// TGE reports whether rs >= rt as signed doublewords.
func (t *TrapUnit) TGE(rs, rt uint8) bool {
	a, b := t.operands(rs, rt)
	return int64(a) >= int64(b)
}

// TGEU reports whether rs >= rt as unsigned doublewords.
func (t *TrapUnit) TGEU(rs, rt uint8) bool {
	a, b := t.operands(rs, rt)
	return a >= b
}

// TLT reports whether rs < rt as signed doublewords.
func (t *TrapUnit) TLT(rs, rt uint8) bool {
	a, b := t.operands(rs, rt)
	return int64(a) < int64(b)
}

// TLTU reports whether rs < rt as unsigned doublewords.
func (t *TrapUnit) TLTU(rs, rt uint8) bool {
	a, b := t.operands(rs, rt)
	return a < b
}

// TEQ reports whether rs == rt at full width.
func (t *TrapUnit) TEQ(rs, rt uint8) bool {
	return t.regFile.ReadQword(rs).Equals(t.regFile.ReadQword(rt))
}

// TNE reports whether rs != rt at full width.
func (t *TrapUnit) TNE(rs, rt uint8) bool {
	return !t.TEQ(rs, rt)
}
