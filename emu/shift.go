package emu

// Shifter implements the word and doubleword shift operations.
// Word shifts read the low 32 bits of rt and sign-extend the 32-bit result;
// doubleword shifts read the low 64 bits and sign-extend the 64-bit result.
type Shifter struct {
	regFile *RegFile
}

// NewShifter creates a new Shifter connected to the given register file.
func NewShifter(regFile *RegFile) *Shifter {
	return &Shifter{regFile: regFile}
}

// variableAmount returns the low bits of rs selected by mask.
func (s *Shifter) variableAmount(rs uint8, mask uint32) uint32 {
	return s.regFile.ReadWord(rs) & mask
}

// SLL shifts the low word of rt left by sa.
func (s *Shifter) SLL(rd, rt, sa uint8) {
	s.regFile.WriteWord(rd, s.regFile.ReadWord(rt)<<(sa&0x1F))
}

// SRL shifts the low word of rt right logically by sa.
func (s *Shifter) SRL(rd, rt, sa uint8) {
	s.regFile.WriteWord(rd, s.regFile.ReadWord(rt)>>(sa&0x1F))
}

// SRA shifts the low word of rt right arithmetically by sa.
func (s *Shifter) SRA(rd, rt, sa uint8) {
	s.regFile.WriteWord(rd, uint32(int32(s.regFile.ReadWord(rt))>>(sa&0x1F)))
}

// SLLV is SLL with the amount taken from the low 5 bits of rs.
func (s *Shifter) SLLV(rd, rt, rs uint8) {
	amount := s.variableAmount(rs, 0x1F)
	s.regFile.WriteWord(rd, s.regFile.ReadWord(rt)<<amount)
}

// SRLV is SRL with the amount taken from the low 5 bits of rs.
func (s *Shifter) SRLV(rd, rt, rs uint8) {
	amount := s.variableAmount(rs, 0x1F)
	s.regFile.WriteWord(rd, s.regFile.ReadWord(rt)>>amount)
}

// SRAV is SRA with the amount taken from the low 5 bits of rs.
func (s *Shifter) SRAV(rd, rt, rs uint8) {
	amount := s.variableAmount(rs, 0x1F)
	s.regFile.WriteWord(rd, uint32(int32(s.regFile.ReadWord(rt))>>amount))
}

// DSLLV shifts the low doubleword of rt left by the low 6 bits of rs.
func (s *Shifter) DSLLV(rd, rt, rs uint8) {
	amount := s.variableAmount(rs, 0x3F)
	s.regFile.WriteDword(rd, s.regFile.ReadDword(rt)<<amount)
}

// DSRLV shifts the low doubleword of rt right logically by the low 6 bits of rs.
func (s *Shifter) DSRLV(rd, rt, rs uint8) {
	amount := s.variableAmount(rs, 0x3F)
	s.regFile.WriteDword(rd, s.regFile.ReadDword(rt)>>amount)
}

// DSRAV shifts the low doubleword of rt right arithmetically by the low 6 bits of rs.
func (s *Shifter) DSRAV(rd, rt, rs uint8) {
	amount := s.variableAmount(rs, 0x3F)
	s.regFile.WriteDword(rd, uint64(int64(s.regFile.ReadDword(rt))>>amount))
}

// DSLL shifts the low doubleword of rt left by sa (0-31).
func (s *Shifter) DSLL(rd, rt, sa uint8) {
	s.regFile.WriteDword(rd, s.regFile.ReadDword(rt)<<(sa&0x1F))
}

// DSRL shifts the low doubleword of rt right logically by sa (0-31).
func (s *Shifter) DSRL(rd, rt, sa uint8) {
	s.regFile.WriteDword(rd, s.regFile.ReadDword(rt)>>(sa&0x1F))
}

// DSRA shifts the low doubleword of rt right arithmetically by sa (0-31).
func (s *Shifter) DSRA(rd, rt, sa uint8) {
	s.regFile.WriteDword(rd, uint64(int64(s.regFile.ReadDword(rt))>>(sa&0x1F)))
}

// DSLL32 shifts the low doubleword of rt left by sa+32.
func (s *Shifter) DSLL32(rd, rt, sa uint8) {
	s.regFile.WriteDword(rd, s.regFile.ReadDword(rt)<<(uint(sa&0x1F)+32))
}

// DSRL32 shifts the low doubleword of rt right logically by sa+32.
func (s *Shifter) DSRL32(rd, rt, sa uint8) {
	s.regFile.WriteDword(rd, s.regFile.ReadDword(rt)>>(uint(sa&0x1F)+32))
}

// DSRA32 shifts the low doubleword of rt right arithmetically by sa+32.
func (s *Shifter) DSRA32(rd, rt, sa uint8) {
	s.regFile.WriteDword(rd, uint64(int64(s.regFile.ReadDword(rt))>>(uint(sa&0x1F)+32)))
}
