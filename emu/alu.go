// Package emu provides functional EE emulation.
package emu

import "lukechampine.com/uint128"

// ALU implements EE integer arithmetic, logic, compare, and conditional
// move operations.
//
// The trapping forms (ADD, SUB, DADD, DSUB) return false on signed overflow
// and leave rd untouched; the caller turns that into a fault.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// addOverflows32 reports whether a+b overflows a signed 32-bit result.
func addOverflows32(a, b, sum int32) bool {
	return (a^sum)&(b^sum) < 0
}

// subOverflows32 reports whether a-b overflows a signed 32-bit result.
func subOverflows32(a, b, diff int32) bool {
	return (a^b)&(a^diff) < 0
}

func addOverflows64(a, b, sum int64) bool {
	return (a^sum)&(b^sum) < 0
}

func subOverflows64(a, b, diff int64) bool {
	return (a^b)&(a^diff) < 0
}

// ADD performs rd = rs + rt on 32-bit words, trapping on signed overflow.
func (a *ALU) ADD(rd, rs, rt uint8) bool {
	op1 := int32(a.regFile.ReadWord(rs))
	op2 := int32(a.regFile.ReadWord(rt))
	result := op1 + op2

	if addOverflows32(op1, op2, result) {
		return false
	}

	a.regFile.WriteWord(rd, uint32(result))
	return true
}

// ADDU performs rd = rs + rt modulo 2^32.
func (a *ALU) ADDU(rd, rs, rt uint8) {
	result := a.regFile.ReadWord(rs) + a.regFile.ReadWord(rt)
	a.regFile.WriteWord(rd, result)
}

// SUB performs rd = rs - rt on 32-bit words, trapping on signed overflow.
func (a *ALU) SUB(rd, rs, rt uint8) bool {
	op1 := int32(a.regFile.ReadWord(rs))
	op2 := int32(a.regFile.ReadWord(rt))
	result := op1 - op2

	if subOverflows32(op1, op2, result) {
		return false
	}

	a.regFile.WriteWord(rd, uint32(result))
	return true
}

// SUBU performs rd = rs - rt modulo 2^32.
func (a *ALU) SUBU(rd, rs, rt uint8) {
	result := a.regFile.ReadWord(rs) - a.regFile.ReadWord(rt)
	a.regFile.WriteWord(rd, result)
}

// DADD performs rd = rs + rt on 64-bit doublewords, trapping on signed overflow.
func (a *ALU) DADD(rd, rs, rt uint8) bool {
	op1 := int64(a.regFile.ReadDword(rs))
	op2 := int64(a.regFile.ReadDword(rt))
	result := op1 + op2

	if addOverflows64(op1, op2, result) {
		return false
	}

	a.regFile.WriteDword(rd, uint64(result))
	return true
}

// DADDU performs rd = rs + rt modulo 2^64.
func (a *ALU) DADDU(rd, rs, rt uint8) {
	result := a.regFile.ReadDword(rs) + a.regFile.ReadDword(rt)
	a.regFile.WriteDword(rd, result)
}

// DSUB performs rd = rs - rt on 64-bit doublewords, trapping on signed overflow.
func (a *ALU) DSUB(rd, rs, rt uint8) bool {
	op1 := int64(a.regFile.ReadDword(rs))
	op2 := int64(a.regFile.ReadDword(rt))
	result := op1 - op2

	if subOverflows64(op1, op2, result) {
		return false
	}

	a.regFile.WriteDword(rd, uint64(result))
	return true
}

// DSUBU performs rd = rs - rt modulo 2^64.
func (a *ALU) DSUBU(rd, rs, rt uint8) {
	result := a.regFile.ReadDword(rs) - a.regFile.ReadDword(rt)
	a.regFile.WriteDword(rd, result)
}

// AND performs a full-width bitwise AND.
func (a *ALU) AND(rd, rs, rt uint8) {
	a.regFile.WriteQword(rd, a.regFile.ReadQword(rs).And(a.regFile.ReadQword(rt)))
}

// OR performs a full-width bitwise OR.
func (a *ALU) OR(rd, rs, rt uint8) {
	a.regFile.WriteQword(rd, a.regFile.ReadQword(rs).Or(a.regFile.ReadQword(rt)))
}

// XOR performs a full-width bitwise XOR.
func (a *ALU) XOR(rd, rs, rt uint8) {
	a.regFile.WriteQword(rd, a.regFile.ReadQword(rs).Xor(a.regFile.ReadQword(rt)))
}

// NOR performs a full-width bitwise NOR.
func (a *ALU) NOR(rd, rs, rt uint8) {
	or := a.regFile.ReadQword(rs).Or(a.regFile.ReadQword(rt))
	a.regFile.WriteQword(rd, uint128.New(^or.Lo, ^or.Hi))
}

// SLT sets rd to 1 if rs < rt as signed doublewords, else 0.
func (a *ALU) SLT(rd, rs, rt uint8) {
	var result uint64
	if int64(a.regFile.ReadDword(rs)) < int64(a.regFile.ReadDword(rt)) {
		result = 1
	}
	a.regFile.WriteDword(rd, result)
}

// SLTU sets rd to 1 if rs < rt as unsigned doublewords, else 0.
func (a *ALU) SLTU(rd, rs, rt uint8) {
	var result uint64
	if a.regFile.ReadDword(rs) < a.regFile.ReadDword(rt) {
		result = 1
	}
	a.regFile.WriteDword(rd, result)
}

// MOVZ copies rs to rd at full width when rt is zero.
func (a *ALU) MOVZ(rd, rs, rt uint8) {
	if a.regFile.ReadDword(rt) == 0 {
		a.regFile.WriteQword(rd, a.regFile.ReadQword(rs))
	}
}

// MOVN copies rs to rd at full width when rt is non-zero.
func (a *ALU) MOVN(rd, rs, rt uint8) {
	if a.regFile.ReadDword(rt) != 0 {
		a.regFile.WriteQword(rd, a.regFile.ReadQword(rs))
	}
}
