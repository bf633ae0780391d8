// Package insts provides EE (MIPS-derived) instruction definitions and decoding.
//
// This package implements decoding of 32-bit EE machine code into structured
// instruction representations. It supports the SPECIAL primary-opcode family:
//   - Shifts: SLL, SRL, SRA, SLLV, SRLV, SRAV and the doubleword forms
//   - Register jumps: JR, JALR
//   - Conditional moves, HI/LO/SA transfers, multiply and divide
//   - Add/subtract (trapping and wrapping), logical ops, compares, traps
//   - SYSCALL, BREAK, SYNC
//
// Words outside the SPECIAL family still decode their bit fields but carry
// FormatUnknown.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00851021) // ADDU $v0, $a0, $a1
//	fmt.Printf("Op: %v, Rd: %d, Rs: %d, Rt: %d\n", inst.Op, inst.Rd, inst.Rs, inst.Rt)
package insts
