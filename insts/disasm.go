package insts

import "fmt"

// RegNames holds the conventional assembler names of the 32 GPRs.
var RegNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

var opNames = map[Op]string{
	OpSLL: "sll", OpSRL: "srl", OpSRA: "sra",
	OpSLLV: "sllv", OpSRLV: "srlv", OpSRAV: "srav",
	OpJR: "jr", OpJALR: "jalr",
	OpMOVZ: "movz", OpMOVN: "movn",
	OpSYSCALL: "syscall", OpBREAK: "break", OpSYNC: "sync",
	OpMFHI: "mfhi", OpMTHI: "mthi", OpMFLO: "mflo", OpMTLO: "mtlo",
	OpDSLLV: "dsllv", OpDSRLV: "dsrlv", OpDSRAV: "dsrav",
	OpMULT: "mult", OpMULTU: "multu", OpDIV: "div", OpDIVU: "divu",
	OpADD: "add", OpADDU: "addu", OpSUB: "sub", OpSUBU: "subu",
	OpAND: "and", OpOR: "or", OpXOR: "xor", OpNOR: "nor",
	OpMFSA: "mfsa", OpMTSA: "mtsa",
	OpSLT: "slt", OpSLTU: "sltu",
	OpDADD: "dadd", OpDADDU: "daddu", OpDSUB: "dsub", OpDSUBU: "dsubu",
	OpTGE: "tge", OpTGEU: "tgeu", OpTLT: "tlt", OpTLTU: "tltu",
	OpTEQ: "teq", OpTNE: "tne",
	OpDSLL: "dsll", OpDSRL: "dsrl", OpDSRA: "dsra",
	OpDSLL32: "dsll32", OpDSRL32: "dsrl32", OpDSRA32: "dsra32",
}

// String returns the lower-case mnemonic of the operation.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// RegName returns the "$name" form of a register index.
func RegName(index uint8) string {
	return "$" + RegNames[index&0x1F]
}

// Disassemble renders a decoded instruction in assembler syntax.
func Disassemble(inst *Instruction) string {
	if inst.Format != FormatSpecial {
		return fmt.Sprintf(".word 0x%08x # opcode 0x%02x", inst.Raw, inst.Opcode)
	}

	rs, rt, rd := RegName(inst.Rs), RegName(inst.Rt), RegName(inst.Rd)
	name := inst.Op.String()

	switch inst.Op {
	case OpUnknown:
		return fmt.Sprintf(".word 0x%08x # funct 0x%02x", inst.Raw, inst.Funct)
	case OpSLL:
		if inst.Raw == 0 {
			return "nop"
		}
		return fmt.Sprintf("%s %s, %s, %d", name, rd, rt, inst.Sa)
	case OpSRL, OpSRA, OpDSLL, OpDSRL, OpDSRA, OpDSLL32, OpDSRL32, OpDSRA32:
		return fmt.Sprintf("%s %s, %s, %d", name, rd, rt, inst.Sa)
	case OpSLLV, OpSRLV, OpSRAV, OpDSLLV, OpDSRLV, OpDSRAV:
		return fmt.Sprintf("%s %s, %s, %s", name, rd, rt, rs)
	case OpJR, OpMTHI, OpMTLO, OpMTSA:
		return fmt.Sprintf("%s %s", name, rs)
	case OpJALR:
		return fmt.Sprintf("%s %s, %s", name, rd, rs)
	case OpMFHI, OpMFLO, OpMFSA:
		return fmt.Sprintf("%s %s", name, rd)
	case OpMULT, OpMULTU, OpDIV, OpDIVU,
		OpTGE, OpTGEU, OpTLT, OpTLTU, OpTEQ, OpTNE:
		return fmt.Sprintf("%s %s, %s", name, rs, rt)
	case OpSYSCALL, OpBREAK:
		if code := inst.Code(); code != 0 {
			return fmt.Sprintf("%s 0x%x", name, code)
		}
		return name
	case OpSYNC:
		return name
	default:
		return fmt.Sprintf("%s %s, %s, %s", name, rd, rs, rt)
	}
}
