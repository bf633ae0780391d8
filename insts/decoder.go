// Package insts provides EE instruction definitions and decoding.
package insts

// Op represents a decoded EE operation.
type Op uint16

// SPECIAL family operations.
const (
	OpUnknown Op = iota
	OpSLL
	OpSRL
	OpSRA
	OpSLLV
	OpSRLV
	OpSRAV
	OpJR
	OpJALR
	OpMOVZ
	OpMOVN
	OpSYSCALL
	OpBREAK
	OpSYNC
	OpMFHI
	OpMTHI
	OpMFLO
	OpMTLO
	OpDSLLV
	OpDSRLV
	OpDSRAV
	OpMULT
	OpMULTU
	OpDIV
	OpDIVU
	OpADD
	OpADDU
	OpSUB
	OpSUBU
	OpAND
	OpOR
	OpXOR
	OpNOR
	OpMFSA
	OpMTSA
	OpSLT
	OpSLTU
	OpDADD
	OpDADDU
	OpDSUB
	OpDSUBU
	OpTGE
	OpTGEU
	OpTLT
	OpTLTU
	OpTEQ
	OpTNE
	OpDSLL
	OpDSRL
	OpDSRA
	OpDSLL32
	OpDSRL32
	OpDSRA32
)

// Format represents an instruction family selected by the primary opcode.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota // Primary opcode not decoded by this package
	FormatSpecial               // Primary opcode 0, operation selected by funct
)

// OpcodeSpecial is the primary opcode of the SPECIAL family.
const OpcodeSpecial uint8 = 0x00

// SPECIAL funct codes.
const (
	FunctSLL     uint8 = 0x00
	FunctSRL     uint8 = 0x02
	FunctSRA     uint8 = 0x03
	FunctSLLV    uint8 = 0x04
	FunctSRLV    uint8 = 0x06
	FunctSRAV    uint8 = 0x07
	FunctJR      uint8 = 0x08
	FunctJALR    uint8 = 0x09
	FunctMOVZ    uint8 = 0x0A
	FunctMOVN    uint8 = 0x0B
	FunctSYSCALL uint8 = 0x0C
	FunctBREAK   uint8 = 0x0D
	FunctSYNC    uint8 = 0x0F
	FunctMFHI    uint8 = 0x10
	FunctMTHI    uint8 = 0x11
	FunctMFLO    uint8 = 0x12
	FunctMTLO    uint8 = 0x13
	FunctDSLLV   uint8 = 0x14
	FunctDSRLV   uint8 = 0x16
	FunctDSRAV   uint8 = 0x17
	FunctMULT    uint8 = 0x18
	FunctMULTU   uint8 = 0x19
	FunctDIV     uint8 = 0x1A
	FunctDIVU    uint8 = 0x1B
	FunctADD     uint8 = 0x20
	FunctADDU    uint8 = 0x21
	FunctSUB     uint8 = 0x22
	FunctSUBU    uint8 = 0x23
	FunctAND     uint8 = 0x24
	FunctOR      uint8 = 0x25
	FunctXOR     uint8 = 0x26
	FunctNOR     uint8 = 0x27
	FunctMFSA    uint8 = 0x28
	FunctMTSA    uint8 = 0x29
	FunctSLT     uint8 = 0x2A
	FunctSLTU    uint8 = 0x2B
	FunctDADD    uint8 = 0x2C
	FunctDADDU   uint8 = 0x2D
	FunctDSUB    uint8 = 0x2E
	FunctDSUBU   uint8 = 0x2F
	FunctTGE     uint8 = 0x30
	FunctTGEU    uint8 = 0x31
	FunctTLT     uint8 = 0x32
	FunctTLTU    uint8 = 0x33
	FunctTEQ     uint8 = 0x34
	FunctTNE     uint8 = 0x36
	FunctDSLL    uint8 = 0x38
	FunctDSRL    uint8 = 0x3A
	FunctDSRA    uint8 = 0x3B
	FunctDSLL32  uint8 = 0x3C
	FunctDSRL32  uint8 = 0x3E
	FunctDSRA32  uint8 = 0x3F
)

// specialOps maps a funct code to its operation. Gaps stay OpUnknown.
var specialOps = [64]Op{
	FunctSLL:     OpSLL,
	FunctSRL:     OpSRL,
	FunctSRA:     OpSRA,
	FunctSLLV:    OpSLLV,
	FunctSRLV:    OpSRLV,
	FunctSRAV:    OpSRAV,
	FunctJR:      OpJR,
	FunctJALR:    OpJALR,
	FunctMOVZ:    OpMOVZ,
	FunctMOVN:    OpMOVN,
	FunctSYSCALL: OpSYSCALL,
	FunctBREAK:   OpBREAK,
	FunctSYNC:    OpSYNC,
	FunctMFHI:    OpMFHI,
	FunctMTHI:    OpMTHI,
	FunctMFLO:    OpMFLO,
	FunctMTLO:    OpMTLO,
	FunctDSLLV:   OpDSLLV,
	FunctDSRLV:   OpDSRLV,
	FunctDSRAV:   OpDSRAV,
	FunctMULT:    OpMULT,
	FunctMULTU:   OpMULTU,
	FunctDIV:     OpDIV,
	FunctDIVU:    OpDIVU,
	FunctADD:     OpADD,
	FunctADDU:    OpADDU,
	FunctSUB:     OpSUB,
	FunctSUBU:    OpSUBU,
	FunctAND:     OpAND,
	FunctOR:      OpOR,
	FunctXOR:     OpXOR,
	FunctNOR:     OpNOR,
	FunctMFSA:    OpMFSA,
	FunctMTSA:    OpMTSA,
	FunctSLT:     OpSLT,
	FunctSLTU:    OpSLTU,
	FunctDADD:    OpDADD,
	FunctDADDU:   OpDADDU,
	FunctDSUB:    OpDSUB,
	FunctDSUBU:   OpDSUBU,
	FunctTGE:     OpTGE,
	FunctTGEU:    OpTGEU,
	FunctTLT:     OpTLT,
	FunctTLTU:    OpTLTU,
	FunctTEQ:     OpTEQ,
	FunctTNE:     OpTNE,
	FunctDSLL:    OpDSLL,
	FunctDSRL:    OpDSRL,
	FunctDSRA:    OpDSRA,
	FunctDSLL32:  OpDSLL32,
	FunctDSRL32:  OpDSRL32,
	FunctDSRA32:  OpDSRA32,
}

// Instruction represents a decoded EE instruction.
type Instruction struct {
	Op     Op     // Operation
	Format Format // Family selected by the primary opcode

	Raw    uint32 // Original instruction word
	Opcode uint8  // bits [31:26]
	Rs     uint8  // bits [25:21]
	Rt     uint8  // bits [20:16]
	Rd     uint8  // bits [15:11]
	Sa     uint8  // bits [10:6]
	Funct  uint8  // bits [5:0]
}

// Code returns the 20-bit code field (bits [25:6]) used by SYSCALL and BREAK.
func (i *Instruction) Code() uint32 {
	return (i.Raw >> 6) & 0xFFFFF
}

// Decoder decodes EE machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new EE instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word. Any word decodes; words that
// are not recognized carry OpUnknown.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Op:     OpUnknown,
		Format: FormatUnknown,
		Raw:    word,
		Opcode: ExtractOpcode(word),
		Rs:     ExtractRs(word),
		Rt:     ExtractRt(word),
		Rd:     ExtractRd(word),
		Sa:     ExtractSa(word),
		Funct:  ExtractFunct(word),
	}

	if inst.Opcode == OpcodeSpecial {
		inst.Format = FormatSpecial
		inst.Op = specialOps[inst.Funct]
	}

	return inst
}

// ExtractOpcode returns the primary opcode, bits [31:26].
func ExtractOpcode(word uint32) uint8 {
	return uint8((word >> 26) & 0x3F)
}

// ExtractRs returns the rs register index, bits [25:21].
func ExtractRs(word uint32) uint8 {
	return uint8((word >> 21) & 0x1F)
}

// ExtractRt returns the rt register index, bits [20:16].
func ExtractRt(word uint32) uint8 {
	return uint8((word >> 16) & 0x1F)
}

// ExtractRd returns the rd register index, bits [15:11].
func ExtractRd(word uint32) uint8 {
	return uint8((word >> 11) & 0x1F)
}

// ExtractSa returns the shift amount field, bits [10:6].
func ExtractSa(word uint32) uint8 {
	return uint8((word >> 6) & 0x1F)
}

// ExtractFunct returns the function field, bits [5:0].
func ExtractFunct(word uint32) uint8 {
	return uint8(word & 0x3F)
}

// EncodeSpecial assembles a SPECIAL-family instruction word from its fields.
// Fields wider than their slot are masked.
func EncodeSpecial(rs, rt, rd, sa, funct uint8) uint32 {
	return uint32(OpcodeSpecial)<<26 |
		uint32(rs&0x1F)<<21 |
		uint32(rt&0x1F)<<16 |
		uint32(rd&0x1F)<<11 |
		uint32(sa&0x1F)<<6 |
		uint32(funct&0x3F)
}
