// Package emu provides functional EE emulation.
package emu

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/eesim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Fault is set when the instruction did not complete. Register state
	// is exactly as it was before the instruction.
	Fault *Fault
}

// Err returns the fault as an error, or nil on success.
func (r StepResult) Err() error {
	if r.Fault == nil {
		return nil
	}
	return r.Fault
}

// OpcodeHandler executes an instruction of a non-SPECIAL primary opcode.
// It returns a non-nil fault if the instruction did not complete.
type OpcodeHandler func(regFile *RegFile, inst *insts.Instruction) *Fault

// Emulator executes EE instructions functionally, one word per call.
type Emulator struct {
	regFile *RegFile
	decoder *insts.Decoder

	// Execution units
	alu        *ALU
	shifter    *Shifter
	mulDiv     *MulDivUnit
	branchUnit *BranchUnit
	trapUnit   *TrapUnit

	// Primary opcodes outside the SPECIAL family
	opcodeHandlers map[uint8]OpcodeHandler

	logger *logrus.Logger

	instructionCount uint64
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithLogger sets the logger used for instruction traces and fault reports.
func WithLogger(logger *logrus.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithOpcodeHandler registers a handler for a non-SPECIAL primary opcode.
// The SPECIAL opcode itself cannot be overridden.
func WithOpcodeHandler(opcode uint8, handler OpcodeHandler) EmulatorOption {
	return func(e *Emulator) {
		if opcode&0x3F == insts.OpcodeSpecial {
			return
		}
		e.opcodeHandlers[opcode&0x3F] = handler
	}
}

// WithEntryPoint sets the address of the first instruction.
func WithEntryPoint(entry uint32) EmulatorOption {
	return func(e *Emulator) {
		e.branchUnit.SetEntry(entry)
	}
}

// NewEmulator creates a new EE emulator in its reset state.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		decoder:        insts.NewDecoder(),
		opcodeHandlers: make(map[uint8]OpcodeHandler),
		logger:         logrus.StandardLogger(),
	}
	e.attach(NewRegFile())

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// attach connects the execution units to a register file.
func (e *Emulator) attach(regFile *RegFile) {
	e.regFile = regFile
	e.alu = NewALU(regFile)
	e.shifter = NewShifter(regFile)
	e.mulDiv = NewMulDivUnit(regFile)
	e.branchUnit = NewBranchUnit(regFile)
	e.trapUnit = NewTrapUnit(regFile)
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// InstructionCount returns the number of instructions executed, including
// ones that faulted.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Reset returns the CPU state to its power-on values.
// Registered opcode handlers are kept.
func (e *Emulator) Reset() {
	e.attach(NewRegFile())
	e.instructionCount = 0
}

// SetEntry arranges for the next AdvancePC to land on entry.
func (e *Emulator) SetEntry(entry uint32) {
	e.branchUnit.SetEntry(entry)
}

// AdvancePC moves PC to the next instruction. The driver calls it before
// fetching each instruction word.
func (e *Emulator) AdvancePC() {
	e.branchUnit.Advance()
}

// Execute decodes and executes one instruction word at the current PC.
func (e *Emulator) Execute(word uint32) StepResult {
	inst := e.decoder.Decode(word)

	if e.logger.IsLevelEnabled(logrus.TraceLevel) {
		e.logger.WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("0x%08X", e.regFile.PC),
			"word": fmt.Sprintf("0x%08X", word),
		}).Trace(insts.Disassemble(inst))
	}

	fault := e.execute(inst)
	e.instructionCount++

	if fault == nil {
		return StepResult{}
	}

	fault.PC = e.regFile.PC
	e.logger.WithFields(logrus.Fields{
		"pc":   fmt.Sprintf("0x%08X", fault.PC),
		"kind": fault.Kind.String(),
	}).Debug(fault.Error())

	return StepResult{Fault: fault}
}

// execute dispatches on the primary opcode.
func (e *Emulator) execute(inst *insts.Instruction) *Fault {
	if inst.Format == insts.FormatSpecial {
		return e.executeSpecial(inst)
	}

	if handler, ok := e.opcodeHandlers[inst.Opcode]; ok {
		return handler(e.regFile, inst)
	}

	return newFault(FaultUnimplementedOpcode, inst)
}

// executeSpecial dispatches on the funct field of a SPECIAL instruction.
func (e *Emulator) executeSpecial(inst *insts.Instruction) *Fault {
	switch inst.Op {
	case insts.OpSLL, insts.OpSRL, insts.OpSRA,
		insts.OpSLLV, insts.OpSRLV, insts.OpSRAV,
		insts.OpDSLL, insts.OpDSRL, insts.OpDSRA,
		insts.OpDSLL32, insts.OpDSRL32, insts.OpDSRA32,
		insts.OpDSLLV, insts.OpDSRLV, insts.OpDSRAV:
		e.executeShift(inst)
	case insts.OpJR:
		e.branchUnit.JR(inst.Rs)
	case insts.OpJALR:
		e.branchUnit.JALR(inst.Rd, inst.Rs)
	case insts.OpMOVZ:
		e.alu.MOVZ(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpMOVN:
		e.alu.MOVN(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpSYSCALL, insts.OpBREAK:
		return exceptionFault(inst)
	case insts.OpSYNC:
		// Memory ordering has no observable effect here.
	case insts.OpMFHI, insts.OpMTHI, insts.OpMFLO, insts.OpMTLO,
		insts.OpMFSA, insts.OpMTSA,
		insts.OpMULT, insts.OpMULTU, insts.OpDIV, insts.OpDIVU:
		e.executeMulDiv(inst)
	case insts.OpADD, insts.OpSUB, insts.OpDADD, insts.OpDSUB:
		return e.executeTrappingArith(inst)
	case insts.OpADDU:
		e.alu.ADDU(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpSUBU:
		e.alu.SUBU(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpDADDU:
		e.alu.DADDU(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpDSUBU:
		e.alu.DSUBU(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpAND:
		e.alu.AND(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpOR:
		e.alu.OR(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpXOR:
		e.alu.XOR(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpNOR:
		e.alu.NOR(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpSLT:
		e.alu.SLT(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpSLTU:
		e.alu.SLTU(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpTGE, insts.OpTGEU, insts.OpTLT, insts.OpTLTU,
		insts.OpTEQ, insts.OpTNE:
		if e.trapTaken(inst) {
			return trapFault(inst)
		}
	default:
		return newFault(FaultUnimplementedFunction, inst)
	}

	return nil
}

// executeShift executes the word and doubleword shifts.
func (e *Emulator) executeShift(inst *insts.Instruction) {
	rd, rt, rs, sa := inst.Rd, inst.Rt, inst.Rs, inst.Sa

	switch inst.Op {
	case insts.OpSLL:
		e.shifter.SLL(rd, rt, sa)
	case insts.OpSRL:
		e.shifter.SRL(rd, rt, sa)
	case insts.OpSRA:
		e.shifter.SRA(rd, rt, sa)
	case insts.OpSLLV:
		e.shifter.SLLV(rd, rt, rs)
	case insts.OpSRLV:
		e.shifter.SRLV(rd, rt, rs)
	case insts.OpSRAV:
		e.shifter.SRAV(rd, rt, rs)
	case insts.OpDSLLV:
		e.shifter.DSLLV(rd, rt, rs)
	case insts.OpDSRLV:
		e.shifter.DSRLV(rd, rt, rs)
	case insts.OpDSRAV:
		e.shifter.DSRAV(rd, rt, rs)
	case insts.OpDSLL:
		e.shifter.DSLL(rd, rt, sa)
	case insts.OpDSRL:
		e.shifter.DSRL(rd, rt, sa)
	case insts.OpDSRA:
		e.shifter.DSRA(rd, rt, sa)
	case insts.OpDSLL32:
		e.shifter.DSLL32(rd, rt, sa)
	case insts.OpDSRL32:
		e.shifter.DSRL32(rd, rt, sa)
	case insts.OpDSRA32:
		e.shifter.DSRA32(rd, rt, sa)
	}
}

// executeMulDiv executes multiply, divide, and HI/LO/SA transfers.
func (e *Emulator) executeMulDiv(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpMULT:
		e.mulDiv.MULT(inst.Rs, inst.Rt)
	case insts.OpMULTU:
		e.mulDiv.MULTU(inst.Rs, inst.Rt)
	case insts.OpDIV:
		e.mulDiv.DIV(inst.Rs, inst.Rt)
	case insts.OpDIVU:
		e.mulDiv.DIVU(inst.Rs, inst.Rt)
	case insts.OpMFHI:
		e.mulDiv.MFHI(inst.Rd)
	case insts.OpMTHI:
		e.mulDiv.MTHI(inst.Rs)
	case insts.OpMFLO:
		e.mulDiv.MFLO(inst.Rd)
	case insts.OpMTLO:
		e.mulDiv.MTLO(inst.Rs)
	case insts.OpMFSA:
		e.mulDiv.MFSA(inst.Rd)
	case insts.OpMTSA:
		e.mulDiv.MTSA(inst.Rs)
	}
}

// executeTrappingArith executes ADD, SUB, DADD, and DSUB.
func (e *Emulator) executeTrappingArith(inst *insts.Instruction) *Fault {
	var ok bool

	switch inst.Op {
	case insts.OpADD:
		ok = e.alu.ADD(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpSUB:
		ok = e.alu.SUB(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpDADD:
		ok = e.alu.DADD(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpDSUB:
		ok = e.alu.DSUB(inst.Rd, inst.Rs, inst.Rt)
	}

	if !ok {
		return overflowFault(inst)
	}
	return nil
}

// trapTaken evaluates the condition of a trap instruction.
func (e *Emulator) trapTaken(inst *insts.Instruction) bool {
	switch inst.Op {
	case insts.OpTGE:
		return e.trapUnit.TGE(inst.Rs, inst.Rt)
	case insts.OpTGEU:
		return e.trapUnit.TGEU(inst.Rs, inst.Rt)
	case insts.OpTLT:
		return e.trapUnit.TLT(inst.Rs, inst.Rt)
	case insts.OpTLTU:
		return e.trapUnit.TLTU(inst.Rs, inst.Rt)
	case insts.OpTEQ:
		return e.trapUnit.TEQ(inst.Rs, inst.Rt)
	case insts.OpTNE:
		return e.trapUnit.TNE(inst.Rs, inst.Rt)
	default:
		return false
	}
}
