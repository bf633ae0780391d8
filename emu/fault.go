package emu

import (
	"fmt"

	"github.com/sarchlab/eesim/insts"
)

// FaultKind classifies an architectural fault raised by an instruction.
type FaultKind uint8

// Fault kinds.
const (
	FaultUnimplementedOpcode FaultKind = iota + 1
	FaultUnimplementedFunction
	FaultArithmeticOverflow
	FaultTrap
	FaultSoftwareException
)

// MIPS Cause.ExcCode values.
const (
	ExcCodeSyscall             uint8 = 0x08
	ExcCodeBreakpoint          uint8 = 0x09
	ExcCodeReservedInstruction uint8 = 0x0A
	ExcCodeOverflow            uint8 = 0x0C
	ExcCodeTrap                uint8 = 0x0D
)

func (k FaultKind) String() string {
	switch k {
	case FaultUnimplementedOpcode:
		return "unimplemented opcode"
	case FaultUnimplementedFunction:
		return "unimplemented function"
	case FaultArithmeticOverflow:
		return "arithmetic overflow"
	case FaultTrap:
		return "trap"
	case FaultSoftwareException:
		return "software exception"
	default:
		return fmt.Sprintf("fault(%d)", uint8(k))
	}
}

// Fault reports why an instruction did not complete. A faulting instruction
// commits no register writes.
type Fault struct {
	Kind FaultKind

	// PC is the address of the faulting instruction.
	PC uint32
	// Word is the raw instruction word.
	Word uint32

	Opcode uint8
	Funct  uint8

	// Op names the failing operation: the overflowing add/sub, the trap
	// condition, or SYSCALL/BREAK.
	Op insts.Op

	// Rs and Rt are the compared register indices of a trap.
	Rs uint8
	Rt uint8

	// Code is the 20-bit code field of SYSCALL/BREAK.
	Code uint32
}

// Error implements the error interface.
func (f *Fault) Error() string {
	switch f.Kind {
	case FaultUnimplementedOpcode:
		return fmt.Sprintf("unimplemented opcode 0x%02X at PC=0x%08X", f.Opcode, f.PC)
	case FaultUnimplementedFunction:
		return fmt.Sprintf("unimplemented SPECIAL function 0x%02X at PC=0x%08X", f.Funct, f.PC)
	case FaultArithmeticOverflow:
		return fmt.Sprintf("%s overflow at PC=0x%08X", f.Op, f.PC)
	case FaultTrap:
		return fmt.Sprintf("%s trap (%s, %s) at PC=0x%08X",
			f.Op, insts.RegName(f.Rs), insts.RegName(f.Rt), f.PC)
	case FaultSoftwareException:
		return fmt.Sprintf("%s #0x%X at PC=0x%08X", f.Op, f.Code, f.PC)
	default:
		return fmt.Sprintf("%s at PC=0x%08X", f.Kind, f.PC)
	}
}

// ExceptionCode maps the fault to the MIPS Cause.ExcCode a kernel would see.
func (f *Fault) ExceptionCode() uint8 {
	switch f.Kind {
	case FaultArithmeticOverflow:
		return ExcCodeOverflow
	case FaultTrap:
		return ExcCodeTrap
	case FaultSoftwareException:
		if f.Op == insts.OpBREAK {
			return ExcCodeBreakpoint
		}
		return ExcCodeSyscall
	default:
		return ExcCodeReservedInstruction
	}
}

func newFault(kind FaultKind, inst *insts.Instruction) *Fault {
	return &Fault{
		Kind:   kind,
		Word:   inst.Raw,
		Opcode: inst.Opcode,
		Funct:  inst.Funct,
		Op:     inst.Op,
	}
}

// overflowFault is returned by the trapping add/sub paths.
func overflowFault(inst *insts.Instruction) *Fault {
	return newFault(FaultArithmeticOverflow, inst)
}

func trapFault(inst *insts.Instruction) *Fault {
	f := newFault(FaultTrap, inst)
	f.Rs = inst.Rs
	f.Rt = inst.Rt
	return f
}

func exceptionFault(inst *insts.Instruction) *Fault {
	f := newFault(FaultSoftwareException, inst)
	f.Code = inst.Code()
	return f
}
