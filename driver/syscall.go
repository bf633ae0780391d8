package driver

import (
	"github.com/sarchlab/eesim/emu"
)

// EE kernel syscall numbers.
const (
	SyscallExit             uint32 = 0x04 // Exit(status)
	SyscallExitThread       uint32 = 0x23 // ExitThread()
	SyscallExitDeleteThread uint32 = 0x24 // ExitDeleteThread()
)

// Registers of the EE syscall convention.
const (
	regV0 uint8 = 2  // return value
	regV1 uint8 = 3  // syscall number
	regA0 uint8 = 4  // first argument
	regSP uint8 = 29 // stack pointer
)

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Handled is false if the syscall number was not recognized.
	Handled bool
}

// SyscallHandler services a SYSCALL instruction.
//
// EE kernel syscall convention:
//   - Syscall number in $v1
//   - Arguments in $a0-$a3
//   - Return value in $v0
type SyscallHandler interface {
	Handle(regFile *emu.RegFile) SyscallResult
}

// SyscallHandlerFunc adapts a function to SyscallHandler.
type SyscallHandlerFunc func(regFile *emu.RegFile) SyscallResult

// Handle calls f.
func (f SyscallHandlerFunc) Handle(regFile *emu.RegFile) SyscallResult {
	return f(regFile)
}

// DefaultSyscallHandler implements the thread-exit syscalls of the EE
// kernel. Any other syscall returns -1 in $v0.
type DefaultSyscallHandler struct{}

// NewDefaultSyscallHandler creates a default syscall handler.
func NewDefaultSyscallHandler() *DefaultSyscallHandler {
	return &DefaultSyscallHandler{}
}

// Handle executes the syscall indicated by the register file state.
func (h *DefaultSyscallHandler) Handle(regFile *emu.RegFile) SyscallResult {
	switch regFile.ReadWord(regV1) {
	case SyscallExit:
		return SyscallResult{
			Exited:   true,
			ExitCode: int64(int32(regFile.ReadWord(regA0))),
			Handled:  true,
		}
	case SyscallExitThread, SyscallExitDeleteThread:
		return SyscallResult{Exited: true, Handled: true}
	default:
		regFile.WriteWord(regV0, 0xFFFFFFFF)
		return SyscallResult{}
	}
}
