// Package driver runs EE programs: it advances the PC, fetches instruction
// words, hands them to the emulator, and decides what each fault means for
// the run.
package driver

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/eesim/emu"
	"github.com/sarchlab/eesim/fetch"
	"github.com/sarchlab/eesim/insts"
	"github.com/sarchlab/eesim/loader"
)

// StopReason says why a run ended.
type StopReason uint8

// Stop reasons.
const (
	StopNone StopReason = iota
	StopExit
	StopFault
	StopLimit
	StopFetchError
)

func (r StopReason) String() string {
	switch r {
	case StopExit:
		return "exit"
	case StopFault:
		return "fault"
	case StopLimit:
		return "instruction limit"
	case StopFetchError:
		return "fetch error"
	default:
		return "running"
	}
}

// RunResult summarizes a finished run.
type RunResult struct {
	Reason StopReason

	// ExitCode is the status passed to the exit syscall.
	ExitCode int64

	// Instructions is the number of instructions executed.
	Instructions uint64

	// Fault is the fault that halted the run, if any.
	Fault *emu.Fault

	// Err is set for fetch errors, and for halting faults.
	Err error
}

// Runner drives an Emulator over a program held in memory.
type Runner struct {
	emulator *emu.Emulator
	memory   *fetch.Memory
	cache    *fetch.Cache
	fetcher  fetch.Fetcher
	syscalls SyscallHandler
	config   *Config
	logger   *logrus.Logger

	emulatorOpts []emu.EmulatorOption
}

// RunnerOption is a functional option for configuring the Runner.
type RunnerOption func(*Runner)

// WithConfig sets the run configuration.
func WithConfig(config *Config) RunnerOption {
	return func(r *Runner) {
		r.config = config
	}
}

// WithLogger sets the logger shared by the runner and the emulator.
func WithLogger(logger *logrus.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithSyscallHandler replaces the default syscall handler.
func WithSyscallHandler(handler SyscallHandler) RunnerOption {
	return func(r *Runner) {
		r.syscalls = handler
	}
}

// WithEmulatorOptions passes extra options to the emulator.
func WithEmulatorOptions(opts ...emu.EmulatorOption) RunnerOption {
	return func(r *Runner) {
		r.emulatorOpts = append(r.emulatorOpts, opts...)
	}
}

// NewRunner creates a runner that fetches from memory.
func NewRunner(memory *fetch.Memory, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		memory:   memory,
		fetcher:  memory,
		syscalls: NewDefaultSyscallHandler(),
		config:   DefaultConfig(),
		logger:   logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	if r.config.Cache.Enabled {
		cache, err := fetch.NewCache(r.config.Cache.Geometry(), memory)
		if err != nil {
			return nil, fmt.Errorf("failed to create fetch cache: %w", err)
		}
		r.cache = cache
		r.fetcher = cache
	}

	emuOpts := append([]emu.EmulatorOption{emu.WithLogger(r.logger)}, r.emulatorOpts...)
	r.emulator = emu.NewEmulator(emuOpts...)

	return r, nil
}

// Emulator returns the underlying emulator.
func (r *Runner) Emulator() *emu.Emulator {
	return r.emulator
}

// Cache returns the fetch cache, or nil when it is disabled.
func (r *Runner) Cache() *fetch.Cache {
	return r.cache
}

// Load copies the program into memory and points the emulator at its entry.
// The configured entry point, if any, takes precedence.
func (r *Runner) Load(prog *loader.Program) {
	prog.LoadInto(r.memory)
	if r.cache != nil {
		r.cache.Flush()
	}

	entry := prog.EntryPoint
	if r.config.EntryPoint != nil {
		entry = *r.config.EntryPoint
	}

	r.emulator.SetEntry(entry)
	r.emulator.RegFile().WriteWord(regSP, prog.InitialSP)

	r.logger.WithFields(logrus.Fields{
		"entry":    fmt.Sprintf("0x%08X", entry),
		"segments": len(prog.Segments),
	}).Debug("program loaded")
}

// Step executes one instruction. It returns a non-nil result when the run
// should stop.
func (r *Runner) Step() *RunResult {
	r.emulator.AdvancePC()
	pc := r.emulator.RegFile().PC

	word, err := r.fetcher.Fetch(pc)
	if err != nil {
		r.logger.WithField("pc", fmt.Sprintf("0x%08X", pc)).Warn(err)
		return r.result(StopFetchError, nil, fmt.Errorf("fetch failed: %w", err))
	}

	step := r.emulator.Execute(word)
	if step.Fault == nil {
		return nil
	}

	return r.dispose(step.Fault)
}

// Run steps until the program exits, halts on a fault, or reaches the
// instruction limit.
func (r *Runner) Run() RunResult {
	for {
		if limit := r.config.MaxInstructions; limit > 0 && r.emulator.InstructionCount() >= limit {
			r.logger.WithField("limit", limit).Warn("instruction limit reached")
			return *r.result(StopLimit, nil, nil)
		}

		if result := r.Step(); result != nil {
			return *result
		}
	}
}

// dispose decides whether a fault ends the run.
func (r *Runner) dispose(fault *emu.Fault) *RunResult {
	fields := logrus.Fields{
		"pc":   fmt.Sprintf("0x%08X", fault.PC),
		"kind": fault.Kind.String(),
	}

	var halt bool
	switch fault.Kind {
	case emu.FaultSoftwareException:
		if fault.Op == insts.OpSYSCALL {
			return r.syscall(fields)
		}
		halt = r.config.HaltOnBreak
	case emu.FaultTrap:
		halt = r.config.HaltOnTrap
	case emu.FaultArithmeticOverflow:
		halt = r.config.HaltOnOverflow
	default:
		halt = true
	}

	if halt {
		r.logger.WithFields(fields).Warn(fault.Error())
		return r.result(StopFault, fault, fault)
	}

	r.logger.WithFields(fields).Debug("continuing past fault")
	return nil
}

func (r *Runner) syscall(fields logrus.Fields) *RunResult {
	regFile := r.emulator.RegFile()
	number := regFile.ReadWord(regV1)
	fields["syscall"] = fmt.Sprintf("0x%02X", number)

	res := r.syscalls.Handle(regFile)
	if !res.Handled {
		r.logger.WithFields(fields).Warn("unhandled syscall")
		return nil
	}

	r.logger.WithFields(fields).Info("syscall")

	if res.Exited {
		result := r.result(StopExit, nil, nil)
		result.ExitCode = res.ExitCode
		return result
	}

	return nil
}

func (r *Runner) result(reason StopReason, fault *emu.Fault, err error) *RunResult {
	return &RunResult{
		Reason:       reason,
		Instructions: r.emulator.InstructionCount(),
		Fault:        fault,
		Err:          err,
	}
}
