// Package main provides the entry point for eesim.
// eesim runs EE programs on a functional model of the integer core.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/sarchlab/eesim/driver"
	"github.com/sarchlab/eesim/emu"
	"github.com/sarchlab/eesim/fetch"
	"github.com/sarchlab/eesim/insts"
	"github.com/sarchlab/eesim/loader"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, runs the program, and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("eesim", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		configPath = flags.String("config", "", "Path to run configuration (JSON or YAML)")
		verbose    = flags.Bool("v", false, "Verbose output")
		maxInsts   = flags.Uint64("max", 0, "Stop after this many instructions (0 = config value)")
		raw        = flags.Bool("raw", false, "Treat the program as a flat binary")
		base       = flags.Uint64("base", 0, "Load address and entry point for -raw")
		noCache    = flags.Bool("nocache", false, "Fetch directly from memory")
		dump       = flags.Bool("dump", false, "Print the final register state")
	)

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if flags.NArg() < 1 {
		fmt.Fprintf(stderr, "Usage: eesim [options] <program.elf>\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		flags.PrintDefaults()
		return 2
	}

	programPath := flags.Arg(0)

	config := driver.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = driver.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading config: %v\n", err)
			return 1
		}
	}
	if *maxInsts > 0 {
		config.MaxInstructions = *maxInsts
	}
	if *noCache {
		config.Cache.Enabled = false
	}

	level, err := config.Level()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *verbose && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(level)

	prog, err := loadProgram(programPath, *raw, *base)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	if *verbose {
		fmt.Fprintf(stdout, "Loaded: %s\n", programPath)
		fmt.Fprintf(stdout, "Entry point: 0x%08X\n", prog.EntryPoint)
		fmt.Fprintf(stdout, "Segments: %d\n", len(prog.Segments))
	}

	runner, err := driver.NewRunner(fetch.NewMemory(),
		driver.WithConfig(config),
		driver.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	runner.Load(prog)

	result := runner.Run()

	if *verbose {
		fmt.Fprintf(stdout, "\nProgram: %s\n", programPath)
		fmt.Fprintf(stdout, "Stopped: %s\n", result.Reason)
		fmt.Fprintf(stdout, "Instructions executed: %d\n", result.Instructions)
		if cache := runner.Cache(); cache != nil {
			stats := cache.Stats()
			fmt.Fprintf(stdout, "Fetch cache: %d hits, %d misses, %d evictions\n",
				stats.Hits, stats.Misses, stats.Evictions)
		}
	}

	if *dump {
		printer := pp.New()
		printer.SetOutput(stdout)
		printer.SetColoringEnabled(false)
		printer.Println(snapshot(runner.Emulator().RegFile()))
	}

	switch result.Reason {
	case driver.StopExit:
		if *verbose {
			fmt.Fprintf(stdout, "Exit code: %d\n", result.ExitCode)
		}
		return int(result.ExitCode)
	case driver.StopLimit:
		return 0
	default:
		fmt.Fprintf(stderr, "Emulation error: %v\n", result.Err)
		return 1
	}
}

func loadProgram(path string, raw bool, base uint64) (*loader.Program, error) {
	if !raw {
		return loader.Load(path)
	}
	if base > 0xFFFFFFFF {
		return nil, fmt.Errorf("base address 0x%x outside the 32-bit address space", base)
	}
	return loader.LoadRaw(path, uint32(base))
}

// registerState is the -dump view of the CPU.
type registerState struct {
	PC  string
	HI  string
	LO  string
	SA  string
	GPR []string
}

func snapshot(regFile *emu.RegFile) registerState {
	state := registerState{
		PC:  fmt.Sprintf("0x%08X", regFile.PC),
		HI:  qword(regFile.ReadHIQword()),
		LO:  qword(regFile.ReadLOQword()),
		SA:  fmt.Sprintf("0x%X", regFile.ReadSA()),
		GPR: make([]string, len(regFile.GPR)),
	}

	for i := range regFile.GPR {
		state.GPR[i] = fmt.Sprintf("%-5s %s", insts.RegName(uint8(i)), qword(regFile.ReadQword(uint8(i))))
	}

	return state
}

func qword(v uint128.Uint128) string {
	return fmt.Sprintf("0x%016X_%016X", v.Hi, v.Lo)
}
