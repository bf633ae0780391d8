// Package main provides the entry point for eesim.
// eesim is a functional emulator for the integer core of the PS2 Emotion
// Engine.
//
// For the full CLI, use: go run ./cmd/eesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("eesim - Emotion Engine integer core emulator")
	fmt.Println("")
	fmt.Println("Usage: eesim [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to run configuration (JSON or YAML)")
	fmt.Println("  -max       Stop after this many instructions")
	fmt.Println("  -raw       Treat the program as a flat binary loaded at -base")
	fmt.Println("  -nocache   Fetch directly from memory")
	fmt.Println("  -dump      Print the final register state")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/eesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/eesim' instead.")
	}
}
