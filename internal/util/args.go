// Package util holds the ambient CLI, error-collection, logging and
// output-buffering utilities shared across riscy's packages.
package util

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

// Options holds the parsed command-line configuration for the riscy
// translator.
type Options struct {
	Input   string // Path to the input RISC-V ELF binary.
	Out     string // Path to the AArch64 assembly output file ("" means stdout).
	DumpCFG bool   // Set true to print the discovered CFG and exit.
	DumpIR  bool   // Set true to print the lifted IR and exit.
	Verbose bool   // Set true to log per-block translation diagnostics.
}

const appVersion = "riscy 1.0"

// ParseArgs parses os.Args[1:] into an Options value:
// `riscy [--cfg] [--ir] [--aarch64 <path>] <input>`.
func ParseArgs() (Options, error) {
	opt := Options{}
	args := os.Args[1:]
	if len(args) == 0 {
		return opt, fmt.Errorf("expected an input file, got none")
	}

	for i1 := 0; i1 < len(args); i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-vb":
			opt.Verbose = true
		case "--cfg":
			opt.DumpCFG = true
		case "--ir":
			opt.DumpIR = true
		case "--aarch64":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if strings.HasPrefix(args[i1+1], "-") {
				return opt, fmt.Errorf("expected path after %s, got new flag %s", args[i1], args[i1+1])
			}
			opt.Out = args[i1+1]
			i1++
		default:
			if strings.HasPrefix(args[i1], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i1])
			}
			opt.Input = args[i1]
		}
	}

	if opt.Input == "" {
		return opt, fmt.Errorf("expected an input file, got none")
	}
	return opt, nil
}

func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits.")
	_, _ = fmt.Fprintln(w, "--cfg\tPrint the discovered control-flow graph and exit.")
	_, _ = fmt.Fprintln(w, "--ir\tPrint the lifted IR and exit.")
	_, _ = fmt.Fprintln(w, "--aarch64 <path>\tWrite the AArch64 assembly translation to path instead of stdout.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints application version and exits.")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: log per-block translation diagnostics.")
	_ = w.Flush()
}
