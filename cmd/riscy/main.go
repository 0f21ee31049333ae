// Command riscy statically translates a RISC-V64 (RV64I) executable
// into AArch64 assembly.
package main

import (
	"fmt"
	"os"

	"riscy/internal/loader"
	"riscy/internal/translate"
	"riscy/internal/util"
)

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Printf("Command line argument error: %s\n", err)
		os.Exit(1)
	}

	img, err := loader.Load(opt.Input)
	if err != nil {
		fmt.Printf("Could not load input: %s\n", err)
		os.Exit(1)
	}
	mem := loader.NewGuestMemory(img)

	log := util.Logger{Verbose: opt.Verbose}

	result, err := translate.Translate(mem, img.Entry, log)
	if err != nil {
		fmt.Printf("Translation error: %s\n", err)
		os.Exit(1)
	}

	if opt.DumpCFG {
		printCFG(result)
		os.Exit(0)
	}
	if opt.DumpIR {
		printIR(result)
		os.Exit(0)
	}

	if len(opt.Out) > 0 {
		if err := os.WriteFile(opt.Out, []byte(result.Assembly), 0644); err != nil {
			fmt.Printf("Could not write output: %s\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Print(result.Assembly)
}

func printCFG(r translate.Result) {
	for _, bb := range r.CFG.Blocks {
		fmt.Printf("block 0x%x: term=%v succs=%v\n", bb.Start, bb.Term, bb.Succs)
	}
}

func printIR(r translate.Result) {
	for pc, blk := range r.IR {
		fmt.Printf("block 0x%x: %d instructions, term=%v\n", pc, len(blk.Insts), blk.Term.Kind)
	}
}
