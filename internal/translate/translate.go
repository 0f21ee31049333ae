// Package translate orchestrates the seven-pass pipeline: decode,
// build CFG, lift IR, select instructions, compute liveness, allocate
// registers and emit assembly. Selection, liveness and register
// allocation are independent per block and run concurrently over a
// worker/WaitGroup fan-out; emission then runs once over all blocks.
package translate

import (
	"fmt"
	"os"
	"sync"

	"riscy/internal/aarch64"
	"riscy/internal/ir"
	"riscy/internal/riscv"
	"riscy/internal/util"
)

// Result holds every intermediate artifact of one translation run, so
// callers (the CLI's --cfg/--ir dump flags) can inspect a stage
// without re-running the pipeline.
type Result struct {
	CFG      riscv.CFG
	IR       map[uint64]ir.Block
	Skipped  map[uint64][]string
	Assembly string
}

// Translate runs the full pipeline over mem starting at entry, logging
// per-block diagnostics through log when it is verbose.
func Translate(mem riscv.Memory, entry uint64, log util.Logger) (Result, error) {
	cfg := riscv.CFGBuilder{}.Build(mem, entry)

	lifter := ir.Lifter{}
	irBlocks := make(map[uint64]ir.Block, len(cfg.Blocks))
	skipped := make(map[uint64][]string)
	for _, bb := range cfg.Blocks {
		blk, sk := lifter.Lift(bb)
		irBlocks[bb.Start] = blk
		if len(sk) > 0 {
			skipped[bb.Start] = sk
			log.Printf("block 0x%x: skipped opcodes %v", bb.Start, sk)
		}
		if err := ir.Validate(blk); err != nil {
			return Result{}, fmt.Errorf("translate: block 0x%x: %w", bb.Start, err)
		}
	}

	sel := aarch64.Selector{}
	live := aarch64.Liveness{}
	ra := aarch64.RegAlloc{}
	_, dumpLiveness := os.LookupEnv("RISCY_LIVENESS")

	type outcome struct {
		pc  uint64
		tb  aarch64.TranslatedBlock
		err error
	}
	results := make(chan outcome, len(cfg.Blocks))
	var wg sync.WaitGroup
	errs := util.NewErrorSink(len(cfg.Blocks))

	for _, bb := range cfg.Blocks {
		wg.Add(1)
		go func(bb riscv.BasicBlock) {
			defer wg.Done()
			mblk := sel.Select(irBlocks[bb.Start])
			lm := live.Compute(mblk)
			assign, err := ra.Allocate(mblk, lm)
			if err != nil {
				errs.Append(err)
				results <- outcome{pc: bb.Start, err: err}
				return
			}
			results <- outcome{pc: bb.Start, tb: aarch64.TranslatedBlock{Block: mblk, Regs: assign}}
			log.Printf("block 0x%x: %d instrs, %d live vregs", bb.Start, len(mblk.Instrs), len(lm))
			if dumpLiveness {
				fmt.Fprintf(os.Stderr, "block 0x%x: liveness %v\n", bb.Start, lm)
			}
		}(bb)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	machine := make(map[uint64]aarch64.TranslatedBlock, len(cfg.Blocks))
	for r := range results {
		if r.err == nil {
			machine[r.pc] = r.tb
		}
	}
	if errs.Len() > 0 {
		return Result{}, fmt.Errorf("translate: %d block(s) failed register allocation: %v", errs.Len(), errs.Errors())
	}

	asm := aarch64.Emitter{}.Emit(entry, machine)

	return Result{CFG: cfg, IR: irBlocks, Skipped: skipped, Assembly: asm}, nil
}
