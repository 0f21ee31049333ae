package aarch64_test

import (
	"strings"
	"testing"

	"riscy/internal/aarch64"
)

func TestEmitProducesLabelsAndDataTables(t *testing.T) {
	blk := aarch64.Block{
		GuestPC: 0x1000,
		Instrs: []aarch64.Instr{
			{Op: aarch64.OpMov, Ops: []aarch64.Operand{aarch64.RegV(1), aarch64.ImmOp(1)}},
		},
		Term: aarch64.Terminator{Kind: aarch64.MTRet},
	}
	assign := aarch64.RegAssignment{V2P: map[aarch64.VReg]aarch64.PReg{1: 2}}

	asm := aarch64.Emitter{}.Emit(0x1000, map[uint64]aarch64.TranslatedBlock{
		0x1000: {Block: blk, Regs: assign},
	})

	for _, want := range []string{
		"__block_1000:",
		"ldr\tx21, [x0, #256]",
		"mov\tx2, #1",
		"ret",
		"entry_pc:",
		".quad 4096",
		"block_addrs:",
		".quad 0x1000",
		"block_ptrs:",
		".quad __block_1000",
	} {
		if !strings.Contains(asm, want) {
			t.Errorf("expected emitted assembly to contain %q; got:\n%s", want, asm)
		}
	}
}

func TestEmitDeclaresPublicSymbols(t *testing.T) {
	asm := aarch64.Emitter{}.Emit(0x1000, map[uint64]aarch64.TranslatedBlock{
		0x1000: {Block: aarch64.Block{GuestPC: 0x1000, Term: aarch64.Terminator{Kind: aarch64.MTRet}}},
	})

	for _, want := range []string{
		".global riscy_translated_entry",
		".global entry_pc",
		".global num_blocks",
		".global block_addrs",
		".global block_ptrs",
	} {
		if !strings.Contains(asm, want) {
			t.Errorf("expected emitted assembly to declare %q; got:\n%s", want, asm)
		}
	}
}

func TestEmitNarrowMemoryOpsUseWRegisters(t *testing.T) {
	blk := aarch64.Block{
		GuestPC: 0x3000,
		Instrs: []aarch64.Instr{
			{Op: aarch64.OpLdrW, Ops: []aarch64.Operand{aarch64.RegV(1), aarch64.MemOp(aarch64.StateReg, 0)}},
			{Op: aarch64.OpStrB, Ops: []aarch64.Operand{aarch64.RegV(1), aarch64.MemOp(aarch64.StateReg, 8)}},
			{Op: aarch64.OpSxtw, Ops: []aarch64.Operand{aarch64.RegV(2), aarch64.RegV(1)}},
		},
		Term: aarch64.Terminator{Kind: aarch64.MTRet},
	}
	assign := aarch64.RegAssignment{V2P: map[aarch64.VReg]aarch64.PReg{1: 3, 2: 4}}

	asm := aarch64.Emitter{}.Emit(0x3000, map[uint64]aarch64.TranslatedBlock{
		0x3000: {Block: blk, Regs: assign},
	})

	for _, want := range []string{
		"ldr\tw3, [x0, #0]",
		"strb\tw3, [x0, #8]",
		"sxtw\tx4, w3",
	} {
		if !strings.Contains(asm, want) {
			t.Errorf("expected emitted assembly to contain %q; got:\n%s", want, asm)
		}
	}
}

func TestEmitCsetUsesConditionSuffix(t *testing.T) {
	blk := aarch64.Block{
		GuestPC: 0x2000,
		Instrs: []aarch64.Instr{
			{Op: aarch64.OpCsetEq, Ops: []aarch64.Operand{aarch64.RegV(1)}},
		},
		Term: aarch64.Terminator{Kind: aarch64.MTRet},
	}
	assign := aarch64.RegAssignment{V2P: map[aarch64.VReg]aarch64.PReg{1: 3}}

	asm := aarch64.Emitter{}.Emit(0x2000, map[uint64]aarch64.TranslatedBlock{
		0x2000: {Block: blk, Regs: assign},
	})

	if !strings.Contains(asm, "cset\tx3, eq") {
		t.Errorf("expected a cset with an eq suffix; got:\n%s", asm)
	}
}
