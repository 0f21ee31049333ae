package riscv_test

import (
	"testing"

	"riscy/internal/riscv"
)

func encBType(imm int32, rs1, rs2, funct3 uint8) uint32 {
	imm12 := uint32(imm>>12) & 1
	imm10_5 := uint32(imm>>5) & 0x3F
	imm4_1 := uint32(imm>>1) & 0xF
	imm11 := uint32(imm>>11) & 1
	return imm12<<31 | imm10_5<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		uint32(funct3)<<12 | imm4_1<<8 | imm11<<7 | 0x63
}

func encJType(imm int32, rd uint8) uint32 {
	imm20 := uint32(imm>>20) & 1
	imm10_1 := uint32(imm>>1) & 0x3FF
	imm11 := uint32(imm>>11) & 1
	imm19_12 := uint32(imm>>12) & 0xFF
	return imm20<<31 | imm19_12<<12 | imm11<<20 | imm10_1<<21 | uint32(rd)<<7 | 0x6F
}

func encEBREAK() uint32 { return 1<<20 | 0x73 }

// TestBuildFourBlockDiamond exercises the worklist algorithm over a
// branch-then-join shape: 0x1000 branches to 0x1014 (taken) or falls
// to 0x1008, 0x1008 jumps to 0x101C, and both 0x1014 and 0x101C trap.
func TestBuildFourBlockDiamond(t *testing.T) {
	mem := wordMemory{
		0x1000: 0x00100093,              // addi x1, x0, 1
		0x1004: encBType(0x10, 1, 2, 0), // beq x1, x2, +16 -> 0x1014
		0x1008: encJType(0x14, 0),       // jal x0, +20     -> 0x101C
		0x1014: encEBREAK(),
		0x101C: encEBREAK(),
	}

	cfg := riscv.CFGBuilder{}.Build(mem, 0x1000)

	if len(cfg.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(cfg.Blocks))
	}

	byAddr := map[uint64]riscv.BasicBlock{}
	for _, bb := range cfg.Blocks {
		byAddr[bb.Start] = bb
	}

	b1000, ok := byAddr[0x1000]
	if !ok {
		t.Fatal("missing block at 0x1000")
	}
	if b1000.Term != riscv.TermBranch {
		t.Errorf("block 0x1000: expected TermBranch, got %v", b1000.Term)
	}
	if len(b1000.Succs) != 2 || b1000.Succs[0] != 0x1014 || b1000.Succs[1] != 0x1008 {
		t.Errorf("block 0x1000: unexpected succs %v", b1000.Succs)
	}

	b1008, ok := byAddr[0x1008]
	if !ok {
		t.Fatal("missing block at 0x1008")
	}
	if b1008.Term != riscv.TermJump || len(b1008.Succs) != 1 || b1008.Succs[0] != 0x101C {
		t.Errorf("block 0x1008: unexpected term/succs %v/%v", b1008.Term, b1008.Succs)
	}

	for _, addr := range []uint64{0x1014, 0x101C} {
		bb, ok := byAddr[addr]
		if !ok {
			t.Fatalf("missing block at 0x%x", addr)
		}
		if bb.Term != riscv.TermTrap {
			t.Errorf("block 0x%x: expected TermTrap, got %v", addr, bb.Term)
		}
	}
}

func TestBuildStopsAtUndecodableWord(t *testing.T) {
	mem := wordMemory{0x2000: 0xFFFFFFFF}
	cfg := riscv.CFGBuilder{}.Build(mem, 0x2000)

	if len(cfg.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(cfg.Blocks))
	}
	if cfg.Blocks[0].Term != riscv.TermTrap {
		t.Errorf("expected TermTrap for undecodable entry, got %v", cfg.Blocks[0].Term)
	}
}
